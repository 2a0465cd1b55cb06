package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RemoteScorer calls an external scoring service over HTTP. It holds no
// per-request state and is safe for concurrent use.
//
// Wire format: POST {base}/scores with {"image":[...784 floats]}, answered by
// {"scores":[...10 floats]}.
type RemoteScorer struct {
	url     *url.URL
	client  *http.Client
	timeout time.Duration
}

type scoresResponse struct {
	Scores []float32 `json:"scores"`
}

// NewRemoteScorer parses baseURL. A nil client means http.DefaultClient; a
// zero timeout means no per-request deadline.
func NewRemoteScorer(baseURL string, client *http.Client, timeout time.Duration) (*RemoteScorer, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url: %q needs scheme and host", baseURL)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &RemoteScorer{url: u, client: client, timeout: timeout}, nil
}

func (r *RemoteScorer) Scores(input []float32) ([]float32, error) {
	if r == nil {
		return nil, Unavailable("remote", ErrNotLoaded)
	}
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.ScoresContext(ctx, input)
}

// ScoresContext is Scores bounded by ctx.
func (r *RemoteScorer) ScoresContext(ctx context.Context, input []float32) ([]float32, error) {
	body, err := json.Marshal(PredictionRequest{Image: input})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url.JoinPath("/scores").String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := r.client.Do(request)
	if err != nil {
		return nil, Unavailable("remote", fmt.Errorf("send request: %w", err))
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(response.Body, 4<<10))
		err := fmt.Errorf("server response status code: %d, body: %s", response.StatusCode, bytes.TrimSpace(msg))
		if response.StatusCode == http.StatusServiceUnavailable {
			return nil, Unavailable("remote", errors.Join(ErrNotLoaded, err))
		}
		return nil, err
	}

	var resp scoresResponse
	if err := json.NewDecoder(response.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return resp.Scores, nil
}
