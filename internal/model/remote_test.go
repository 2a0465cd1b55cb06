package model

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/digit-api/internal/preprocess"
)

func TestRemoteScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/scores", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req PredictionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Image, preprocess.FeatureLength)

		scores := make([]float32, NumClasses)
		scores[2] = 0.8
		json.NewEncoder(w).Encode(scoresResponse{Scores: scores})
	}))
	defer srv.Close()

	remote, err := NewRemoteScorer(srv.URL+"/v1", nil, time.Second)
	require.NoError(t, err)

	result, err := NewClassifier(remote, WithBackend("remote")).Predict(vector(0.3))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Label)
	assert.InDelta(t, 0.8, result.Confidence, 1e-6)
}

func TestRemoteScorerUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	remote, err := NewRemoteScorer(srv.URL, nil, time.Second)
	require.NoError(t, err)

	_, err = NewClassifier(remote).Predict(vector(0))
	var unavailable *ModelUnavailableError
	require.True(t, errors.As(err, &unavailable), "got %v", err)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestRemoteScorerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	remote, err := NewRemoteScorer(url, nil, time.Second)
	require.NoError(t, err)

	_, err = remote.Scores(vector(0))
	var unavailable *ModelUnavailableError
	assert.True(t, errors.As(err, &unavailable), "got %v", err)
}

func TestRemoteScorerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "kaboom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	remote, err := NewRemoteScorer(srv.URL, nil, time.Second)
	require.NoError(t, err)

	_, err = remote.Scores(vector(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	var unavailable *ModelUnavailableError
	assert.False(t, errors.As(err, &unavailable))
}

func TestRemoteScorerTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	remote, err := NewRemoteScorer(srv.URL, nil, 20*time.Millisecond)
	require.NoError(t, err)

	_, err = remote.Scores(vector(0))
	var unavailable *ModelUnavailableError
	assert.True(t, errors.As(err, &unavailable), "got %v", err)
}

func TestNewRemoteScorerInvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost", "://nope"} {
		_, err := NewRemoteScorer(u, nil, 0)
		assert.Error(t, err, u)
	}
}
