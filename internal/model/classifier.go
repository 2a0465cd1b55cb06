package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Brownie44l1/digit-api/internal/preprocess"
)

// Scorer is an external digit model. Scores receives a 784-length vector
// and returns one score per class.
//
// Implementations document their own concurrency safety; Classifier adds no
// locking of its own.
type Scorer interface {
	Scores(input []float32) ([]float32, error)
}

// Classifier is the single call site between the pipeline and a model.
type Classifier struct {
	model   Scorer
	backend string
	classes []string
	softmax bool
}

type ClassifierOption func(*Classifier)

// WithSoftmax converts raw logits into a probability distribution before
// picking the label.
func WithSoftmax(enabled bool) ClassifierOption {
	return func(c *Classifier) { c.softmax = enabled }
}

// WithClasses overrides the display names of the ten labels.
func WithClasses(classes []string) ClassifierOption {
	return func(c *Classifier) {
		if len(classes) == NumClasses {
			c.classes = classes
		}
	}
}

// WithBackend names the model backend in errors and logs.
func WithBackend(name string) ClassifierOption {
	return func(c *Classifier) { c.backend = name }
}

// NewClassifier wraps m. A nil m is allowed and makes every Predict call fail
// with ModelUnavailableError. A typed nil backend such as (*Session)(nil) is
// attached as-is; the backends in this package answer it with
// ModelUnavailableError too.
func NewClassifier(m Scorer, opts ...ClassifierOption) *Classifier {
	c := &Classifier{model: m, backend: "none"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether a model is attached.
func (c *Classifier) Available() bool {
	return c != nil && c.model != nil
}

func (c *Classifier) Backend() string {
	return c.backend
}

// Predict classifies v. It never invents a label: every failure comes back
// as an error.
func (c *Classifier) Predict(v preprocess.FeatureVector) (*Prediction, error) {
	if len(v) != preprocess.FeatureLength {
		return nil, &ShapeMismatchError{Got: len(v), Want: preprocess.FeatureLength}
	}
	if !c.Available() {
		return nil, Unavailable(c.backendName(), ErrNotLoaded)
	}

	scores, err := c.model.Scores(v)
	if err != nil {
		var unavailable *ModelUnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		if errors.Is(err, ErrNotLoaded) {
			return nil, Unavailable(c.backend, err)
		}
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if len(scores) != NumClasses {
		return nil, fmt.Errorf("inference failed: model returned %d scores, want %d", len(scores), NumClasses)
	}
	for i, s := range scores {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return nil, fmt.Errorf("inference failed: score for label %d is %v", i, s)
		}
	}

	if c.softmax {
		scores = softmax(scores)
	} else {
		scores = append([]float32(nil), scores...)
	}

	label := argmax(scores)
	return &Prediction{
		Label:      label,
		Class:      c.className(label),
		Confidence: clamp01(scores[label]),
		Scores:     scores,
		Ranked:     rank(scores),
	}, nil
}

func (c *Classifier) backendName() string {
	if c == nil {
		return "none"
	}
	return c.backend
}

func (c *Classifier) className(label int) string {
	if c.classes != nil {
		return c.classes[label]
	}
	return fmt.Sprint(label)
}

// argmax picks the highest score; ties resolve to the lowest index.
func argmax(scores []float32) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}

func rank(scores []float32) []ClassScore {
	ranked := make([]ClassScore, len(scores))
	for i, s := range scores {
		ranked[i] = ClassScore{Label: i, Score: s}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func softmax(logits []float32) []float32 {
	hi := logits[0]
	for _, l := range logits {
		if l > hi {
			hi = l
		}
	}
	out := make([]float32, len(logits))
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l - hi))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
