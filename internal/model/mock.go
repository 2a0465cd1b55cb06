package model

import "sync"

// Mock implements Scorer for tests.
type Mock struct {
	// ScoresFunc is called when Scores is invoked.
	ScoresFunc func(input []float32) ([]float32, error)

	mu    sync.Mutex
	calls int
}

// NewMock returns a mock that always favours label with probability 0.91.
func NewMock(label int) *Mock {
	return &Mock{
		ScoresFunc: func(input []float32) ([]float32, error) {
			scores := make([]float32, NumClasses)
			for i := range scores {
				scores[i] = 0.01
			}
			scores[label] = 0.91
			return scores, nil
		},
	}
}

// MockWithError returns a mock whose Scores always fails with err.
func MockWithError(err error) *Mock {
	return &Mock{
		ScoresFunc: func([]float32) ([]float32, error) { return nil, err },
	}
}

func (m *Mock) Scores(input []float32) ([]float32, error) {
	if m == nil {
		return nil, Unavailable("mock", ErrNotLoaded)
	}
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ScoresFunc == nil {
		return nil, Unavailable("mock", ErrNotLoaded)
	}
	return m.ScoresFunc(input)
}

// Calls returns how many times Scores was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var (
	_ Scorer = (*Mock)(nil)
	_ Scorer = (*Session)(nil)
	_ Scorer = (*RemoteScorer)(nil)
)
