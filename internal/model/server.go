package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Session runs a digit model through ONNX Runtime. It owns a single
// input/output tensor pair, so Scores calls are serialized; a Session is
// safe for concurrent use but never runs two inferences at once.
type Session struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewSession initializes the ONNX environment and loads the model described
// by metadataPath. libraryPath may be empty to use the runtime's default
// shared library lookup.
func NewSession(modelPath, metadataPath, libraryPath string) (*Session, error) {
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Session{
		session:      session,
		Metadata:     *metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Scores copies input into the model's input tensor (whatever its declared
// shape, e.g. [1,784] or [1,1,28,28]) and returns a copy of the output.
func (s *Session) Scores(input []float32) ([]float32, error) {
	if s == nil {
		return nil, Unavailable("onnx", ErrNotLoaded)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, Unavailable("onnx", ErrNotLoaded)
	}

	dst := s.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, &ShapeMismatchError{Got: len(input), Want: len(dst)}
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	return append([]float32(nil), s.outputTensor.GetData()...), nil
}

// Close releases the tensors, the session and the ONNX environment.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	ort.DestroyEnvironment()
}
