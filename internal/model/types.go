package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Brownie44l1/digit-api/internal/preprocess"
)

// NumClasses is the number of digit labels, 0 through 9.
const NumClasses = 10

// Metadata describes an exported model. It ships next to the model file.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`

	// StrokePolarity is the convention the model was trained on, as seen by
	// the capture surface. Empty means undeclared.
	StrokePolarity string `json:"stroke_polarity,omitempty"`

	// OutputLogits is set when the model emits raw logits instead of a
	// probability distribution.
	OutputLogits bool `json:"output_logits,omitempty"`
}

// LoadMetadata reads and validates a metadata file, filling defaults for
// tensor names and class labels.
func LoadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := md.normalize(); err != nil {
		return nil, err
	}
	return &md, nil
}

func (md *Metadata) normalize() error {
	if md.InputName == "" {
		md.InputName = "input"
	}
	if md.OutputName == "" {
		md.OutputName = "output"
	}
	if len(md.Classes) == 0 {
		for i := 0; i < NumClasses; i++ {
			md.Classes = append(md.Classes, fmt.Sprint(i))
		}
	}
	if len(md.Classes) != NumClasses {
		return fmt.Errorf("metadata declares %d classes, want %d", len(md.Classes), NumClasses)
	}
	if md.ImageSize == 0 {
		md.ImageSize = preprocess.GridWidth
	}
	if md.ImageSize != preprocess.GridWidth {
		return fmt.Errorf("metadata image size %d, want %d", md.ImageSize, preprocess.GridWidth)
	}
	if len(md.InputShape) == 0 {
		md.InputShape = []int64{1, preprocess.FeatureLength}
	}
	if n := elements(md.InputShape); n != preprocess.FeatureLength {
		return &ShapeMismatchError{Got: int(n), Want: preprocess.FeatureLength}
	}
	if len(md.OutputShape) == 0 {
		md.OutputShape = []int64{1, NumClasses}
	}
	if n := elements(md.OutputShape); n != NumClasses {
		return fmt.Errorf("metadata output shape %v holds %d scores, want %d", md.OutputShape, n, NumClasses)
	}
	if md.StrokePolarity != "" {
		if _, err := preprocess.ParsePolarity(md.StrokePolarity); err != nil {
			return fmt.Errorf("metadata: %w", err)
		}
	}
	return nil
}

func elements(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

// PredictionRequest carries an already preprocessed feature vector.
type PredictionRequest struct {
	Image []float32 `json:"image"`
}

// ClassScore pairs a label with its score.
type ClassScore struct {
	Label int     `json:"label"`
	Score float32 `json:"score"`
}

// Prediction is the outcome of a single classification.
type Prediction struct {
	Label      int          `json:"label"`
	Class      string       `json:"class"`
	Confidence float32      `json:"confidence"`
	Scores     []float32    `json:"scores"`
	Ranked     []ClassScore `json:"ranked"`
}
