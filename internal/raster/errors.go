package raster

import "fmt"

// InvalidRasterError reports a malformed or empty raster. It is never
// recovered inside the pipeline; callers reject the request.
type InvalidRasterError struct {
	Reason string
}

func (e *InvalidRasterError) Error() string {
	return fmt.Sprintf("invalid raster: %s", e.Reason)
}

func invalid(reason string) error {
	return &InvalidRasterError{Reason: reason}
}
