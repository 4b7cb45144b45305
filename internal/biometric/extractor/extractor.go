// Package extractor is the boundary to the external face-embedding model.
// The service only ever sees fixed-length feature vectors; which model
// produces them is a deployment detail behind this interface.
package extractor

import "context"
import "errors"

// ErrExtractionFailed reports that no usable face was found in the image or
// the image could not be read. Callers treat it as a recoverable negative,
// not an infra fault.
var ErrExtractionFailed = errors.New("no usable face in image")

// Extractor turns raw image bytes into a feature vector.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]float64, error)
}
