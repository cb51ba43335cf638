// Package client defines the vision backend contract used by object
// prediction and the response parsing shared by the backends.
package client

import (
	"context"

	"github.com/menta2k/image-annotator/pkg/types"
)

// VisionClient is a multimodal model endpoint.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error)
}
