// Package interfaces defines service contracts for EGX Trends
package interfaces

import (
	"context"
)

// GenerateOptions tunes a single generation call
type GenerateOptions struct {
	// EnableSearchGrounding lets the model consult live web search
	EnableSearchGrounding bool
}

// TextGenerator is the narrow LLM capability the retrieval services consume
type TextGenerator interface {
	// Generate returns the model's text response for prompt
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// UsageRecorder counts remote generation calls
type UsageRecorder interface {
	// Record registers one remote call, successful or not
	Record()
}
