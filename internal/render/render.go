// Package render is the boundary to the image service: prompt to rendered
// image, and rendered image plus avatar to a framed thumbnail.
package render

import (
	"context"
	"fmt"
)

// Generator renders a prompt and returns the public URL of the result.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Compositor frames a rendered image with the creator's avatar and returns
// the public URL of the thumbnail.
type Compositor interface {
	Thumbnail(ctx context.Context, imageURL, avatarURL string) (string, error)
}

// GenerationError wraps any failure of a Generator.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate image: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// CompositingError wraps any failure of a Compositor.
type CompositingError struct {
	Err error
}

func (e *CompositingError) Error() string {
	return fmt.Sprintf("composite thumbnail: %v", e.Err)
}

func (e *CompositingError) Unwrap() error { return e.Err }
