package generation

import "context"

// Output is what a single successful attempt produced.
type Output struct {
	// Images are the validated result URLs in page order.
	Images []string

	// Prompt is the full prompt as typed into the page, parameter suffix included.
	Prompt string
}

// Driver performs one end-to-end attempt against the upstream image generator.
// Implementations must release every page they open before returning, on
// both the success and the failure path.
type Driver interface {
	Imagine(ctx context.Context, prompt string) (Output, error)
}
