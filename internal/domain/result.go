package domain

// Success is the payload of a successful generation.
type Success struct {
	// Images holds the result URLs in page order.
	Images []string `json:"images"`

	// Prompt echoes the prompt exactly as it was sent upstream.
	Prompt string `json:"prompt"`
}

// Failure is the payload of a generation that exhausted its attempts.
type Failure struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// GenerationResult is a tagged outcome: exactly one of Success and Failure is set.
// Use NewSuccess and NewFailure to build one.
type GenerationResult struct {
	Success *Success `json:"success,omitempty"`
	Failure *Failure `json:"failure,omitempty"`

	// Attempts is the number of attempts spent producing the outcome.
	Attempts int `json:"attempts"`
}

// NewSuccess builds a successful outcome.
func NewSuccess(images []string, prompt string, attempts int) GenerationResult {
	if images == nil {
		images = []string{}
	}
	return GenerationResult{
		Success:  &Success{Images: images, Prompt: prompt},
		Attempts: attempts,
	}
}

// NewFailure builds a failed outcome.
func NewFailure(message string, retryable bool, attempts int) GenerationResult {
	return GenerationResult{
		Failure:  &Failure{Message: message, Retryable: retryable},
		Attempts: attempts,
	}
}

// OK reports whether the outcome is a success.
func (r GenerationResult) OK() bool {
	return r.Success != nil && r.Failure == nil
}
