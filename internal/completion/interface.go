package completion

import "context"

// Completer is a text-generation endpoint.
//
// prompt carries the request itself; background is optional context (for example the running
// summary of earlier transcript windows) that backends send ahead of the prompt.
type Completer interface {
	Complete(ctx context.Context, prompt, background string) (string, error)
	// Model names the backend model, recorded in note metadata.
	Model() string
	Backend() string
}
