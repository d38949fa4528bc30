package acquirer

import "context"

// Acquirer turns a source (local media file or URL) into a local 16 kHz mono WAV file.
type Acquirer interface {
	Acquire(ctx context.Context, source string) (AudioHandle, error)
}

// AudioHandle is an acquired audio file. Cleanup removes every temporary file the
// acquisition produced and is safe to call more than once.
type AudioHandle struct {
	Path    string
	Title   string
	Cleanup func()
}
