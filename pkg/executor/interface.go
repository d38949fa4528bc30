package executor

import "context"

// Executor runs external tools (ffmpeg, yt-dlp, whisper) and returns their stdout.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error)
	// LookPath reports whether a binary is resolvable before a run starts.
	LookPath(name string) (string, error)
}
