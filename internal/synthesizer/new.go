package synthesizer

import (
	"time"

	"github.com/nguyentantai21042004/caption-notes/internal/completion"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
)

// Options tune window sizing, summary carry-over and retries.
type Options struct {
	MaxWindowRunes  int
	SummaryMaxRunes int
	FallbackTitle   string
	Retry           retry.Policy
	// CallTimeout bounds a single completion call.
	CallTimeout time.Duration
}

type implSynthesizer struct {
	completer completion.Completer
	opts      Options
	logger    logger.Logger
}

// New creates a Synthesizer that calls completer once per transcript window.
func New(completer completion.Completer, opts Options, log logger.Logger) Synthesizer {
	if opts.MaxWindowRunes <= 0 {
		opts.MaxWindowRunes = 6000
	}
	if opts.SummaryMaxRunes <= 0 {
		opts.SummaryMaxRunes = 600
	}
	// The call timeout is applied per attempt by callWindow, outside the retry helper.
	opts.Retry.CallTimeout = 0
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = retry.IsTransient
	}
	return &implSynthesizer{
		completer: completer,
		opts:      opts,
		logger:    log,
	}
}
