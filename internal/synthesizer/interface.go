package synthesizer

import (
	"context"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// Synthesizer turns a transcript into a sectioned study note.
type Synthesizer interface {
	Synthesize(ctx context.Context, transcript models.Transcript, hint TitleHint) (models.Note, error)
}

// TitleHint carries the title candidates known to the caller.
type TitleHint struct {
	// Override is an explicit title from the user.
	Override string
	// Extracted is the title found by the acquirer (video title or file stem).
	Extracted string
}
