// Package subtitle renders transcripts as SRT, WebVTT or timestamped plain text
// and parses SRT/WebVTT back into segments.
package subtitle

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// Kind is a subtitle file format.
type Kind string

const (
	SRT  Kind = "srt"
	VTT  Kind = "vtt"
	Text Kind = "txt"
)

// Kinds lists every supported output format in the order they are written to disk.
var Kinds = []Kind{SRT, VTT, Text}

// Format renders the transcript in the given format.
func Format(t models.Transcript, kind Kind) (string, error) {
	for i, s := range t.Segments {
		if err := s.Validate(); err != nil {
			return "", models.NewError(models.ErrFormat, "bad_segment", fmt.Errorf("segment %d: %w", i+1, err))
		}
	}

	switch kind {
	case SRT:
		return formatSRT(t.Segments), nil
	case VTT:
		return formatVTT(t.Segments), nil
	case Text:
		return formatText(t.Segments), nil
	default:
		return "", models.NewError(models.ErrFormat, "unknown_kind", fmt.Errorf("unsupported subtitle format %q", kind))
	}
}

func formatSRT(segments []models.Segment) string {
	blocks := make([]string, 0, len(segments))
	for i, s := range segments {
		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\n%s\n",
			i+1, Timestamp(s.StartMs, ','), Timestamp(s.EndMs, ','), strings.TrimSpace(s.Text)))
	}
	return strings.Join(blocks, "\n")
}

func formatVTT(segments []models.Segment) string {
	blocks := make([]string, 0, len(segments)+1)
	blocks = append(blocks, "WEBVTT\n")
	for _, s := range segments {
		blocks = append(blocks, fmt.Sprintf("%s --> %s\n%s\n",
			Timestamp(s.StartMs, '.'), Timestamp(s.EndMs, '.'), strings.TrimSpace(s.Text)))
	}
	return strings.Join(blocks, "\n")
}

func formatText(segments []models.Segment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		lines = append(lines, fmt.Sprintf("[%s] %s", Timestamp(s.StartMs, ','), strings.TrimSpace(s.Text)))
	}
	return strings.Join(lines, "\n")
}

// Timestamp renders ms as HH:MM:SS<sep>mmm.
func Timestamp(ms int64, sep byte) string {
	h := ms / 3_600_000
	m := ms % 3_600_000 / 60_000
	s := ms % 60_000 / 1000
	milli := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, milli)
}
