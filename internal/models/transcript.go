package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Segment is one time-aligned transcribed utterance.
type Segment struct {
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Validate checks the timing and text of a single segment.
func (s Segment) Validate() error {
	if s.StartMs < 0 {
		return fmt.Errorf("negative start %dms", s.StartMs)
	}
	if s.EndMs <= s.StartMs {
		return fmt.Errorf("end %dms not after start %dms", s.EndMs, s.StartMs)
	}
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("empty text at %dms", s.StartMs)
	}
	return nil
}

// Transcript is the ordered segment sequence for one source.
// It is treated as read-only once a transcriber returns it.
type Transcript struct {
	Segments   []Segment `json:"segments"`
	Language   string    `json:"language,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// FullText joins the trimmed text of every segment with newlines.
func (t Transcript) FullText() string {
	var b strings.Builder
	for i, s := range t.Segments {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.TrimSpace(s.Text))
	}
	return b.String()
}

// IsEmpty reports whether the transcript carries no spoken text at all.
func (t Transcript) IsEmpty() bool {
	for _, s := range t.Segments {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}

// End returns the largest segment end, or DurationMs when that is larger.
func (t Transcript) End() int64 {
	end := t.DurationMs
	for _, s := range t.Segments {
		if s.EndMs > end {
			end = s.EndMs
		}
	}
	return end
}

// TranscriptStats summarises a transcript for logs and persisted metadata.
type TranscriptStats struct {
	Segments          int     `json:"segments_count"`
	TextLength        int     `json:"total_text_length"`
	DurationMs        int64   `json:"duration_ms"`
	AverageConfidence float64 `json:"average_confidence"`
}

func (t Transcript) Stats() TranscriptStats {
	st := TranscriptStats{
		Segments:   len(t.Segments),
		DurationMs: t.End(),
	}
	var conf float64
	for _, s := range t.Segments {
		st.TextLength += utf8.RuneCountInString(strings.TrimSpace(s.Text))
		conf += s.Confidence
	}
	if len(t.Segments) > 0 {
		st.AverageConfidence = conf / float64(len(t.Segments))
	}
	return st
}
