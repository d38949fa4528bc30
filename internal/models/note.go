package models

import (
	"strings"
	"time"
)

// NoteSection is one titled block of a synthesized note.
type NoteSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	// MapKeywords are place-name queries suggested for map lookup. Unique across the note.
	MapKeywords []string `json:"map_keywords"`
	// Keywords are the bolded terms of the body.
	Keywords []string `json:"keywords"`
	// ExpansionTerms are bolded terms not found in the source transcript.
	ExpansionTerms []string `json:"expansion_terms,omitempty"`
}

// Note is the synthesized study document.
type Note struct {
	Title    string        `json:"title"`
	Sections []NoteSection `json:"sections"`
	Metadata *Metadata     `json:"metadata,omitempty"`
}

// Metadata records the parameters of the run that produced a note.
type Metadata struct {
	RunID             string          `json:"run_id"`
	Source            string          `json:"source"`
	Fingerprint       string          `json:"fingerprint"`
	Model             string          `json:"model"`
	CompletionBackend string          `json:"completion_backend"`
	Transcriber       string          `json:"transcriber"`
	ModelSize         string          `json:"model_size"`
	Language          string          `json:"language,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
	Stats             TranscriptStats `json:"statistics"`
}

// WithMetadata returns a copy of n carrying m. The receiver is left untouched.
func (n Note) WithMetadata(m Metadata) Note {
	out := n
	out.Sections = append([]NoteSection(nil), n.Sections...)
	out.Metadata = &m
	return out
}

// Keywords returns the bolded terms of all sections, deduplicated case-insensitively.
func (n Note) Keywords() []string {
	return collectUnique(n.Sections, func(s NoteSection) []string { return s.Keywords })
}

// MapKeywords returns the map suggestions of all sections in section order.
func (n Note) MapKeywords() []string {
	return collectUnique(n.Sections, func(s NoteSection) []string { return s.MapKeywords })
}

func collectUnique(sections []NoteSection, pick func(NoteSection) []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range sections {
		for _, k := range pick(s) {
			key := strings.ToLower(strings.TrimSpace(k))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, k)
		}
	}
	return out
}
