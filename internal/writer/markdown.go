package writer

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// RenderMarkdown renders the note as a "# title" document with one "## " block per section.
func RenderMarkdown(note models.Note) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(note.Title)
	b.WriteString("\n")
	for _, s := range note.Sections {
		b.WriteString("\n## ")
		b.WriteString(s.Heading)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(s.Body))
		b.WriteString("\n")
	}
	return b.String()
}

// noteDocument is the JSON envelope written next to the Markdown note.
type noteDocument struct {
	Title       string               `json:"title"`
	Sections    []models.NoteSection `json:"sections"`
	Keywords    []string             `json:"keywords"`
	MapKeywords []string             `json:"map_keywords"`
	Metadata    *models.Metadata     `json:"metadata,omitempty"`
}

// RenderJSON renders the note envelope with aggregated keywords.
func RenderJSON(note models.Note) ([]byte, error) {
	return marshal(noteDocument{
		Title:       note.Title,
		Sections:    note.Sections,
		Keywords:    note.Keywords(),
		MapKeywords: note.MapKeywords(),
		Metadata:    note.Metadata,
	})
}

// marshal indents and keeps characters such as < and & unescaped.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
