package writer

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	TranscriptFile = "transcription_data.json"
	SubtitleDir    = "subtitles"
	noteSuffix     = "_学习笔记"
)

var reUnsafe = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeTitle replaces characters that are not allowed in file names.
func SanitizeTitle(title string) string {
	s := strings.TrimSpace(reUnsafe.ReplaceAllString(title, "_"))
	if s == "" {
		return "learning_notes"
	}
	return s
}

// NoteBase returns the path of the note files without extension.
func NoteBase(dir, title string) string {
	return filepath.Join(dir, SanitizeTitle(title)+noteSuffix)
}
