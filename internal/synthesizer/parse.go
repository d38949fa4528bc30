package synthesizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

var (
	reSummary    = regexp.MustCompile(`(?s)<!--\s*摘要\s*[:：]\s*(.*?)\s*-->`)
	reSection    = regexp.MustCompile(`^##\s+(.+?)\s*#*\s*$`)
	reTitle      = regexp.MustCompile(`^#\s+`)
	reBold       = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	reMap        = regexp.MustCompile(`\[([^\[\]\n]+)\]\s*[-—–:：]+\s*["“「]([^"”」\n]+)["”」]`)
	reAnnotation = regexp.MustCompile(`[(（][^)）]*[)）]`)
	reFence      = regexp.MustCompile("(?s)^```[a-zA-Z]*\\n(.*?)\\n?```$")
)

// parsedWindow is the structured form of one completion response.
type parsedWindow struct {
	Sections []models.NoteSection
	Summary  string
}

// parseResponse splits a completion response into sections and its summary trailer.
// A response without any "## " heading, or whose sections are all empty, is malformed.
func parseResponse(raw, sourceText string) (parsedWindow, error) {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if m := reFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	var out parsedWindow
	if m := reSummary.FindStringSubmatch(text); m != nil {
		out.Summary = strings.TrimSpace(m[1])
	}
	text = reSummary.ReplaceAllString(text, "")

	var (
		sections []models.NoteSection
		preamble []string
		current  *models.NoteSection
		body     []string
	)
	closeSection := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		sections = append(sections, *current)
		current, body = nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := reSection.FindStringSubmatch(line); m != nil {
			closeSection()
			current = &models.NoteSection{Heading: strings.TrimSpace(m[1])}
			continue
		}
		if current == nil {
			if reTitle.MatchString(line) {
				continue
			}
			preamble = append(preamble, line)
			continue
		}
		body = append(body, line)
	}
	closeSection()

	if len(sections) == 0 {
		return out, models.NewError(models.ErrMalformedOutput, "missing_headings",
			fmt.Errorf("response has no section headings"))
	}

	// Map suggestions placed before the first heading belong to it.
	if pre := strings.TrimSpace(strings.Join(preamble, "\n")); pre != "" {
		if sections[0].Body == "" {
			sections[0].Body = pre
		} else {
			sections[0].Body = pre + "\n\n" + sections[0].Body
		}
	}

	source := normalize(sourceText)
	for _, s := range sections {
		if s.Body == "" {
			continue
		}
		enrich(&s, source)
		out.Sections = append(out.Sections, s)
	}
	if len(out.Sections) == 0 {
		return out, models.NewError(models.ErrMalformedOutput, "empty_sections",
			fmt.Errorf("every section in response is empty"))
	}

	if out.Summary == "" {
		out.Summary = deriveSummary(out.Sections)
	}
	return out, nil
}

// enrich fills keywords, map keywords and expansion terms from the section body.
func enrich(s *models.NoteSection, source string) {
	quoted := quotedText(s.Body)

	for _, m := range reBold.FindAllStringSubmatch(s.Body, -1) {
		term := strings.TrimSpace(m[1])
		if term == "" {
			continue
		}
		s.Keywords = appendUnique(s.Keywords, term)
		if strings.Contains(quoted, m[0]) || !inSource(term, source) {
			s.ExpansionTerms = appendUnique(s.ExpansionTerms, term)
		}
	}

	for _, m := range reMap.FindAllStringSubmatch(s.Body, -1) {
		if q := strings.TrimSpace(m[2]); q != "" {
			s.MapKeywords = appendUnique(s.MapKeywords, q)
		}
	}
}

func quotedText(body string) string {
	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// inSource reports whether term, with any parenthesised English annotation removed,
// appears in the normalized transcript text.
func inSource(term, source string) bool {
	if source == "" {
		return false
	}
	if strings.Contains(source, normalize(term)) {
		return true
	}
	base := normalize(reAnnotation.ReplaceAllString(term, ""))
	return base != "" && strings.Contains(source, base)
}

func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return list
		}
	}
	return append(list, v)
}

// deriveSummary builds a carry-over summary when the response has no trailer.
func deriveSummary(sections []models.NoteSection) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		line := s.Heading
		if len(s.Keywords) > 0 {
			n := min(len(s.Keywords), 3)
			line += "（" + strings.Join(s.Keywords[:n], "、") + "）"
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "；")
}
