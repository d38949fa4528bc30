package writer

import (
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/subtitle"
)

const (
	fontName  = "Times New Roman"
	fontSize  = 13
	fontColor = "000000"
)

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet   = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reQuote    = regexp.MustCompile(`^>\s?(.*)$`)
	reItalicQA = regexp.MustCompile(`^\*([QA][：:].+)\*$`)
)

// noteToDocx renders the note body, reusing its Markdown form line by line.
func noteToDocx(note models.Note, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), note.Title, true, false, 16)

	for _, s := range note.Sections {
		addStyledRun(doc.AddParagraph(""), s.Heading, true, false, headingSize(2))
		for _, line := range strings.Split(s.Body, "\n") {
			addMarkdownLine(doc, strings.TrimSpace(line))
		}
	}

	return doc.SaveTo(outputPath)
}

func addMarkdownLine(doc *docx.RootDoc, line string) {
	if line == "" || line == "---" {
		return
	}
	if m := reHeading.FindStringSubmatch(line); m != nil {
		addStyledRun(doc.AddParagraph(""), m[2], true, false, headingSize(len(m[1])))
		return
	}
	if m := reItalicQA.FindStringSubmatch(line); m != nil {
		addStyledRun(doc.AddParagraph(""), m[1], false, true, fontSize)
		return
	}
	if m := reQuote.FindStringSubmatch(line); m != nil {
		addRichText(doc.AddParagraph(""), "│ "+m[1])
		return
	}
	if m := reBullet.FindStringSubmatch(line); m != nil {
		addRichText(doc.AddParagraph(""), "• "+m[1])
		return
	}
	addRichText(doc.AddParagraph(""), line)
}

// transcriptToDocx writes the transcript text with one paragraph per segment, skipping
// consecutive repeats that whisper tends to emit.
func transcriptToDocx(title string, t models.Transcript, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, true, false, 16)
	doc.AddParagraph("")

	prev := ""
	for _, s := range t.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" || text == prev {
			continue
		}
		prev = text
		p := doc.AddParagraph("")
		p.AddText("[" + subtitle.Timestamp(s.StartMs, ',')[:8] + "] ").Font(fontName).Size(10).Color("666666")
		p.AddText(text).Font(fontName).Size(fontSize).Color(fontColor)
	}

	return doc.SaveTo(outputPath)
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 15
	case 3:
		return 14
	default:
		return fontSize
	}
}

func addStyledRun(p *docx.Paragraph, text string, bold, italic bool, size uint64) {
	run := p.AddText(cleanMarkdownInline(text)).Font(fontName).Size(size).Color(fontColor)
	if bold {
		run.Bold(true)
	}
	if italic {
		run.Italic(true)
	}
}

func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(cleanMarkdownInline(part)).Font(fontName).Size(fontSize).Color(fontColor)
		}
		if i < len(matches) {
			p.AddText(cleanMarkdownInline(matches[i][1])).Font(fontName).Size(fontSize).Color(fontColor).Bold(true)
		}
	}
}

func cleanMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
