package synthesizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// window is a contiguous run of segments rendered as prompt text.
type window struct {
	Index    int
	Segments []models.Segment
	Text     string
}

// partition packs segments into windows of at most maxRunes runes of rendered text.
// Windows only break between segments; a single oversized segment gets a window of its own.
func partition(segments []models.Segment, maxRunes int) []window {
	var (
		out   []window
		cur   []models.Segment
		lines []string
		size  int
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, window{
			Index:    len(out),
			Segments: cur,
			Text:     strings.Join(lines, "\n"),
		})
		cur, lines, size = nil, nil, 0
	}

	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		line := fmt.Sprintf("[%s] %s", clock(s.StartMs), text)
		n := utf8.RuneCountInString(line) + 1
		if len(cur) > 0 && size+n > maxRunes {
			flush()
		}
		cur = append(cur, s)
		lines = append(lines, line)
		size += n
	}
	flush()
	return out
}

func clock(ms int64) string {
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
}
