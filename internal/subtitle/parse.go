package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

var (
	reCue      = regexp.MustCompile(`^(\d{1,}:)?(\d{2}):(\d{2})[,.](\d{3})\s+-->\s+(\d{1,}:)?(\d{2}):(\d{2})[,.](\d{3})`)
	reSrtIndex = regexp.MustCompile(`^\d+$`)
)

// Parse reads SRT or WebVTT content back into a transcript.
func Parse(content string, kind Kind) (models.Transcript, error) {
	if kind != SRT && kind != VTT {
		return models.Transcript{}, models.NewError(models.ErrFormat, "unknown_kind", fmt.Errorf("cannot parse %q subtitles", kind))
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")

	var (
		out  models.Transcript
		cur  *models.Segment
		text []string
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		cur.Text = strings.Join(text, "\n")
		if err := cur.Validate(); err != nil {
			return models.NewError(models.ErrFormat, "bad_cue", err)
		}
		out.Segments = append(out.Segments, *cur)
		cur, text = nil, nil
		return nil
	}

	lines := strings.Split(content, "\n")
	// skipping is set inside a block that carries no cue: the WebVTT header, NOTE, STYLE, REGION.
	skipping := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			skipping = false
			if err := flush(); err != nil {
				return models.Transcript{}, err
			}
		case skipping:
		case cur == nil && kind == VTT && vttBlock(trimmed):
			skipping = true
		case cur == nil && reSrtIndex.MatchString(trimmed):
		case cur == nil:
			start, end, ok := parseCue(trimmed)
			if ok {
				cur = &models.Segment{StartMs: start, EndMs: end}
				continue
			}
			// A WebVTT cue may carry a free-form identifier on the line before its timing.
			if kind == VTT && i+1 < len(lines) {
				if _, _, next := parseCue(strings.TrimSpace(lines[i+1])); next {
					continue
				}
			}
			return models.Transcript{}, models.NewError(models.ErrFormat, "bad_timestamp",
				fmt.Errorf("line %d: %q", i+1, trimmed))
		default:
			text = append(text, trimmed)
		}
	}
	if err := flush(); err != nil {
		return models.Transcript{}, err
	}

	out.DurationMs = out.End()
	return out, nil
}

func vttBlock(line string) bool {
	for _, kw := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
		if line == kw || strings.HasPrefix(line, kw+" ") || strings.HasPrefix(line, kw+"\t") {
			return true
		}
	}
	return false
}

func parseCue(line string) (int64, int64, bool) {
	m := reCue.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	return toMs(m[1], m[2], m[3], m[4]), toMs(m[5], m[6], m[7], m[8]), true
}

func toMs(h, m, s, ms string) int64 {
	hours, _ := strconv.ParseInt(strings.TrimSuffix(h, ":"), 10, 64)
	mins, _ := strconv.ParseInt(m, 10, 64)
	secs, _ := strconv.ParseInt(s, 10, 64)
	milli, _ := strconv.ParseInt(ms, 10, 64)
	return hours*3_600_000 + mins*60_000 + secs*1000 + milli
}
