package synthesizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

func TestParseResponse(t *testing.T) {
	raw := "```markdown\n# 标题\n## 苏拉\n### 细节\n**苏拉(Sulla)**进军**罗马**\n> **公敌宣告**制度\n## 空\n\n<!-- 摘要：苏拉独裁 -->\n```"

	got, err := parseResponse(raw, normalize("苏拉 进军罗马"))
	require.NoError(t, err)
	require.Len(t, got.Sections, 1, "empty section is dropped")

	sec := got.Sections[0]
	assert.Equal(t, "苏拉", sec.Heading)
	assert.True(t, strings.HasPrefix(sec.Body, "### 细节"), "deeper headings stay in the body")
	assert.Equal(t, []string{"苏拉(Sulla)", "罗马", "公敌宣告"}, sec.Keywords)
	assert.Equal(t, []string{"公敌宣告"}, sec.ExpansionTerms)
	assert.Equal(t, "苏拉独裁", got.Summary)
	assert.NotContains(t, sec.Body, "摘要")
}

func TestParseResponseMalformed(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{"no headings", "# 只有标题\n正文", "missing_headings"},
		{"only empty sections", "## 一\n\n## 二\n   ", "empty_sections"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.raw, "")
			assert.ErrorIs(t, err, models.ErrMalformedOutput)
			assert.Equal(t, tt.reason, models.Reason(err))
		})
	}
}

func TestQuotedTermFlaggedEvenWhenInSource(t *testing.T) {
	got, err := parseResponse("## 一\n> 引用 **元老院**\n正文", normalize("元老院"))
	require.NoError(t, err)
	assert.Equal(t, []string{"元老院"}, got.Sections[0].ExpansionTerms)
}

func TestPartition(t *testing.T) {
	segs := []models.Segment{
		{StartMs: 0, EndMs: 1000, Text: "短句"},
		{StartMs: 1000, EndMs: 2000, Text: "另一句"},
		{StartMs: 2000, EndMs: 3000, Text: strings.Repeat("长", 50)},
		{StartMs: 3_661_000, EndMs: 3_662_000, Text: "尾"},
	}

	windows := partition(segs, 30)
	require.Len(t, windows, 3)
	assert.Equal(t, "[00:00:00] 短句\n[00:00:01] 另一句", windows[0].Text)
	assert.Len(t, windows[1].Segments, 1, "oversized segment gets its own window")
	assert.Equal(t, "[01:01:01] 尾", windows[2].Text)

	var total int
	for i, w := range windows {
		assert.Equal(t, i, w.Index)
		total += len(w.Segments)
	}
	assert.Equal(t, len(segs), total, "no segment is split or lost")
}

func TestRollSummaryCap(t *testing.T) {
	s := rollSummary("", "第一段", 10)
	s = rollSummary(s, "第二段内容很长", 10)
	assert.Equal(t, 10, utf8.RuneCountInString(s))
	assert.True(t, strings.HasSuffix(s, "第二段内容很长"), "newest text is kept")
	assert.Equal(t, s, rollSummary(s, "  ", 10))
}
