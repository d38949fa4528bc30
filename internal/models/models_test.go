package models

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		seg     Segment
		wantErr bool
	}{
		{"valid", Segment{StartMs: 0, EndMs: 2000, Text: "凯撒在高卢"}, false},
		{"negative start", Segment{StartMs: -1, EndMs: 10, Text: "x"}, true},
		{"end before start", Segment{StartMs: 20, EndMs: 10, Text: "x"}, true},
		{"zero length", Segment{StartMs: 10, EndMs: 10, Text: "x"}, true},
		{"blank text", Segment{StartMs: 0, EndMs: 10, Text: "  "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestTranscriptHelpers(t *testing.T) {
	tr := Transcript{Segments: []Segment{
		{StartMs: 0, EndMs: 2000, Text: " 凯撒在高卢 ", Confidence: 0.8},
		{StartMs: 2000, EndMs: 5000, Text: "随后渡过卢比孔河", Confidence: 0.6},
	}}

	assert.Equal(t, "凯撒在高卢\n随后渡过卢比孔河", tr.FullText())
	assert.False(t, tr.IsEmpty())

	st := tr.Stats()
	assert.Equal(t, 2, st.Segments)
	assert.Equal(t, 13, st.TextLength)
	assert.Equal(t, int64(5000), st.DurationMs)
	assert.InDelta(t, 0.7, st.AverageConfidence, 1e-9)

	assert.True(t, Transcript{}.IsEmpty())
	assert.True(t, Transcript{Segments: []Segment{{StartMs: 0, EndMs: 1, Text: " "}}}.IsEmpty())
}

func TestNoteWithMetadataDoesNotMutate(t *testing.T) {
	n := Note{Title: "t", Sections: []NoteSection{{Heading: "h", Body: "b"}}}
	m := n.WithMetadata(Metadata{RunID: "r1"})

	assert.Nil(t, n.Metadata)
	require.NotNil(t, m.Metadata)
	assert.Equal(t, "r1", m.Metadata.RunID)

	m.Sections[0].Heading = "changed"
	assert.Equal(t, "h", n.Sections[0].Heading)
}

func TestNoteAggregates(t *testing.T) {
	n := Note{Sections: []NoteSection{
		{Keywords: []string{"元老院", "Senate"}, MapKeywords: []string{"罗马"}},
		{Keywords: []string{"senate"}, MapKeywords: []string{"Rome", "卢比孔河"}},
	}}
	assert.Equal(t, []string{"元老院", "Senate"}, n.Keywords())
	assert.Equal(t, []string{"罗马", "Rome", "卢比孔河"}, n.MapKeywords())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrSynthesis, "all_windows_failed", cause)

	assert.ErrorIs(t, err, ErrSynthesis)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTranscription)
	assert.Equal(t, "all_windows_failed", Reason(err))
	assert.Equal(t, "synthesis failed (all_windows_failed): boom", err.Error())

	wrapped := Cancelled(context.Canceled)
	assert.ErrorIs(t, wrapped, ErrCancelled)
	assert.ErrorIs(t, wrapped, context.Canceled)
	assert.Equal(t, cause, Cancelled(cause))
}
