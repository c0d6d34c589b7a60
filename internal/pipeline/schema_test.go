package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaNormalizerHeader(t *testing.T) {
	n := NewSchemaNormalizer(map[string]string{
		"Campus Code":   ColEntityID,
		"student group": ColSegmentLabel,
	})

	got := n.Header([]string{"CAMPUS  CODE", "Student Group", "Some Extra Col"})
	assert.Equal(t, []string{ColEntityID, ColSegmentLabel, "some_extra_col"}, got)
}

func TestSchemaNormalizerRow(t *testing.T) {
	n := NewSchemaNormalizer(nil)
	headers := []string{"a", "b", "c"}

	row := n.Row(headers, []string{"1", "2"})
	assert.Equal(t, Row{"a": "1", "b": "2"}, row)

	// Extra cells beyond the header are dropped.
	row = n.Row(headers, []string{"1", "2", "3", "4"})
	assert.Equal(t, Row{"a": "1", "b": "2", "c": "3"}, row)
}
