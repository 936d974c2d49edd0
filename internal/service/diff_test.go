package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_Identical(t *testing.T) {
	d, err := Diff("a\nb\n", "a\nb\n", 1, 2)
	require.NoError(t, err)

	assert.Empty(t, d.Deltas)
	assert.Empty(t, d.Unified)
	assert.Equal(t, "a\nb\n", d.Original)
}

func TestDiff_Deltas(t *testing.T) {
	d, err := Diff("a\nb\nc", "a\nB\nc\nd", 1, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"[ChangeDelta, position: 1, lines: [b] to [B]]",
		"[InsertDelta, position: 3, lines: [d]]",
	}, d.Deltas)
	assert.Contains(t, d.Unified, "--- version 1")
	assert.Contains(t, d.Unified, "+++ version 2")
	assert.Contains(t, d.Unified, "-b")
	assert.Contains(t, d.Unified, "+B")
}

func TestDiff_Delete(t *testing.T) {
	d, err := Diff("keep\ndrop\n", "keep\n", 3, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"[DeleteDelta, position: 1, lines: [drop]]"}, d.Deltas)
}
