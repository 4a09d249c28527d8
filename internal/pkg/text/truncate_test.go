package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	// 해 and 외 are three bytes each; a cut inside 외 backs up to its start.
	assert.Equal(t, "해...", Truncate("해외선물", 4))
	assert.Equal(t, "해외...", Truncate("해외선물", 6))
}
