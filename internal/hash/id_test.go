package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileIdentity_Deterministic(t *testing.T) {
	a := FileIdentity("ar-20200101", "abc123")
	b := FileIdentity("ar-20200101", "abc123")
	assert.Equal(t, a, b)
}

func TestFileIdentity_DistinguishesMissionAndCRC(t *testing.T) {
	base := FileIdentity("ar-20200101", "abc123")

	assert.NotEqual(t, base, FileIdentity("ar-20200102", "abc123"))
	assert.NotEqual(t, base, FileIdentity("ar-20200101", "def456"))
}

func TestFileIdentity_NoDelimiterCollision(t *testing.T) {
	// Without an internal separator, ("ab", "c") and ("a", "bc") could collide.
	a := FileIdentity("ab", "c")
	b := FileIdentity("a", "bc")
	assert.NotEqual(t, a, b)
}
