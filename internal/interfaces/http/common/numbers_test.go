package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePositiveInt(t *testing.T) {
	value, ok := ParsePositiveInt("3", 1)
	assert.True(t, ok)
	assert.Equal(t, 3, value)

	value, ok = ParsePositiveInt("", 10)
	assert.False(t, ok)
	assert.Equal(t, 10, value)

	value, ok = ParsePositiveInt("0", 10)
	assert.False(t, ok)
	assert.Equal(t, 10, value)

	value, ok = ParsePositiveInt("-5", 10)
	assert.False(t, ok)
	assert.Equal(t, 10, value)

	value, ok = ParsePositiveInt("abc", 10)
	assert.False(t, ok)
	assert.Equal(t, 10, value)
}
