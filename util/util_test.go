package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateLut(t *testing.T) {
	assert.Empty(t, GenerateLut(0))

	lut := GenerateLut(3)
	assert.Len(t, lut, 3)
	assert.InDelta(t, 0.5, lut[1], 1e-9)
	for i := 1; i < len(lut); i++ {
		assert.Less(t, lut[i-1], lut[i])
	}
	assert.Greater(t, lut[0], 0.0)
	assert.Less(t, lut[2], 1.0)
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "1,234,568", Thousands(1234567.8, 0))
	assert.Equal(t, "1,234.57", Thousands(1234.567, 2))
	assert.Equal(t, "12", Thousands(12, 0))
}

func TestComma(t *testing.T) {
	assert.Equal(t, "1,500,000", Comma(1500000.9))
	assert.Equal(t, "0", Comma(0))
}
