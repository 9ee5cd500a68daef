package util

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/fogleman/ease"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// GenerateLut returns steps eased positions strictly between 0 and 1,
// used to place tween frames between two time keys.
func GenerateLut(steps int) []float64 {
	lut := make([]float64, steps)
	for i := range lut {
		lut[i] = ease.InOutQuad(float64(i+1) / float64(steps+1))
	}
	return lut
}

// Thousands formats v with thousands separators and a fixed number of
// decimals, e.g. 1,234.57.
func Thousands(v float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// Comma formats the integer part of v with thousands separators, the
// way axis ticks are labelled.
func Comma(v float64) string {
	return humanize.Comma(int64(math.Trunc(v)))
}
