package cache

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mecabal-location/internal/models"
)

// CoordinatePrecision is the number of decimals kept when keying on coordinates (about 11 m).
const CoordinatePrecision = 4

// CoordinateKey builds a cache key from prefix, the quantized coordinates and any extra parts.
func CoordinateKey(prefix string, c models.Coordinates, extra ...any) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(quantize(c.Latitude))
	b.WriteByte(',')
	b.WriteString(quantize(c.Longitude))
	for _, e := range extra {
		fmt.Fprintf(&b, ":%v", e)
	}
	return b.String()
}

// TextKey builds a cache key from prefix, case- and whitespace-normalized text and extra parts.
func TextKey(prefix, text string, extra ...any) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(strings.ToLower(strings.Join(strings.Fields(text), " ")))
	for _, e := range extra {
		fmt.Fprintf(&b, ":%v", e)
	}
	return b.String()
}

func quantize(v float64) string {
	scale := math.Pow10(CoordinatePrecision)
	q := math.Round(v*scale) / scale
	if q == 0 {
		q = 0 // drop negative zero
	}
	return strconv.FormatFloat(q, 'f', CoordinatePrecision, 64)
}
