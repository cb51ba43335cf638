// Package rle implements the run-length encoding used to store and transport
// binary selection masks.
//
// A mask is a row-major raster with one byte per pixel. Zero is background,
// anything else is foreground. The encoded form is a sequence of run lengths
// that alternates background and foreground and always starts with a
// background run, which may be zero.
package rle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
)

// Foreground is the byte written for foreground pixels by Decode.
const Foreground byte = 255

// ErrMalformedEncoding is returned when a run sequence cannot describe a mask
// of the requested size.
var ErrMalformedEncoding = errors.New("malformed run-length encoding")

// Runs is an encoded mask.
type Runs []int

// Encode scans mask row-major and returns the minimal alternating run sequence.
func Encode(mask []byte) Runs {
	runs := Runs{0}
	fg := false
	for _, v := range mask {
		on := v != 0
		if on != fg {
			runs = append(runs, 0)
			fg = on
		}
		runs[len(runs)-1]++
	}
	return runs
}

// Decode expands runs into a mask of width*height bytes. It fails without
// returning a partial mask when the runs do not cover the raster exactly.
func Decode(runs Runs, width, height int) ([]byte, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrMalformedEncoding, width, height)
	}
	if height > 0 && width > math.MaxInt/height {
		return nil, fmt.Errorf("%w: size %dx%d overflows", ErrMalformedEncoding, width, height)
	}
	size := width * height
	total := 0
	for i, n := range runs {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative run %d at index %d", ErrMalformedEncoding, n, i)
		}
		if n > size-total {
			return nil, fmt.Errorf("%w: run %d at index %d exceeds %d pixels", ErrMalformedEncoding, n, i, size)
		}
		total += n
	}
	if total != size {
		return nil, fmt.Errorf("%w: runs cover %d pixels, want %d", ErrMalformedEncoding, total, size)
	}

	mask := make([]byte, total)
	pos := 0
	for i, n := range runs {
		if i%2 == 1 {
			for j := pos; j < pos+n; j++ {
				mask[j] = Foreground
			}
		}
		pos += n
	}
	return mask, nil
}

// ParseRuns decodes the JSON transport form of a run sequence. Entries must be
// non-negative integers.
func ParseRuns(data []byte) (Runs, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []json.Number
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	runs := make(Runs, len(raw))
	for i, num := range raw {
		f, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: run %q at index %d", ErrMalformedEncoding, num, i)
		}
		if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
			return nil, fmt.Errorf("%w: run %s at index %d is not a non-negative integer", ErrMalformedEncoding, num, i)
		}
		runs[i] = int(f)
	}
	return runs, nil
}

// MarshalJSON writes the runs as a plain JSON array, order preserved. A nil
// Runs is written as null.
func (r Runs) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]int(r))
}

// UnmarshalJSON accepts the same input as ParseRuns.
func (r *Runs) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}
	runs, err := ParseRuns(data)
	if err != nil {
		return err
	}
	*r = runs
	return nil
}

// Len returns the number of pixels the runs cover.
func (r Runs) Len() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Area returns the number of foreground pixels.
func (r Runs) Area() int {
	area := 0
	for i := 1; i < len(r); i += 2 {
		area += r[i]
	}
	return area
}

// Empty reports whether the runs contain no foreground pixel.
func (r Runs) Empty() bool {
	return r.Area() == 0
}

// Bounds returns the smallest rectangle containing every foreground pixel of
// a mask with the given width. The result is empty when there is none.
func Bounds(r Runs, width int) image.Rectangle {
	if width <= 0 {
		return image.Rectangle{}
	}
	var bounds image.Rectangle
	pos := 0
	for i, n := range r {
		if i%2 == 1 && n > 0 {
			first, last := pos, pos+n-1
			y0, y1 := first/width, last/width
			x0, x1 := first%width, last%width
			if y1 > y0 {
				// the run wraps at least one row boundary
				x0, x1 = 0, width-1
			}
			bounds = bounds.Union(image.Rect(x0, y0, x1+1, y1+1))
		}
		pos += n
	}
	return bounds
}
