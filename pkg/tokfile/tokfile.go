// Package tokfile implements the binary token file format.
//
// A token file is a flat array of little-endian uint16 token ids with no header,
// magic or length prefix. The logical shape is never stored; readers supply it
// out-of-band and the file is rejected when the byte length does not match.
package tokfile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// ElementWidth is the on-disk size of one token id in bytes.
	ElementWidth = 2

	// MaxTokenID is the largest id representable in a token file.
	MaxTokenID = math.MaxUint16

	// MaxVocabSize is the largest vocabulary whose ids all fit in ElementWidth.
	MaxVocabSize = MaxTokenID + 1

	// Ext is the file extension used for split files.
	Ext = ".bin"
)

// Shape is the logical shape a token file is reinterpreted under.
type Shape []int

// Flat returns the one-dimensional shape holding n tokens.
func Flat(n int) Shape { return Shape{n} }

// NumElements returns the product of all dimensions.
func (s Shape) NumElements() (int, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("%w: empty shape", ErrShapeMismatch)
	}
	n := 1
	for _, d := range s {
		if d < 0 {
			return 0, fmt.Errorf("%w: invalid dim %d", ErrShapeMismatch, d)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: shape %s too large", ErrShapeMismatch, s)
		}
		n *= d
	}
	return n, nil
}

// ByteLen returns the exact file size a file of this shape must have.
func (s Shape) ByteLen() (int64, error) {
	n, err := s.NumElements()
	if err != nil {
		return 0, err
	}
	return int64(n) * ElementWidth, nil
}

// Stride returns the number of elements spanned by one step along the leading axis.
func (s Shape) Stride() int {
	if len(s) <= 1 {
		return 1
	}
	n := 1
	for _, d := range s[1:] {
		n *= d
	}
	return n
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
