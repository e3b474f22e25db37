package tokfile

import "errors"

var (
	ErrCorruptFile   = errors.New("corrupt token file")
	ErrShapeMismatch = errors.New("token file shape mismatch")
	ErrTokenRange    = errors.New("token id does not fit in 16 bits")
)
