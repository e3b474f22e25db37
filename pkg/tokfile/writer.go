package tokfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Writer fills a pre-sized token file.
//
// The file is allocated at its final size when the writer is created; writes
// land at explicit element offsets so the file never grows or reallocates.
type Writer struct {
	f      *os.File
	n      int
	buf    []byte
	closed bool

	mu sync.Mutex
}

// Create truncates path and allocates room for exactly n tokens.
func Create(path string, n int) (*Writer, error) {
	if n < 0 {
		return nil, fmt.Errorf("tokfile: negative length %d", n)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(n) * ElementWidth); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, n: n}, nil
}

// Len returns the allocated size in tokens.
func (w *Writer) Len() int { return w.n }

// WriteAt encodes ids at element offset off. Ids must fit in 16 bits.
func (w *Writer) WriteAt(ids []uint16, off int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("tokfile: writer closed")
	}
	if off < 0 || off+len(ids) > w.n {
		return fmt.Errorf("tokfile: write [%d, %d) outside allocation of %d", off, off+len(ids), w.n)
	}
	if len(ids) == 0 {
		return nil
	}

	need := len(ids) * ElementWidth
	if cap(w.buf) < need {
		w.buf = make([]byte, need)
	}
	buf := w.buf[:need]
	for i, id := range ids {
		binary.LittleEndian.PutUint16(buf[i*ElementWidth:], id)
	}
	_, err := w.f.WriteAt(buf, int64(off)*ElementWidth)
	return err
}

// Close flushes the file to stable storage and closes it.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	syncErr := w.f.Sync()
	closeErr := w.f.Close()
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}

// ToUint16 narrows ids to the on-disk width, rejecting anything out of range.
func ToUint16(dst []uint16, ids []int) ([]uint16, error) {
	for _, id := range ids {
		if id < 0 || id > MaxTokenID {
			return dst, fmt.Errorf("%w: %d", ErrTokenRange, id)
		}
		dst = append(dst, uint16(id))
	}
	return dst, nil
}
