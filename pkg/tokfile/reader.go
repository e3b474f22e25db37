package tokfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File is a read-only view of a token file under a fixed shape.
type File struct {
	Data    []byte
	shape   Shape
	path    string
	mmapped bool
}

// Open maps a token file read-only under the flat shape (n,).
// The byte length must be a whole number of elements.
func Open(path string) (*File, error) {
	return open(path, nil)
}

// OpenShape maps a token file read-only under shape. The file size must equal
// prod(shape) * ElementWidth exactly.
func OpenShape(path string, shape Shape) (*File, error) {
	if _, err := shape.NumElements(); err != nil {
		return nil, err
	}
	return open(path, shape)
}

func open(path string, shape Shape) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	if size64%ElementWidth != 0 {
		return nil, fmt.Errorf("%w: %s has odd byte length %d", ErrCorruptFile, path, size64)
	}
	if shape == nil {
		shape = Flat(int(size64 / ElementWidth))
	}
	want, err := shape.ByteLen()
	if err != nil {
		return nil, err
	}
	if want != size64 {
		return nil, fmt.Errorf("%w: %s is %d bytes, shape %s needs %d", ErrShapeMismatch, path, size64, shape, want)
	}

	size := int(size64)
	if size == 0 {
		// mmap rejects zero-length mappings.
		return &File{Data: []byte{}, shape: shape, path: path}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &File{Data: data, shape: shape, path: path, mmapped: true}, nil
	}

	// Fallback path that does not require mmap support.
	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &File{Data: data, shape: shape, path: path}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Close releases the mapping. Data must not be used afterwards.
func (f *File) Close() error {
	if f == nil || f.Data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.mmapped = false
	return err
}

func (f *File) Path() string { return f.path }

// Shape returns the shape the file was opened under.
func (f *File) Shape() Shape { return f.shape }

// Len returns the number of tokens in the file.
func (f *File) Len() int { return len(f.Data) / ElementWidth }

// Rows returns the size of the leading axis.
func (f *File) Rows() int {
	if len(f.shape) == 0 {
		return 0
	}
	return f.shape[0]
}

// At returns the token at flat position i.
func (f *File) At(i int) uint16 {
	return binary.LittleEndian.Uint16(f.Data[i*ElementWidth:])
}

// Read decodes len(dst) tokens starting at flat position start into dst.
// It panics if the range is outside the file, like a slice expression would.
func (f *File) Read(dst []int64, start int) {
	raw := f.Data[start*ElementWidth : (start+len(dst))*ElementWidth]
	for i := range dst {
		dst[i] = int64(binary.LittleEndian.Uint16(raw[i*ElementWidth:]))
	}
}

// ReadRows decodes n consecutive leading-axis entries starting at row into dst.
func (f *File) ReadRows(dst []int64, row, n int) {
	stride := f.shape.Stride()
	f.Read(dst[:n*stride], row*stride)
}
