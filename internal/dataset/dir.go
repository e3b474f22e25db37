package dataset

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported split file formats.
const (
	FormatJSONL   = "jsonl"
	FormatText    = "txt"
	FormatParquet = "parquet"
)

// DirOptions controls how a directory of split files is decoded.
type DirOptions struct {
	// Conversational requires every record to carry two turns.
	Conversational bool
	// TextField is the JSONL field holding single-text records.
	TextField string
	// ParquetColumn is the column index holding text in parquet files.
	ParquetColumn int64
}

// Dir reads one file per split from a directory: <split>.jsonl, <split>.txt
// or <split>.parquet.
type Dir struct {
	root  string
	files map[string]string
	opts  DirOptions
}

// OpenDir indexes the split files under root.
func OpenDir(root string, opts DirOptions) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("dataset directory is empty")
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("dataset path is not a directory: %s", root)
	}
	ents, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	files := make(map[string]string)
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		switch ext {
		case FormatJSONL, FormatText, FormatParquet:
		default:
			continue
		}
		split := strings.TrimSuffix(name, filepath.Ext(name))
		if prev, ok := files[split]; ok {
			return nil, fmt.Errorf("split %q has more than one file: %s, %s", split, filepath.Base(prev), name)
		}
		files[split] = filepath.Join(root, name)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s does not contain any .jsonl, .txt or .parquet files", root)
	}
	if opts.TextField == "" {
		opts.TextField = "text"
	}
	return &Dir{root: root, files: files, opts: opts}, nil
}

func (d *Dir) Splits() []string {
	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dir) Conversational() bool { return d.opts.Conversational }

func (d *Dir) Records(ctx context.Context, split string) iter.Seq2[Record, error] {
	path, ok := d.files[split]
	if !ok {
		return func(yield func(Record, error) bool) {
			yield(Record{}, fmt.Errorf("%w: %s", ErrUnknownSplit, split))
		}
	}
	var seq iter.Seq2[Record, error]
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".") {
	case FormatJSONL:
		seq = jsonlRecords(path, d.opts.TextField)
	case FormatParquet:
		seq = parquetRecords(path, d.opts.ParquetColumn)
	default:
		seq = textRecords(path)
	}
	return d.check(ctx, path, seq)
}

// check enforces cancellation and the conversational contract on seq.
func (d *Dir) check(ctx context.Context, path string, seq iter.Seq2[Record, error]) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		n := 0
		for rec, err := range seq {
			if err == nil {
				err = ctx.Err()
			}
			if err == nil && d.opts.Conversational && !rec.Conversational() {
				err = fmt.Errorf("%w: %s record %d has %d turns", ErrNotConversational, filepath.Base(path), n, len(rec.Turns))
			}
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
			n++
		}
	}
}

const maxLineSize = 64 << 20

func scanLines(path string, fn func(line []byte) (Record, bool, error)) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer func() { _ = f.Close() }()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		line := 0
		for sc.Scan() {
			line++
			rec, ok, err := fn(sc.Bytes())
			if err != nil {
				yield(Record{}, fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err))
				return
			}
			if !ok {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Record{}, fmt.Errorf("read %s: %w", path, err))
		}
	}
}

func textRecords(path string) iter.Seq2[Record, error] {
	return scanLines(path, func(line []byte) (Record, bool, error) {
		text := strings.TrimRight(string(line), "\r")
		if strings.TrimSpace(text) == "" {
			return Record{}, false, nil
		}
		return Record{Text: text}, true, nil
	})
}
