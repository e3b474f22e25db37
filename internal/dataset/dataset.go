// Package dataset provides raw record sources for corpus preparation.
//
// Sources only iterate records; they never download, cache or validate beyond
// what is needed to decode a record.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
)

var (
	ErrNotConversational = errors.New("dataset is not conversational")
	ErrUnknownSplit      = errors.New("unknown split")
)

// Record is one raw dataset entry: either a single text field or a
// two-turn conversation (prompt, response).
type Record struct {
	Text  string
	Turns []string
}

// Conversational reports whether the record carries a prompt and a response.
func (r Record) Conversational() bool { return len(r.Turns) >= 2 }

// Source yields raw records per split.
type Source interface {
	Splits() []string
	// Conversational reports whether every record carries two turns.
	Conversational() bool
	Records(ctx context.Context, split string) iter.Seq2[Record, error]
}

// Memory is an in-memory Source.
type Memory struct {
	splits map[string][]Record
	conv   bool
}

// NewMemory builds a source from records keyed by split. The source is
// conversational when every record is.
func NewMemory(splits map[string][]Record) *Memory {
	conv := len(splits) > 0
	for _, recs := range splits {
		for _, r := range recs {
			if !r.Conversational() {
				conv = false
			}
		}
	}
	return &Memory{splits: splits, conv: conv}
}

// Texts builds a source of plain text records.
func Texts(splits map[string][]string) *Memory {
	m := make(map[string][]Record, len(splits))
	for name, texts := range splits {
		recs := make([]Record, len(texts))
		for i, t := range texts {
			recs[i] = Record{Text: t}
		}
		m[name] = recs
	}
	return NewMemory(m)
}

func (m *Memory) Splits() []string {
	names := make([]string, 0, len(m.splits))
	for name := range m.splits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Memory) Conversational() bool { return m.conv }

func (m *Memory) Records(ctx context.Context, split string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		recs, ok := m.splits[split]
		if !ok {
			yield(Record{}, fmt.Errorf("%w: %s", ErrUnknownSplit, split))
			return
		}
		for _, r := range recs {
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}
