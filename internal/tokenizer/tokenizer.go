package tokenizer

import (
	"fmt"
	"strings"
)

// Tokenizer is the text-to-ids capability the corpus pipeline consumes.
// Implementations never see the on-disk format.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
	// Name identifies the tokenizer in on-disk cache paths.
	Name() string
	VocabSize() int
	PadID() int
	EOTID() int
}

// Options controls construction through New.
type Options struct {
	// AppendEOT appends the end-of-text id after every encoded record.
	AppendEOT bool
}

// New returns the tokenizer registered under name. "bytes" selects the
// byte-ordinal tokenizer; anything else is looked up as a tiktoken encoding.
func New(name string, opts Options) (Tokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil, fmt.Errorf("tokenizer name is empty")
	case ByteTokenizerName, "byte", "char":
		return &ByteTokenizer{AppendEOT: opts.AppendEOT}, nil
	default:
		return NewTiktoken(name, opts.AppendEOT)
	}
}
