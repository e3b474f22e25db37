package corpus

import (
	"testing"

	"github.com/samcharles93/tokbin/internal/dataset"
	"github.com/samcharles93/tokbin/internal/tokenizer"
)

const bytePad = 257

func testConfig(t *testing.T, v Variant) Config {
	t.Helper()
	return Config{
		DataDir:       t.TempDir(),
		Dataset:       "tiny",
		Tokenizer:     tokenizer.ByteTokenizerName,
		VocabSize:     258,
		Variant:       v,
		ContextWindow: 2,
		BatchSize:     4,
		PadID:         bytePad,
		Seed:          1,
	}
}

// fakeTokenizer lets tests control ids and failures.
type fakeTokenizer struct {
	name   string
	vocab  int
	encode func(string) ([]int, error)
}

func (f *fakeTokenizer) Encode(text string) ([]int, error) { return f.encode(text) }
func (f *fakeTokenizer) Decode([]int) (string, error)      { return "", nil }
func (f *fakeTokenizer) Name() string                      { return f.name }
func (f *fakeTokenizer) VocabSize() int                    { return f.vocab }
func (f *fakeTokenizer) PadID() int                        { return 0 }
func (f *fakeTokenizer) EOTID() int                        { return 0 }

func prepared(t *testing.T, cfg Config, src dataset.Source) *Dataloader {
	t.Helper()
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if _, err := d.Prepare(t.Context(), src, &tokenizer.ByteTokenizer{}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return d
}
