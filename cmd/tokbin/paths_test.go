package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/tokbin/internal/corpus"
	"github.com/samcharles93/tokbin/internal/tokenizer"
)

func TestResolveDataDir(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(envDataDir, "/from/env")
		if got := resolveDataDir(" /from/flag/ "); got != filepath.Clean("/from/flag") {
			t.Fatalf("unexpected data dir: %q", got)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(envDataDir, "/from/env")
		if got := resolveDataDir(""); got != "/from/env" {
			t.Fatalf("unexpected data dir: %q", got)
		}
	})

	t.Run("default ./data", func(t *testing.T) {
		t.Setenv(envDataDir, "")
		if got := resolveDataDir(""); got != filepath.Join(".", "data") {
			t.Fatalf("unexpected data dir: %q", got)
		}
	})
}

func TestResolveDatasetName(t *testing.T) {
	got, err := resolveDatasetName("", "/corpora/tinystories/")
	if err != nil {
		t.Fatalf("resolveDatasetName returned error: %v", err)
	}
	if got != "tinystories" {
		t.Fatalf("unexpected dataset name: %q", got)
	}
	if got, _ := resolveDatasetName("explicit", "/corpora/tinystories"); got != "explicit" {
		t.Fatalf("flag should win, got %q", got)
	}
	if _, err := resolveDatasetName("", ""); err == nil {
		t.Fatalf("expected error without dataset or source")
	}
}

// setCorpusFlags resets the flag variables for one test.
func setCorpusFlags(t *testing.T, dir string) {
	t.Helper()
	prev := []any{dataDir, tokenizerName, appendEOT, vocabSize, variantName, contextWindow, rowWidth, batchSize, maskingPct, padID, shards, seed}
	t.Cleanup(func() {
		dataDir = prev[0].(string)
		tokenizerName = prev[1].(string)
		appendEOT = prev[2].(bool)
		vocabSize = prev[3].(int64)
		variantName = prev[4].(string)
		contextWindow = prev[5].(int64)
		rowWidth = prev[6].(int64)
		batchSize = prev[7].(int64)
		maskingPct = prev[8].(float64)
		padID = prev[9].(int64)
		shards = prev[10].(int64)
		seed = prev[11].(uint64)
	})
	dataDir = dir
	tokenizerName = "bytes"
	appendEOT = false
	vocabSize = 0
	variantName = "standard"
	contextWindow = 2
	rowWidth = 4
	batchSize = 2
	maskingPct = 0.15
	padID = -1
	shards = 1024
	seed = 1
}

func TestCorpusConfigDefaultsFromTokenizer(t *testing.T) {
	setCorpusFlags(t, t.TempDir())

	cfg, tok, err := corpusConfig("tiny")
	if err != nil {
		t.Fatalf("corpusConfig returned error: %v", err)
	}
	if tok.Name() != tokenizer.ByteTokenizerName {
		t.Fatalf("unexpected tokenizer %q", tok.Name())
	}
	if cfg.VocabSize != 258 || cfg.PadID != 257 {
		t.Fatalf("expected tokenizer defaults, got vocab=%d pad=%d", cfg.VocabSize, cfg.PadID)
	}
	if cfg.Variant != corpus.VariantStandard {
		t.Fatalf("unexpected variant %s", cfg.Variant)
	}
}

func TestCorpusConfigErrors(t *testing.T) {
	setCorpusFlags(t, t.TempDir())

	variantName = "diffusion"
	if _, _, err := corpusConfig("tiny"); !errors.Is(err, corpus.ErrConfig) {
		t.Fatalf("expected ErrConfig for unknown variant, got %v", err)
	}

	variantName = "standard"
	vocabSize = 70000
	if _, _, err := corpusConfig("tiny"); !errors.Is(err, corpus.ErrConfig) {
		t.Fatalf("expected ErrConfig for oversized vocab, got %v", err)
	}

	vocabSize = 0
	prev := newTokenizer
	t.Cleanup(func() { newTokenizer = prev })
	newTokenizer = func(string, tokenizer.Options) (tokenizer.Tokenizer, error) {
		return nil, errors.New("no such tokenizer")
	}
	if _, _, err := corpusConfig("tiny"); err == nil {
		t.Fatalf("expected tokenizer error")
	}
}

func TestPrepareAndInspectFromDirectory(t *testing.T) {
	root := t.TempDir()
	setCorpusFlags(t, filepath.Join(root, "data"))

	src := filepath.Join(root, "tiny")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "train.txt"), []byte("ab\nabc\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cfg, tok, err := corpusConfig("tiny")
	if err != nil {
		t.Fatalf("corpusConfig: %v", err)
	}
	s, err := openSource(src, false, "text", 0)
	if err != nil {
		t.Fatalf("openSource: %v", err)
	}
	d, err := corpus.New(cfg)
	if err != nil {
		t.Fatalf("corpus.New: %v", err)
	}
	defer func() { _ = d.Close() }()
	if _, err := d.Prepare(t.Context(), s, tok); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	splits, err := listSplits(d.Dir())
	if err != nil {
		t.Fatalf("listSplits: %v", err)
	}
	if len(splits) != 1 || splits[0] != "train" {
		t.Fatalf("unexpected splits: %v", splits)
	}

	st, err := tokenStats(cfg.SplitPath("train"), cfg.PadID, 2)
	if err != nil {
		t.Fatalf("tokenStats: %v", err)
	}
	if st.Tokens != 5 || st.Distinct != 3 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if len(st.Top) != 2 || st.Top[0] != (tokenCount{ID: 97, Count: 2}) || st.Top[1] != (tokenCount{ID: 98, Count: 2}) {
		t.Fatalf("unexpected top tokens: %+v", st.Top)
	}
	if st.PadFrac != 0 {
		t.Fatalf("unexpected pad fraction %f", st.PadFrac)
	}
	if st.Entropy <= 1 || st.Entropy >= 2 {
		t.Fatalf("entropy out of range: %f", st.Entropy)
	}

	if _, err := openSource("", false, "text", 0); err == nil {
		t.Fatalf("expected error for empty source")
	}
}

func TestDecodeIDsSkipsPad(t *testing.T) {
	tok := &tokenizer.ByteTokenizer{}
	got, err := decodeIDs(tok, []int64{104, 105, 257, 257})
	if err != nil {
		t.Fatalf("decodeIDs: %v", err)
	}
	if got != "hi" {
		t.Fatalf("decodeIDs = %q", got)
	}
}
