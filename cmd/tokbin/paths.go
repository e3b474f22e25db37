package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/tokbin/internal/corpus"
	"github.com/samcharles93/tokbin/internal/dataset"
	"github.com/samcharles93/tokbin/internal/tokenizer"
)

const envDataDir = "TOKBIN_DATA_DIR"

// newTokenizer is a small seam for tests.
var newTokenizer = tokenizer.New

func resolveDataDir(flag string) string {
	if dir := strings.TrimSpace(flag); dir != "" {
		return filepath.Clean(dir)
	}
	if dir := strings.TrimSpace(os.Getenv(envDataDir)); dir != "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(".", "data")
}

// resolveDatasetName falls back to the source directory name.
func resolveDatasetName(flag, source string) (string, error) {
	if name := strings.TrimSpace(flag); name != "" {
		return name, nil
	}
	if source != "" {
		base := filepath.Base(filepath.Clean(source))
		if base != "" && base != "." && base != string(filepath.Separator) {
			return base, nil
		}
	}
	return "", fmt.Errorf("--dataset is required")
}

// corpusConfig builds the corpus configuration from the flag variables and
// the tokenizer they select.
func corpusConfig(name string) (corpus.Config, tokenizer.Tokenizer, error) {
	tok, err := newTokenizer(tokenizerName, tokenizer.Options{AppendEOT: appendEOT})
	if err != nil {
		return corpus.Config{}, nil, err
	}
	v, err := corpus.ParseVariant(variantName)
	if err != nil {
		return corpus.Config{}, nil, err
	}
	cfg := corpus.Config{
		DataDir:       resolveDataDir(dataDir),
		Dataset:       name,
		Tokenizer:     tok.Name(),
		VocabSize:     int(vocabSize),
		Variant:       v,
		ContextWindow: int(contextWindow),
		RowWidth:      int(rowWidth),
		BatchSize:     int(batchSize),
		MaskingPct:    maskingPct,
		PadID:         int(padID),
		Shards:        int(shards),
		Seed:          seed,
	}
	if cfg.VocabSize <= 0 {
		cfg.VocabSize = tok.VocabSize()
	}
	if cfg.PadID < 0 {
		cfg.PadID = tok.PadID()
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return corpus.Config{}, nil, err
	}
	return cfg, tok, nil
}

func openSource(dir string, conversational bool, textField string, parquetColumn int64) (dataset.Source, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("--source is required")
	}
	return dataset.OpenDir(dir, dataset.DirOptions{
		Conversational: conversational,
		TextField:      textField,
		ParquetColumn:  parquetColumn,
	})
}
