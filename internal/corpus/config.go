package corpus

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samcharles93/tokbin/pkg/tokfile"
)

var (
	// ErrConfig reports a configuration that can never produce a valid corpus.
	// It is always returned before any file is touched.
	ErrConfig = errors.New("corpus: invalid configuration")

	ErrNotPrepared     = errors.New("corpus: split not prepared")
	ErrIndexOutOfRange = errors.New("corpus: index out of range")
	ErrSplitTooSmall   = errors.New("corpus: split too small for context window")
	ErrClosed          = errors.New("corpus: dataloader closed")
)

const (
	DefaultShards     = 1024
	DefaultMaskingPct = 0.15
)

// Config carries everything the writer, resolver and sampler depend on.
type Config struct {
	// DataDir is the root under which prepared corpora live.
	DataDir string
	Dataset string
	// Tokenizer is the tokenizer identity used in the cache path.
	Tokenizer string
	VocabSize int
	Variant   Variant

	ContextWindow int
	// RowWidth is the fixed row width of the byte_pooling variant.
	RowWidth  int
	BatchSize int
	// MaskingPct is the per-position masking probability of the mlm variant.
	MaskingPct float64
	// PadID fills padded positions on write and masked positions on sampling.
	PadID int

	// Shards is the number of contiguous chunks each split is written in.
	Shards int
	Seed   uint64
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// WithDefaults fills unset optional fields.
func (c Config) WithDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = DefaultShards
	}
	if c.Variant == VariantMLM && c.MaskingPct == 0 {
		c.MaskingPct = DefaultMaskingPct
	}
	return c
}

// Validate checks the configuration without touching the filesystem.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return configErr("data dir is required")
	}
	for name, v := range map[string]string{"dataset": c.Dataset, "tokenizer": c.Tokenizer} {
		if strings.TrimSpace(v) == "" {
			return configErr("%s is required", name)
		}
		if strings.ContainsAny(v, `/\`) || v == "." || v == ".." {
			return configErr("%s %q must be a single path element", name, v)
		}
	}
	if !c.Variant.Valid() {
		return configErr("unsupported variant %d", c.Variant)
	}
	if c.VocabSize <= 0 {
		return configErr("vocab size must be positive, got %d", c.VocabSize)
	}
	if c.VocabSize > tokfile.MaxVocabSize {
		return configErr("vocab size %d does not fit in %d-bit token ids (max %d)", c.VocabSize, tokfile.ElementWidth*8, tokfile.MaxVocabSize)
	}
	if c.ContextWindow <= 0 {
		return configErr("context window must be positive, got %d", c.ContextWindow)
	}
	if c.BatchSize <= 0 {
		return configErr("batch size must be positive, got %d", c.BatchSize)
	}
	if c.PadID < 0 || c.PadID > tokfile.MaxTokenID {
		return configErr("pad id %d does not fit in %d-bit token ids", c.PadID, tokfile.ElementWidth*8)
	}
	if c.Shards <= 0 {
		return configErr("shards must be positive, got %d", c.Shards)
	}
	switch c.Variant {
	case VariantBytePooling:
		if c.RowWidth <= 0 {
			return configErr("byte_pooling requires a positive row width, got %d", c.RowWidth)
		}
	case VariantMLM:
		if c.MaskingPct < 0 || c.MaskingPct > 1 {
			return configErr("masking fraction must be within [0, 1], got %g", c.MaskingPct)
		}
	}
	return nil
}

// Dir returns the deterministic directory holding every split of this corpus.
func (c Config) Dir() string {
	name := fmt.Sprintf("%s-%d%s", c.Tokenizer, c.VocabSize, c.Variant.policy().suffix(c))
	return filepath.Join(c.DataDir, c.Dataset, name)
}

// SplitPath returns the token file path of split.
func (c Config) SplitPath(split string) string {
	return filepath.Join(c.Dir(), split+tokfile.Ext)
}

func validSplit(split string) error {
	if strings.TrimSpace(split) == "" || strings.ContainsAny(split, `/\`) || split == "." || split == ".." {
		return configErr("invalid split name %q", split)
	}
	return nil
}
