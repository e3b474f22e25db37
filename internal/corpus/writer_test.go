package corpus

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/tokbin/internal/dataset"
	"github.com/samcharles93/tokbin/internal/logger"
	"github.com/samcharles93/tokbin/internal/tokenizer"
	"github.com/samcharles93/tokbin/pkg/tokfile"
)

func TestPrepareWritesLittleEndianTokens(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, VariantStandard)
	w, err := NewWriter(cfg, nil)
	require.NoError(t, err)

	res, err := w.Prepare(t.Context(), dataset.Texts(map[string][]string{"train": {"ab", "abc"}}), &tokenizer.ByteTokenizer{})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, filepath.Join(cfg.DataDir, "tiny", "bytes-258"), res.Dir)

	raw, err := os.ReadFile(cfg.SplitPath("train"))
	require.NoError(t, err)
	assert.Equal(t, []byte{97, 0, 98, 0, 97, 0, 98, 0, 99, 0}, raw)

	require.Len(t, res.Splits, 1)
	s := res.Splits[0]
	assert.Equal(t, "train", s.Split)
	assert.Equal(t, 2, s.Records)
	assert.Equal(t, 5, s.Tokens)
	assert.InDelta(t, 2.5, s.MeanLen, 1e-9)
	assert.InDelta(t, 0.7071, s.StdLen, 1e-3)
}

func TestPrepareSkipsExistingCorpus(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, VariantStandard)
	w, err := NewWriter(cfg, nil)
	require.NoError(t, err)
	tok := &tokenizer.ByteTokenizer{}

	_, err = w.Prepare(t.Context(), dataset.Texts(map[string][]string{"train": {"hello world"}}), tok)
	require.NoError(t, err)
	before, err := os.ReadFile(cfg.SplitPath("train"))
	require.NoError(t, err)
	st, err := os.Stat(cfg.SplitPath("train"))
	require.NoError(t, err)

	res, err := w.Prepare(t.Context(), dataset.Texts(map[string][]string{"train": {"something else entirely"}}), tok)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Splits)

	after, err := os.ReadFile(cfg.SplitPath("train"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(before, after))
	st2, err := os.Stat(cfg.SplitPath("train"))
	require.NoError(t, err)
	assert.True(t, st.ModTime().Equal(st2.ModTime()))
}

func TestPrepareRemovesDirectoryOnLastShardFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, VariantStandard)
	w, err := NewWriter(cfg, logger.Discard())
	require.NoError(t, err)

	injected := errors.New("disk full")
	var seen []int
	w.afterShard = func(split string, shard, shards int) error {
		seen = append(seen, shard)
		if split == "validation" && shard == shards-1 {
			return injected
		}
		return nil
	}

	src := dataset.Texts(map[string][]string{
		"train":      {"one", "two", "three"},
		"validation": {"four", "five", "six"},
	})
	_, err = w.Prepare(t.Context(), src, &tokenizer.ByteTokenizer{})
	require.ErrorIs(t, err, injected)
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, seen)

	_, statErr := os.Stat(cfg.Dir())
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	d, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, d.Processed())
}

func TestPrepareFailuresLeaveNoDirectory(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		tok     tokenizer.Tokenizer
		wantErr error
	}{
		{
			name: "token id above 16 bits",
			ctx:  context.Background(),
			tok: &fakeTokenizer{name: "bytes", vocab: 258, encode: func(string) ([]int, error) {
				return []int{1, 70000}, nil
			}},
			wantErr: tokfile.ErrTokenRange,
		},
		{
			name: "tokenizer error",
			ctx:  context.Background(),
			tok: &fakeTokenizer{name: "bytes", vocab: 258, encode: func(string) ([]int, error) {
				return nil, os.ErrInvalid
			}},
			wantErr: os.ErrInvalid,
		},
		{
			name:    "cancelled",
			ctx:     cancelled,
			tok:     &tokenizer.ByteTokenizer{},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t, VariantStandard)
			w, err := NewWriter(cfg, nil)
			require.NoError(t, err)

			_, err = w.Prepare(tt.ctx, dataset.Texts(map[string][]string{"train": {"ab", "cd"}}), tt.tok)
			require.ErrorIs(t, err, tt.wantErr)
			_, statErr := os.Stat(cfg.Dir())
			assert.ErrorIs(t, statErr, os.ErrNotExist)
		})
	}
}

func TestPrepareConfigErrorsTouchNothing(t *testing.T) {
	t.Parallel()

	t.Run("non-conversational source", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, VariantConversational)
		w, err := NewWriter(cfg, nil)
		require.NoError(t, err)

		_, err = w.Prepare(t.Context(), dataset.Texts(map[string][]string{"train": {"ab"}}), &tokenizer.ByteTokenizer{})
		require.ErrorIs(t, err, ErrConfig)
		require.ErrorIs(t, err, dataset.ErrNotConversational)
		entries, err := os.ReadDir(cfg.DataDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("tokenizer identity mismatch", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, VariantStandard)
		cfg.Tokenizer = "cl100k_base"
		w, err := NewWriter(cfg, nil)
		require.NoError(t, err)

		_, err = w.Prepare(t.Context(), dataset.Texts(map[string][]string{"train": {"ab"}}), &tokenizer.ByteTokenizer{})
		require.ErrorIs(t, err, ErrConfig)
	})

	t.Run("tokenizer vocab above configured", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, VariantStandard)
		cfg.VocabSize = 100
		w, err := NewWriter(cfg, nil)
		require.NoError(t, err)

		_, err = w.Prepare(t.Context(), dataset.Texts(map[string][]string{"train": {"ab"}}), &tokenizer.ByteTokenizer{})
		require.ErrorIs(t, err, ErrConfig)
	})

	t.Run("vocab above 16 bits", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, VariantStandard)
		cfg.VocabSize = 70000
		_, err := NewWriter(cfg, nil)
		require.ErrorIs(t, err, ErrConfig)
	})
}

func TestPrepareFixedShapeVariants(t *testing.T) {
	t.Parallel()

	t.Run("byte_pooling pads rows", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, VariantBytePooling)
		cfg.RowWidth = 2
		w, err := NewWriter(cfg, nil)
		require.NoError(t, err)

		res, err := w.Prepare(t.Context(), dataset.Texts(map[string][]string{"train": {"abc", "de"}}), &tokenizer.ByteTokenizer{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cfg.DataDir, "tiny", "bytes-258-BytePooling-2"), res.Dir)

		raw, err := os.ReadFile(cfg.SplitPath("train"))
		require.NoError(t, err)
		assert.Equal(t, []byte{97, 0, 98, 0, 99, 0, 1, 1, 100, 0, 101, 0}, raw)
	})

	t.Run("conversational truncates and pads turns", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, VariantConversational)
		cfg.ContextWindow = 3
		w, err := NewWriter(cfg, nil)
		require.NoError(t, err)

		src := dataset.NewMemory(map[string][]dataset.Record{
			"train": {{Turns: []string{"hi", "there"}}},
		})
		res, err := w.Prepare(t.Context(), src, &tokenizer.ByteTokenizer{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cfg.DataDir, "tiny", "bytes-258-Conversational-3"), res.Dir)

		raw, err := os.ReadFile(cfg.SplitPath("train"))
		require.NoError(t, err)
		assert.Equal(t, []byte{104, 0, 105, 0, 1, 1, 116, 0, 104, 0, 101, 0}, raw)
	})
}

func TestPrepareRejectsConversationRecordsForTextVariants(t *testing.T) {
	t.Parallel()

	for _, v := range []Variant{VariantStandard, VariantBytePooling, VariantMLM} {
		t.Run(v.String(), func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			lines := `{"conversations":[{"from":"human","value":"hello"},{"from":"gpt","value":"world"}]}` + "\n"
			require.NoError(t, os.WriteFile(filepath.Join(root, "train.jsonl"), []byte(lines), 0o644))
			src, err := dataset.OpenDir(root, dataset.DirOptions{})
			require.NoError(t, err)

			cfg := testConfig(t, v)
			cfg.RowWidth = 2
			w, err := NewWriter(cfg, nil)
			require.NoError(t, err)

			_, err = w.Prepare(t.Context(), src, &tokenizer.ByteTokenizer{})
			require.ErrorIs(t, err, ErrConfig)
			_, statErr := os.Stat(cfg.Dir())
			assert.ErrorIs(t, statErr, os.ErrNotExist)
		})
	}
}
