package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/samcharles93/tokbin/internal/dataset"
	"github.com/samcharles93/tokbin/internal/logger"
	"github.com/samcharles93/tokbin/internal/tokenizer"
	"github.com/samcharles93/tokbin/pkg/tokfile"
)

// PrepareResult describes one Prepare call.
type PrepareResult struct {
	RunID   string
	Dir     string
	Skipped bool
	Splits  []SplitSummary
}

// SplitSummary describes one written split file.
type SplitSummary struct {
	Split   string
	Path    string
	Records int
	Tokens  int
	MeanLen float64
	StdLen  float64
}

// Writer converts raw records into one token file per split.
type Writer struct {
	cfg    Config
	policy *policy
	log    logger.Logger

	// afterShard runs after every shard write. Tests use it to inject failures.
	afterShard func(split string, shard, shards int) error
}

// NewWriter validates cfg and returns a writer for it.
func NewWriter(cfg Config, log logger.Logger) (*Writer, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Writer{cfg: cfg, policy: cfg.Variant.policy(), log: log}, nil
}

// tokenized is the pass-1 output of one split: shaped ids per record.
type tokenized struct {
	split string
	ids   [][]uint16
	total int
}

// Prepare tokenizes every split of src and writes <split>.bin files under
// Config.Dir. An existing directory means the corpus is already prepared and
// nothing is read or written. On failure the directory is removed so a partial
// write can never be mistaken for a prepared corpus.
func (w *Writer) Prepare(ctx context.Context, src dataset.Source, tok tokenizer.Tokenizer) (res PrepareResult, err error) {
	dir := w.cfg.Dir()
	res = PrepareResult{RunID: uuid.NewString(), Dir: dir}
	log := w.log.With("run", res.RunID, "dir", dir)

	if err := w.check(src, tok); err != nil {
		return res, err
	}

	if _, statErr := os.Stat(dir); statErr == nil {
		log.Info("corpus already prepared, skipping")
		res.Skipped = true
		return res, nil
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return res, statErr
	}

	start := time.Now()
	splits, err := w.tokenize(ctx, src, tok, log)
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return res, err
	}
	// The directory is the commit marker. Mkdir (not MkdirAll) so a writer
	// that lost the race sees ErrExist and backs off.
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			log.Warn("corpus directory appeared during tokenization, skipping")
			res.Skipped = true
			return res, nil
		}
		return res, err
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Error("failed to remove partial corpus", "error", rmErr)
			err = errors.Join(err, rmErr)
			return
		}
		log.Warn("removed partial corpus", "error", err)
	}()

	for _, t := range splits {
		summary, err := w.writeSplit(ctx, t, log)
		if err != nil {
			return res, fmt.Errorf("write split %s: %w", t.split, err)
		}
		res.Splits = append(res.Splits, summary)
	}
	log.Info("corpus prepared", "splits", len(res.Splits), "took", time.Since(start))
	return res, nil
}

// check rejects configurations that cannot produce a valid corpus.
func (w *Writer) check(src dataset.Source, tok tokenizer.Tokenizer) error {
	if src == nil || tok == nil {
		return configErr("a record source and a tokenizer are required")
	}
	if tok.Name() != w.cfg.Tokenizer {
		return configErr("tokenizer %q does not match configured tokenizer %q", tok.Name(), w.cfg.Tokenizer)
	}
	if tok.VocabSize() > w.cfg.VocabSize {
		return configErr("tokenizer vocab %d exceeds configured vocab size %d", tok.VocabSize(), w.cfg.VocabSize)
	}
	if w.policy.conversational && !src.Conversational() {
		return fmt.Errorf("%w: %s variant: %w", ErrConfig, w.cfg.Variant, dataset.ErrNotConversational)
	}
	if len(src.Splits()) == 0 {
		return configErr("record source has no splits")
	}
	for _, split := range src.Splits() {
		if err := validSplit(split); err != nil {
			return err
		}
	}
	return nil
}

// tokenize is pass 1: every record of every split is tokenized and shaped so
// the exact file sizes are known before anything is written.
func (w *Writer) tokenize(ctx context.Context, src dataset.Source, tok tokenizer.Tokenizer, log logger.Logger) ([]*tokenized, error) {
	names := src.Splits()
	out := make([]*tokenized, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, split := range names {
		g.Go(func() error {
			t := &tokenized{split: split}
			for rec, err := range src.Records(gctx, split) {
				if err != nil {
					return fmt.Errorf("read split %s: %w", split, err)
				}
				ids, err := w.policy.shape(w.cfg, tok.Encode, rec, nil)
				if err != nil {
					return fmt.Errorf("tokenize split %s record %d: %w", split, len(t.ids), err)
				}
				t.ids = append(t.ids, ids)
				t.total += len(ids)
			}
			log.Debug("tokenized split", "split", split, "records", len(t.ids), "tokens", t.total)
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeSplit is pass 2: the file is allocated at its final size and filled
// shard by shard at a running offset.
func (w *Writer) writeSplit(ctx context.Context, t *tokenized, log logger.Logger) (SplitSummary, error) {
	path := w.cfg.SplitPath(t.split)
	out, err := tokfile.Create(path, t.total)
	if err != nil {
		return SplitSummary{}, err
	}
	closed := false
	defer func() {
		if !closed {
			_ = out.Close()
		}
	}()

	n := len(t.ids)
	shards := min(w.cfg.Shards, n)
	buf := make([]uint16, 0, t.total/max(shards, 1)+1)
	off := 0
	nextReport := 1
	for shard := range shards {
		if err := ctx.Err(); err != nil {
			return SplitSummary{}, err
		}
		// Contiguous shards: records [shard*n/shards, (shard+1)*n/shards).
		lo, hi := shard*n/shards, (shard+1)*n/shards
		buf = buf[:0]
		for _, ids := range t.ids[lo:hi] {
			buf = append(buf, ids...)
		}
		if err := out.WriteAt(buf, off); err != nil {
			return SplitSummary{}, err
		}
		off += len(buf)

		if w.afterShard != nil {
			if err := w.afterShard(t.split, shard, shards); err != nil {
				return SplitSummary{}, err
			}
		}
		if done := (shard + 1) * 10 / shards; done >= nextReport {
			log.Debug("writing split", "split", t.split, "shard", shard+1, "shards", shards, "tokens", off)
			nextReport = done + 1
		}
	}
	if off != t.total {
		return SplitSummary{}, fmt.Errorf("wrote %d tokens, allocated %d", off, t.total)
	}
	closed = true
	if err := out.Close(); err != nil {
		return SplitSummary{}, err
	}

	lens := make([]float64, n)
	for i, ids := range t.ids {
		lens[i] = float64(len(ids))
	}
	summary := SplitSummary{Split: t.split, Path: path, Records: n, Tokens: t.total}
	if n > 0 {
		summary.MeanLen, summary.StdLen = stat.MeanStdDev(lens, nil)
	}
	log.Info("wrote split", "split", t.split, "records", n, "tokens", t.total, "path", path)
	return summary, nil
}
