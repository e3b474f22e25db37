// Package corpus prepares tokenized corpora on disk and samples training
// batches from them.
//
// A corpus is one directory per (dataset, tokenizer, vocab size, variant)
// holding a headerless little-endian uint16 file per split. The directory is
// the commit marker: it exists only once every split was written completely.
package corpus

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/samcharles93/tokbin/internal/dataset"
	"github.com/samcharles93/tokbin/internal/logger"
	"github.com/samcharles93/tokbin/internal/tokenizer"
)

// Option configures a Dataloader.
type Option func(*Dataloader)

// WithLogger sets the logger used for preparation and layout resolution.
func WithLogger(l logger.Logger) Option {
	return func(d *Dataloader) {
		if l != nil {
			d.log = l
		}
	}
}

// WithDevice sets the device every batch is placed on.
func WithDevice(dev Device) Option {
	return func(d *Dataloader) {
		if dev != nil {
			d.device = dev
		}
	}
}

// Dataloader ties a configuration to its on-disk corpus. It is safe for
// concurrent use once prepared. Close waits for in-flight reads; calls after
// Close return ErrClosed.
type Dataloader struct {
	cfg     Config
	log     logger.Logger
	device  Device
	layouts *LayoutCache
	sampler *sampler

	// mu is held shared while mapped data is read and exclusively by Close.
	mu     sync.RWMutex
	closed bool
}

// New validates cfg and returns a dataloader. Nothing is read or written.
func New(cfg Config, opts ...Option) (*Dataloader, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Dataloader{
		cfg:    cfg,
		log:    logger.Discard(),
		device: Host{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("variant", cfg.Variant.String())
	d.layouts = newLayoutCache(cfg)
	d.sampler = newSampler(cfg)
	return d, nil
}

func (d *Dataloader) Config() Config { return d.cfg }
func (d *Dataloader) Dir() string    { return d.cfg.Dir() }

// Processed reports whether the corpus directory exists.
func (d *Dataloader) Processed() bool {
	st, err := os.Stat(d.cfg.Dir())
	return err == nil && st.IsDir()
}

// Prepare writes the corpus from src unless it already exists.
func (d *Dataloader) Prepare(ctx context.Context, src dataset.Source, tok tokenizer.Tokenizer) (PrepareResult, error) {
	w, err := NewWriter(d.cfg, d.log)
	if err != nil {
		return PrepareResult{}, err
	}
	return w.Prepare(ctx, src, tok)
}

// acquire takes the read lock. The caller must call the returned release.
func (d *Dataloader) acquire() (release func(), err error) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return nil, ErrClosed
	}
	return d.mu.RUnlock, nil
}

func (d *Dataloader) split(name string) (*split, error) {
	sp, resolved, err := d.layouts.get(name)
	if err != nil {
		return nil, err
	}
	if resolved {
		d.log.Debug("resolved layout", "split", name, "kind", sp.layout.Kind.String(), "shape", sp.layout.Shape.String(), "examples", sp.layout.Count)
	}
	return sp, nil
}

// Layout returns the resolved layout of split.
func (d *Dataloader) Layout(split string) (Layout, error) {
	release, err := d.acquire()
	if err != nil {
		return Layout{}, err
	}
	defer release()
	sp, err := d.split(split)
	if err != nil {
		return Layout{}, err
	}
	return sp.layout, nil
}

// Len returns the number of valid indices for Item.
func (d *Dataloader) Len(split string) (int, error) {
	l, err := d.Layout(split)
	if err != nil {
		return 0, err
	}
	return l.Count, nil
}

// Batch samples Config.BatchSize examples uniformly with replacement.
func (d *Dataloader) Batch(split string) (*Batch, error) {
	return d.BatchN(split, d.cfg.BatchSize)
}

// BatchN samples n examples uniformly with replacement.
func (d *Dataloader) BatchN(split string, n int) (*Batch, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", ErrConfig, n)
	}
	release, err := d.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	sp, err := d.split(split)
	if err != nil {
		return nil, err
	}
	if sp.layout.Count <= 0 {
		return nil, fmt.Errorf("%w: split %s has shape %s and context window %d", ErrSplitTooSmall, split, sp.layout.Shape, d.cfg.ContextWindow)
	}
	return d.device.Place(d.sampler.sample(split, sp, n))
}

// Item returns example idx of split as a batch of one.
func (d *Dataloader) Item(split string, idx int) (*Batch, error) {
	release, err := d.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	sp, err := d.split(split)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= sp.layout.Count {
		return nil, fmt.Errorf("%w: %d not in [0, %d) for split %s", ErrIndexOutOfRange, idx, sp.layout.Count, split)
	}
	return d.device.Place(d.sampler.build(split, sp, []int{idx}))
}

// Close unmaps every opened split once in-flight reads have finished.
// Closing twice is a no-op.
func (d *Dataloader) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.layouts.close()
}
