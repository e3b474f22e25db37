package corpus

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Batch is a sampled set of training examples. X and Y are row-major with
// shape Shape; Mask is non-nil only for masked variants and has the shape of X.
type Batch struct {
	Split string
	Shape []int
	X     []int64
	Y     []int64
	Mask  []bool
}

// Size returns the batch dimension.
func (b *Batch) Size() int {
	if len(b.Shape) == 0 {
		return 0
	}
	return b.Shape[0]
}

// ExampleLen returns the number of elements in one example of X.
func (b *Batch) ExampleLen() int {
	n := 1
	for _, d := range b.Shape[1:] {
		n *= d
	}
	return n
}

// Example returns the i-th example of X and Y (and Mask when present).
func (b *Batch) Example(i int) (x, y []int64, mask []bool) {
	n := b.ExampleLen()
	x, y = b.X[i*n:(i+1)*n], b.Y[i*n:(i+1)*n]
	if b.Mask != nil {
		mask = b.Mask[i*n : (i+1)*n]
	}
	return x, y, mask
}

// sampler draws example indices and masks from one seeded source.
type sampler struct {
	cfg    Config
	policy *policy

	mu  sync.Mutex
	rng *rand.Rand
}

func newSampler(cfg Config) *sampler {
	return &sampler{
		cfg:    cfg,
		policy: cfg.Variant.policy(),
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// indices fills dst with indices drawn uniformly with replacement from [0, n).
func (s *sampler) indices(dst []int, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range dst {
		dst[i] = s.rng.IntN(n)
	}
}

// mask sets each position of dst independently with probability p.
func (s *sampler) mask(dst []bool, p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range dst {
		dst[i] = s.rng.Float64() < p
	}
}

// sample builds a batch of size examples from sp.
func (s *sampler) sample(name string, sp *split, size int) *Batch {
	count := sp.layout.Count
	if count <= 0 {
		panic(fmt.Sprintf("corpus: sampling from split %s with no valid examples", name))
	}
	idx := make([]int, size)
	s.indices(idx, count)
	return s.build(name, sp, idx)
}

// build decodes the examples at idx. An index outside the split is an
// invariant violation and panics.
func (s *sampler) build(name string, sp *split, idx []int) *Batch {
	c, p := s.cfg, s.policy
	example := p.example(c)
	shape := append([]int{len(idx)}, example...)
	n := 1
	for _, d := range example {
		n *= d
	}
	b := &Batch{
		Split: name,
		Shape: shape,
		X:     make([]int64, len(idx)*n),
		Y:     make([]int64, len(idx)*n),
	}
	for i, j := range idx {
		if j < 0 || j >= sp.layout.Count {
			panic(fmt.Sprintf("corpus: index %d outside [0, %d) of split %s", j, sp.layout.Count, name))
		}
		p.fill(c, sp.file, j, b.X[i*n:(i+1)*n], b.Y[i*n:(i+1)*n])
	}
	if p.masked {
		b.Mask = make([]bool, len(b.X))
		s.mask(b.Mask, c.MaskingPct)
		pad := int64(c.PadID)
		for i, m := range b.Mask {
			if m {
				b.X[i] = pad
			}
		}
	}
	return b
}
