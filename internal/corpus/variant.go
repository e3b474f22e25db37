package corpus

import (
	"fmt"
	"strings"

	"github.com/samcharles93/tokbin/internal/dataset"
	"github.com/samcharles93/tokbin/pkg/tokfile"
)

// Variant selects the (shaping, layout, sampling) triple of a dataloader.
type Variant uint8

const (
	// VariantStandard samples contiguous windows from a flat token stream.
	VariantStandard Variant = iota
	// VariantBytePooling stores fixed-width rows and samples windows of rows.
	VariantBytePooling
	// VariantConversational stores (prompt, response) pairs.
	VariantConversational
	// VariantMLM samples like VariantStandard and masks input positions.
	VariantMLM
)

var variantNames = map[Variant]string{
	VariantStandard:       "standard",
	VariantBytePooling:    "byte_pooling",
	VariantConversational: "conversational",
	VariantMLM:            "mlm",
}

var variantAliases = map[string]Variant{
	"byte_pooling_dataloader": VariantBytePooling,
	"bytepooling":             VariantBytePooling,
	"next_token_mlm":          VariantMLM,
	"conversation":            VariantConversational,
}

// ParseVariant maps a dataloader tag to its Variant.
func ParseVariant(s string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for v, name := range variantNames {
		if name == key {
			return v, nil
		}
	}
	if v, ok := variantAliases[key]; ok {
		return v, nil
	}
	return 0, configErr("unsupported variant %q", s)
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%d)", v)
}

func (v Variant) Valid() bool {
	_, ok := policies[v]
	return ok
}

func (v Variant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// LayoutKind is the logical shape family of a token file.
type LayoutKind uint8

const (
	LayoutFlat LayoutKind = iota
	LayoutRows
	LayoutPairs
)

func (k LayoutKind) String() string {
	switch k {
	case LayoutFlat:
		return "flat"
	case LayoutRows:
		return "rows"
	case LayoutPairs:
		return "pairs"
	default:
		return fmt.Sprintf("layout(%d)", k)
	}
}

// policy bundles the variant-specific pieces. The writer, resolver and
// sampler are shared and only consult these functions.
type policy struct {
	layout LayoutKind
	suffix func(c Config) string
	// conversational requires two-turn records.
	conversational bool
	masked         bool

	// shape appends the on-disk form of one tokenized record to dst.
	shape func(c Config, encode func(string) ([]int, error), rec dataset.Record, dst []uint16) ([]uint16, error)
	// resolve derives the logical shape from the flat token count.
	resolve func(c Config, n int) (tokfile.Shape, error)
	// example is the per-example shape of X and y.
	example func(c Config) []int
	// count is the number of valid example indices under shape.
	count func(c Config, shape tokfile.Shape) int
	// fill decodes example idx into x and y.
	fill func(c Config, f *tokfile.File, idx int, x, y []int64)
}

var policies = map[Variant]*policy{
	VariantStandard: {
		layout:  LayoutFlat,
		suffix:  func(Config) string { return "" },
		shape:   shapeFlat,
		resolve: resolveFlat,
		example: func(c Config) []int { return []int{c.ContextWindow} },
		count:   countWindows,
		fill:    fillWindow,
	},
	// mlm reads the same flat file as standard, so they share a directory.
	VariantMLM: {
		layout:  LayoutFlat,
		suffix:  func(Config) string { return "" },
		masked:  true,
		shape:   shapeFlat,
		resolve: resolveFlat,
		example: func(c Config) []int { return []int{c.ContextWindow} },
		count:   countWindows,
		fill:    fillWindow,
	},
	VariantBytePooling: {
		layout:  LayoutRows,
		suffix:  func(c Config) string { return fmt.Sprintf("-BytePooling-%d", c.RowWidth) },
		shape:   shapeRows,
		resolve: resolveRows,
		example: func(c Config) []int { return []int{c.ContextWindow, c.RowWidth} },
		count:   countWindows,
		fill:    fillRowWindow,
	},
	VariantConversational: {
		layout:         LayoutPairs,
		suffix:         func(c Config) string { return fmt.Sprintf("-Conversational-%d", c.ContextWindow) },
		conversational: true,
		shape:          shapePair,
		resolve:        resolvePairs,
		example:        func(c Config) []int { return []int{c.ContextWindow} },
		count:          func(_ Config, s tokfile.Shape) int { return s[0] },
		fill:           fillPair,
	},
}

func (v Variant) policy() *policy {
	p, ok := policies[v]
	if !ok {
		// Config.Validate rejects unknown variants before any policy lookup.
		panic(fmt.Sprintf("corpus: no policy for %s", v))
	}
	return p
}

// textOf returns the text of a single-text record and rejects turn records.
func textOf(c Config, rec dataset.Record) (string, error) {
	if rec.Text == "" && len(rec.Turns) > 0 {
		return "", configErr("%s variant needs text records, got a %d-turn conversation", c.Variant, len(rec.Turns))
	}
	return rec.Text, nil
}

func shapeFlat(c Config, encode func(string) ([]int, error), rec dataset.Record, dst []uint16) ([]uint16, error) {
	text, err := textOf(c, rec)
	if err != nil {
		return dst, err
	}
	ids, err := encode(text)
	if err != nil {
		return dst, err
	}
	return tokfile.ToUint16(dst, ids)
}

// shapeRows pads the record to a whole number of rows.
func shapeRows(c Config, encode func(string) ([]int, error), rec dataset.Record, dst []uint16) ([]uint16, error) {
	text, err := textOf(c, rec)
	if err != nil {
		return dst, err
	}
	ids, err := encode(text)
	if err != nil {
		return dst, err
	}
	dst, err = tokfile.ToUint16(dst, ids)
	if err != nil {
		return dst, err
	}
	if rem := len(ids) % c.RowWidth; rem != 0 {
		for i := rem; i < c.RowWidth; i++ {
			dst = append(dst, uint16(c.PadID))
		}
	}
	return dst, nil
}

// shapePair truncates or pads the prompt and the response to the context window.
func shapePair(c Config, encode func(string) ([]int, error), rec dataset.Record, dst []uint16) ([]uint16, error) {
	if !rec.Conversational() {
		return dst, fmt.Errorf("%w: record has %d turns", dataset.ErrNotConversational, len(rec.Turns))
	}
	for _, text := range rec.Turns[:2] {
		ids, err := encode(text)
		if err != nil {
			return dst, err
		}
		if len(ids) > c.ContextWindow {
			ids = ids[:c.ContextWindow]
		}
		dst, err = tokfile.ToUint16(dst, ids)
		if err != nil {
			return dst, err
		}
		for i := len(ids); i < c.ContextWindow; i++ {
			dst = append(dst, uint16(c.PadID))
		}
	}
	return dst, nil
}

func resolveFlat(_ Config, n int) (tokfile.Shape, error) {
	return tokfile.Flat(n), nil
}

func resolveRows(c Config, n int) (tokfile.Shape, error) {
	if n%c.RowWidth != 0 {
		return nil, fmt.Errorf("%w: %d tokens is not a whole number of %d-wide rows", tokfile.ErrShapeMismatch, n, c.RowWidth)
	}
	return tokfile.Shape{n / c.RowWidth, c.RowWidth}, nil
}

func resolvePairs(c Config, n int) (tokfile.Shape, error) {
	unit := 2 * c.ContextWindow
	if n%unit != 0 {
		return nil, fmt.Errorf("%w: %d tokens is not a whole number of (2, %d) pairs", tokfile.ErrShapeMismatch, n, c.ContextWindow)
	}
	return tokfile.Shape{n / unit, 2, c.ContextWindow}, nil
}

// countWindows counts window starts along the leading axis that leave room
// for the shifted target.
func countWindows(c Config, s tokfile.Shape) int {
	n := s[0] - c.ContextWindow
	if n < 0 {
		return 0
	}
	return n
}

func fillWindow(_ Config, f *tokfile.File, idx int, x, y []int64) {
	f.Read(x, idx)
	f.Read(y, idx+1)
}

func fillRowWindow(c Config, f *tokfile.File, idx int, x, y []int64) {
	f.ReadRows(x, idx, c.ContextWindow)
	f.ReadRows(y, idx+1, c.ContextWindow)
}

func fillPair(c Config, f *tokfile.File, idx int, x, y []int64) {
	base := idx * 2 * c.ContextWindow
	f.Read(x, base)
	f.Read(y, base+c.ContextWindow)
}
