package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

type encodingInfo struct {
	vocab int
	eot   int
}

// Known encodings. tiktoken-go does not expose vocabulary sizes, so they are
// recorded here alongside the end-of-text id.
var encodings = map[string]encodingInfo{
	tiktoken.MODEL_R50K_BASE:   {vocab: 50257, eot: 50256},
	tiktoken.MODEL_P50K_BASE:   {vocab: 50281, eot: 50256},
	tiktoken.MODEL_CL100K_BASE: {vocab: 100277, eot: 100257},
	tiktoken.MODEL_O200K_BASE:  {vocab: 200019, eot: 199999},
}

var encodingAliases = map[string]string{
	"gpt2":     tiktoken.MODEL_R50K_BASE,
	"r50k":     tiktoken.MODEL_R50K_BASE,
	"p50k":     tiktoken.MODEL_P50K_BASE,
	"cl100k":   tiktoken.MODEL_CL100K_BASE,
	"o200k":    tiktoken.MODEL_O200K_BASE,
	"tiktoken": tiktoken.MODEL_R50K_BASE,
}

// Tiktoken wraps a tiktoken BPE encoding. The pad id is the end-of-text id,
// as with GPT-2.
type Tiktoken struct {
	enc       *tiktoken.Tiktoken
	name      string
	info      encodingInfo
	appendEOT bool
}

// NewTiktoken loads the named encoding. The BPE ranks are fetched on first use
// and cached under TIKTOKEN_CACHE_DIR.
func NewTiktoken(name string, appendEOT bool) (*Tiktoken, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[key]; ok {
		key = alias
	}
	info, ok := encodings[key]
	if !ok {
		return nil, fmt.Errorf("unsupported tokenizer %q", name)
	}
	enc, err := tiktoken.GetEncoding(key)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %s: %w", key, err)
	}
	return &Tiktoken{enc: enc, name: key, info: info, appendEOT: appendEOT}, nil
}

func (t *Tiktoken) Encode(text string) ([]int, error) {
	ids := t.enc.Encode(text, nil, nil)
	if t.appendEOT {
		ids = append(ids, t.info.eot)
	}
	return ids, nil
}

func (t *Tiktoken) Decode(ids []int) (string, error) {
	return t.enc.Decode(ids), nil
}

func (t *Tiktoken) Name() string   { return t.name }
func (t *Tiktoken) VocabSize() int { return t.info.vocab }
func (t *Tiktoken) PadID() int     { return t.info.eot }
func (t *Tiktoken) EOTID() int     { return t.info.eot }
