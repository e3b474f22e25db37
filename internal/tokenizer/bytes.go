package tokenizer

const (
	ByteTokenizerName = "bytes"

	byteEOTID = 256
	bytePadID = 257
)

// ByteTokenizer maps text to its UTF-8 byte values. Ids 0-255 are bytes,
// 256 is end-of-text and 257 is padding.
type ByteTokenizer struct {
	AppendEOT bool
}

func (t *ByteTokenizer) Encode(text string) ([]int, error) {
	n := len(text)
	if t.AppendEOT {
		n++
	}
	ids := make([]int, 0, n)
	for i := 0; i < len(text); i++ {
		ids = append(ids, int(text[i]))
	}
	if t.AppendEOT {
		ids = append(ids, byteEOTID)
	}
	return ids, nil
}

func (t *ByteTokenizer) Decode(ids []int) (string, error) {
	out := make([]byte, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id > 255 {
			continue
		}
		out = append(out, byte(id))
	}
	return string(out), nil
}

func (t *ByteTokenizer) Name() string   { return ByteTokenizerName }
func (t *ByteTokenizer) VocabSize() int { return bytePadID + 1 }
func (t *ByteTokenizer) PadID() int     { return bytePadID }
func (t *ByteTokenizer) EOTID() int     { return byteEOTID }
