package dataset

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/goccy/go-json"
)

type turn struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

// jsonlRecords decodes one JSON object per line. Objects carry either a text
// field or a "conversations" list whose first two entries are the prompt and
// the response.
func jsonlRecords(path, textField string) iter.Seq2[Record, error] {
	return scanLines(path, func(line []byte) (Record, bool, error) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			return Record{}, false, nil
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(line, &obj); err != nil {
			return Record{}, false, fmt.Errorf("parse record: %w", err)
		}
		if raw, ok := obj["conversations"]; ok {
			var turns []turn
			if err := json.Unmarshal(raw, &turns); err != nil {
				return Record{}, false, fmt.Errorf("parse conversations: %w", err)
			}
			rec := Record{Turns: make([]string, len(turns))}
			for i, t := range turns {
				rec.Turns[i] = t.Value
			}
			return rec, true, nil
		}
		raw, ok := obj[textField]
		if !ok {
			return Record{}, false, fmt.Errorf("record has neither %q nor \"conversations\"", textField)
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return Record{}, false, fmt.Errorf("field %q must be a string: %w", textField, err)
		}
		return Record{Text: text}, true, nil
	})
}
