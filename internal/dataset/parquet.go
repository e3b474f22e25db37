package dataset

import (
	"fmt"
	"iter"
	"os"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
)

// parquetRecords reads the text column at index column. Null or non-string
// values are rejected rather than skipped.
func parquetRecords(path string, column int64) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		raw, err := os.ReadFile(path)
		if err != nil {
			yield(Record{}, err)
			return
		}
		bf := buffer.NewBufferFileFromBytesNoAlloc(raw)
		pr, err := reader.NewParquetColumnReader(bf, 1)
		if err != nil {
			yield(Record{}, fmt.Errorf("failed to create parquet column reader for %s: %w", path, err))
			return
		}
		defer pr.ReadStop()

		n := pr.GetNumRows()
		if n == 0 {
			return
		}
		values, _, _, err := pr.ReadColumnByIndex(column, n)
		if err != nil {
			yield(Record{}, fmt.Errorf("failed to read column %d of %s: %w", column, path, err))
			return
		}
		for i, v := range values {
			text, ok := v.(string)
			if !ok {
				yield(Record{}, fmt.Errorf("%s row %d: column %d is %T, not a string", path, i, column, v))
				return
			}
			if !yield(Record{Text: text}, nil) {
				return
			}
		}
	}
}
