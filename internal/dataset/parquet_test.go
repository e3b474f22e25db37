package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

type textRow struct {
	Text string `parquet:"name=text, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func writeParquet(t *testing.T, path string, texts ...string) {
	t.Helper()
	fw, err := local.NewLocalFileWriter(path)
	require.NoError(t, err)
	pw, err := writer.NewParquetWriter(fw, new(textRow), 1)
	require.NoError(t, err)
	for _, text := range texts {
		require.NoError(t, pw.Write(textRow{Text: text}))
	}
	require.NoError(t, pw.WriteStop())
	require.NoError(t, fw.Close())
}

func TestDirParquet(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeParquet(t, filepath.Join(root, "train.parquet"), "ab", "abc", "hello world")

	src, err := OpenDir(root, DirOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"train"}, src.Splits())

	got, err := collect(t, src, "train")
	require.NoError(t, err)
	assert.Equal(t, []Record{{Text: "ab"}, {Text: "abc"}, {Text: "hello world"}}, got)
}

func TestDirParquetRejectsConversational(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeParquet(t, filepath.Join(root, "train.parquet"), "only one turn")

	src, err := OpenDir(root, DirOptions{Conversational: true})
	require.NoError(t, err)
	_, err = collect(t, src, "train")
	require.ErrorIs(t, err, ErrNotConversational)
}
