package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokbin/internal/corpus"
	"github.com/samcharles93/tokbin/internal/logger"
	"github.com/samcharles93/tokbin/internal/tokenizer"
)

type sampleLine struct {
	Index *int    `json:"index,omitempty"`
	X     []int64 `json:"x"`
	Y     []int64 `json:"y"`
	Mask  []bool  `json:"mask,omitempty"`
	XText string  `json:"x_text,omitempty"`
	YText string  `json:"y_text,omitempty"`
}

func sampleCmd() *cli.Command {
	var (
		split  string
		index  int64
		batchN int64
		decode bool
	)

	return &cli.Command{
		Name:  "sample",
		Usage: "Print a sampled batch (or one indexed example) as JSON lines",
		Flags: append(corpusFlags(),
			&cli.StringFlag{
				Name:        "split",
				Value:       "train",
				Usage:       "split to sample from",
				Destination: &split,
			},
			&cli.Int64Flag{
				Name:        "index",
				Aliases:     []string{"i"},
				Usage:       "print the example at this index instead of a random batch",
				Value:       -1,
				Destination: &index,
			},
			&cli.Int64Flag{
				Name:        "batches",
				Usage:       "number of batches to print",
				Value:       1,
				Destination: &batchN,
			},
			&cli.BoolFlag{
				Name:        "decode",
				Usage:       "include decoded text alongside token ids",
				Destination: &decode,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyCorpusConfig(cmd, fileConfig)

			if datasetName == "" {
				return fmt.Errorf("--dataset is required")
			}
			cfg, tok, err := corpusConfig(datasetName)
			if err != nil {
				return err
			}
			d, err := corpus.New(cfg, corpus.WithLogger(log))
			if err != nil {
				return err
			}
			defer func() { _ = d.Close() }()

			enc := json.NewEncoder(os.Stdout)
			if index >= 0 {
				b, err := d.Item(split, int(index))
				if err != nil {
					return err
				}
				idx := int(index)
				return writeSample(enc, b, &idx, tok, decode)
			}
			for range batchN {
				if err := ctx.Err(); err != nil {
					return err
				}
				b, err := d.Batch(split)
				if err != nil {
					return err
				}
				if err := writeSample(enc, b, nil, tok, decode); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func writeSample(enc *json.Encoder, b *corpus.Batch, idx *int, tok tokenizer.Tokenizer, decode bool) error {
	for i := range b.Size() {
		x, y, mask := b.Example(i)
		line := sampleLine{Index: idx, X: x, Y: y, Mask: mask}
		if decode {
			var err error
			if line.XText, err = decodeIDs(tok, x); err != nil {
				return err
			}
			if line.YText, err = decodeIDs(tok, y); err != nil {
				return err
			}
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// decodeIDs decodes ids, dropping pad and out-of-vocabulary positions.
func decodeIDs(tok tokenizer.Tokenizer, ids []int64) (string, error) {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if int(id) == tok.PadID() || int(id) >= tok.VocabSize() {
			continue
		}
		out = append(out, int(id))
	}
	return tok.Decode(out)
}
