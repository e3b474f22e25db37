package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokbin/internal/corpus"
	"github.com/samcharles93/tokbin/internal/logger"
)

func prepareCmd() *cli.Command {
	var (
		source         string
		conversational bool
		textField      string
		parquetColumn  int64
	)

	return &cli.Command{
		Name:  "prepare",
		Usage: "Tokenize a dataset directory into per-split token files",
		Flags: append(corpusFlags(),
			&cli.StringFlag{
				Name:        "source",
				Aliases:     []string{"s"},
				Usage:       "directory of <split>.jsonl, <split>.txt or <split>.parquet files",
				Destination: &source,
			},
			&cli.BoolFlag{
				Name:        "conversational",
				Usage:       "records are two-turn conversations",
				Destination: &conversational,
			},
			&cli.StringFlag{
				Name:        "text-field",
				Usage:       "JSONL field holding the record text",
				Value:       "text",
				Destination: &textField,
			},
			&cli.Int64Flag{
				Name:        "parquet-column",
				Usage:       "parquet column index holding the record text",
				Destination: &parquetColumn,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyCorpusConfig(cmd, fileConfig)

			name, err := resolveDatasetName(datasetName, source)
			if err != nil {
				return err
			}
			cfg, tok, err := corpusConfig(name)
			if err != nil {
				return err
			}
			if cfg.Variant == corpus.VariantConversational && !cmd.IsSet("conversational") {
				conversational = true
			}
			src, err := openSource(source, conversational, textField, parquetColumn)
			if err != nil {
				return err
			}

			d, err := corpus.New(cfg, corpus.WithLogger(log))
			if err != nil {
				return err
			}
			defer func() { _ = d.Close() }()

			start := time.Now()
			res, err := d.Prepare(ctx, src, tok)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Printf("corpus already prepared: %s\n", res.Dir)
				return nil
			}
			fmt.Printf("prepared %s in %s\n", res.Dir, time.Since(start).Round(time.Millisecond))
			for _, s := range res.Splits {
				fmt.Printf("  %-12s records=%d tokens=%d mean_len=%.1f std_len=%.1f\n",
					s.Split, s.Records, s.Tokens, s.MeanLen, s.StdLen)
			}
			return nil
		},
	}
}
