package main

import (
	"github.com/urfave/cli/v3"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	dataDir       string
	datasetName   string
	tokenizerName string
	appendEOT     bool
	vocabSize     int64
	variantName   string
	contextWindow int64
	rowWidth      int64
	batchSize     int64
	maskingPct    float64
	padID         int64
	shards        int64
	seed          uint64
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "path to config.yaml (default ~/.config/tokbin/config.yaml)",
		Destination: &configFile,
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// corpusFlags identify a prepared corpus and how it is sampled.
func corpusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Aliases:     []string{"d"},
			Usage:       "root directory of prepared corpora (default $" + envDataDir + " or ./data)",
			Destination: &dataDir,
		},
		&cli.StringFlag{
			Name:        "dataset",
			Usage:       "dataset name used in the corpus path",
			Destination: &datasetName,
		},
		&cli.StringFlag{
			Name:        "tokenizer",
			Aliases:     []string{"t"},
			Usage:       "tokenizer (bytes, gpt2, r50k_base, p50k_base)",
			Value:       "bytes",
			Destination: &tokenizerName,
		},
		&cli.BoolFlag{
			Name:        "append-eot",
			Usage:       "append the end-of-text id after every record",
			Destination: &appendEOT,
		},
		&cli.Int64Flag{
			Name:        "vocab-size",
			Usage:       "vocabulary size recorded in the corpus path (default: tokenizer vocab)",
			Destination: &vocabSize,
		},
		&cli.StringFlag{
			Name:        "variant",
			Usage:       "dataloader variant (standard, byte_pooling, conversational, mlm)",
			Value:       "standard",
			Destination: &variantName,
		},
		&cli.Int64Flag{
			Name:        "context-window",
			Aliases:     []string{"ctx", "T"},
			Usage:       "tokens per example",
			Value:       256,
			Destination: &contextWindow,
		},
		&cli.Int64Flag{
			Name:        "row-width",
			Usage:       "row width of the byte_pooling variant",
			Value:       4,
			Destination: &rowWidth,
		},
		&cli.Int64Flag{
			Name:        "batch-size",
			Aliases:     []string{"b"},
			Usage:       "examples per batch",
			Value:       8,
			Destination: &batchSize,
		},
		&cli.Float64Flag{
			Name:        "masking-pct",
			Usage:       "masking probability of the mlm variant",
			Value:       0.15,
			Destination: &maskingPct,
		},
		&cli.Int64Flag{
			Name:        "pad-id",
			Usage:       "pad id for padding and masking (default: tokenizer pad id)",
			Value:       -1,
			Destination: &padID,
		},
		&cli.Int64Flag{
			Name:        "shards",
			Usage:       "contiguous shards each split is written in",
			Value:       1024,
			Destination: &shards,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Usage:       "sampling seed",
			Value:       1337,
			Destination: &seed,
		},
	}
}
