package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the tokbin configuration file (~/.config/tokbin/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	DataDir   string `yaml:"data_dir"`
	Dataset   string `yaml:"dataset"`
	Tokenizer string `yaml:"tokenizer"`
	AppendEOT *bool  `yaml:"append_eot"`
	VocabSize *int64 `yaml:"vocab_size"`
	Variant   string `yaml:"variant"`

	// Sampling
	ContextWindow *int64   `yaml:"context_window"`
	RowWidth      *int64   `yaml:"row_width"`
	BatchSize     *int64   `yaml:"batch_size"`
	MaskingPct    *float64 `yaml:"masking_pct"`
	PadID         *int64   `yaml:"pad_id"`
	Shards        *int64   `yaml:"shards"`
	Seed          *uint64  `yaml:"seed"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// fileConfig is the config file loaded by the root Before hook.
var fileConfig Config

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tokbin", "config.yaml")
}

// loadConfig reads the config file at path, or the default location when path
// is empty. A missing default file yields a zero Config; a missing explicit
// file is an error.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyCorpusConfig applies config file defaults to corpus flag variables
// when the corresponding CLI flag was not explicitly set.
func applyCorpusConfig(c *cli.Command, cfg Config) {
	if cfg.DataDir != "" && !c.IsSet("data-dir") {
		dataDir = cfg.DataDir
	}
	if cfg.Dataset != "" && !c.IsSet("dataset") {
		datasetName = cfg.Dataset
	}
	if cfg.Tokenizer != "" && !c.IsSet("tokenizer") {
		tokenizerName = cfg.Tokenizer
	}
	if cfg.AppendEOT != nil && !c.IsSet("append-eot") {
		appendEOT = *cfg.AppendEOT
	}
	if cfg.VocabSize != nil && !c.IsSet("vocab-size") {
		vocabSize = *cfg.VocabSize
	}
	if cfg.Variant != "" && !c.IsSet("variant") {
		variantName = cfg.Variant
	}
	if cfg.ContextWindow != nil && !c.IsSet("context-window") {
		contextWindow = *cfg.ContextWindow
	}
	if cfg.RowWidth != nil && !c.IsSet("row-width") {
		rowWidth = *cfg.RowWidth
	}
	if cfg.BatchSize != nil && !c.IsSet("batch-size") {
		batchSize = *cfg.BatchSize
	}
	if cfg.MaskingPct != nil && !c.IsSet("masking-pct") {
		maskingPct = *cfg.MaskingPct
	}
	if cfg.PadID != nil && !c.IsSet("pad-id") {
		padID = *cfg.PadID
	}
	if cfg.Shards != nil && !c.IsSet("shards") {
		shards = *cfg.Shards
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		seed = *cfg.Seed
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyCorpusConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
