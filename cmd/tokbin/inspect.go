package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/stat"

	"github.com/samcharles93/tokbin/internal/corpus"
	"github.com/samcharles93/tokbin/internal/logger"
	"github.com/samcharles93/tokbin/pkg/tokfile"
)

// splitStats summarises the token distribution of one split file.
type splitStats struct {
	Tokens   int
	Distinct int
	PadFrac  float64
	// Entropy is the unigram entropy in bits per token.
	Entropy float64
	Top     []tokenCount
}

type tokenCount struct {
	ID    int
	Count int
}

func inspectCmd() *cli.Command {
	var top int64

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show layout and token statistics of a prepared corpus",
		Flags: append(corpusFlags(),
			&cli.Int64Flag{
				Name:        "top",
				Usage:       "number of most frequent tokens to list per split",
				Value:       10,
				Destination: &top,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyCorpusConfig(cmd, fileConfig)

			if datasetName == "" {
				return fmt.Errorf("--dataset is required")
			}
			cfg, _, err := corpusConfig(datasetName)
			if err != nil {
				return err
			}
			d, err := corpus.New(cfg, corpus.WithLogger(log))
			if err != nil {
				return err
			}
			defer func() { _ = d.Close() }()

			if !d.Processed() {
				return fmt.Errorf("%w: %s", corpus.ErrNotPrepared, d.Dir())
			}
			splits, err := listSplits(d.Dir())
			if err != nil {
				return err
			}

			fmt.Printf("corpus:  %s\n", d.Dir())
			fmt.Printf("variant: %s\n", cfg.Variant)
			for _, split := range splits {
				l, err := d.Layout(split)
				if err != nil {
					return err
				}
				st, err := tokenStats(cfg.SplitPath(split), cfg.PadID, int(top))
				if err != nil {
					return err
				}
				fmt.Printf("\n%s\n", split)
				fmt.Printf("  layout:   %s %s\n", l.Kind, l.Shape)
				fmt.Printf("  examples: %d\n", l.Count)
				fmt.Printf("  tokens:   %d (distinct %d, pad %.2f%%)\n", st.Tokens, st.Distinct, st.PadFrac*100)
				fmt.Printf("  entropy:  %.3f bits/token\n", st.Entropy)
				if len(st.Top) > 0 {
					parts := make([]string, len(st.Top))
					for i, tc := range st.Top {
						parts[i] = fmt.Sprintf("%d:%d", tc.ID, tc.Count)
					}
					fmt.Printf("  top:      %s\n", strings.Join(parts, " "))
				}
			}
			return nil
		},
	}
}

func listSplits(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var splits []string
	for _, e := range ents {
		if e.IsDir() || filepath.Ext(e.Name()) != tokfile.Ext {
			continue
		}
		splits = append(splits, strings.TrimSuffix(e.Name(), tokfile.Ext))
	}
	sort.Strings(splits)
	return splits, nil
}

func tokenStats(path string, pad, top int) (splitStats, error) {
	f, err := tokfile.Open(path)
	if err != nil {
		return splitStats{}, err
	}
	defer func() { _ = f.Close() }()

	counts := make([]int, tokfile.MaxVocabSize)
	n := f.Len()
	for i := range n {
		counts[f.At(i)]++
	}

	st := splitStats{Tokens: n}
	if n == 0 {
		return st, nil
	}
	probs := make([]float64, 0, 1024)
	for id, c := range counts {
		if c == 0 {
			continue
		}
		st.Distinct++
		probs = append(probs, float64(c)/float64(n))
		st.Top = append(st.Top, tokenCount{ID: id, Count: c})
	}
	if pad >= 0 && pad < len(counts) {
		st.PadFrac = float64(counts[pad]) / float64(n)
	}
	st.Entropy = stat.Entropy(probs) / math.Ln2

	sort.Slice(st.Top, func(i, j int) bool {
		if st.Top[i].Count != st.Top[j].Count {
			return st.Top[i].Count > st.Top[j].Count
		}
		return st.Top[i].ID < st.Top[j].ID
	})
	if len(st.Top) > top {
		st.Top = st.Top[:max(top, 0)]
	}
	return st, nil
}
