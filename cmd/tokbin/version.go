package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokbin/internal/version"
)

type versionJSON struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

func versionCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print build metadata as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return writeVersion(os.Stdout, version.Resolve(), asJSON)
		},
	}
}

// writeVersion prints "tokbin <version>" and, when known, the build time.
func writeVersion(w io.Writer, info version.Info, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(versionJSON{
			Version:   info.Version,
			Commit:    info.Commit,
			BuildTime: info.BuildTime,
			Modified:  info.Modified,
		})
	}
	if _, err := fmt.Fprintf(w, "tokbin %s\n", info.String()); err != nil {
		return err
	}
	if info.BuildTime != "" {
		_, err := fmt.Fprintf(w, "built %s\n", info.BuildTime)
		return err
	}
	return nil
}
