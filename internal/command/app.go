// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/kmsctl/internal/config"
	"github.com/tfctl/kmsctl/internal/log"
	"github.com/tfctl/kmsctl/internal/meta"
)

// InitApp builds the root command. args[1], when it is not a flag, names the
// subcommand and also the config namespace its flags read from.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// A missing default config file is not an error; flags then come from the
	// command line and environment only. An explicit one must load.
	cfg, err := config.Load(ns)
	if err != nil {
		if os.Getenv(config.EnvFile) != "" {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		log.Debugf("config not loaded: err=%v", err)
	}

	meta := meta.Meta{
		Args:    args,
		Config:  cfg,
		Context: ctx,
	}

	app := &cli.Command{
		Name:  "kmsctl",
		Usage: "KMS key inventory and GitHub listing",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "kmsctl version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		bqCommandBuilder(meta),
		kiCommandBuilder(meta),
		kqCommandBuilder(meta),
		rqCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
