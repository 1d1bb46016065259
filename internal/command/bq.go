// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/kmsctl/internal/config"
	"github.com/tfctl/kmsctl/internal/github"
	"github.com/tfctl/kmsctl/internal/log"
	"github.com/tfctl/kmsctl/internal/meta"
)

// bqDefaultAttrs specifies the default attributes displayed for branches in
// the "bq" command output.
var bqDefaultAttrs = []string{"repository", ".id", "commit_sha"}

// bqCommandAction is the action handler for the "bq" subcommand. It lists the
// branches of one repository, or of every repository of the user when --repo
// is not given.
func bqCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "bq"

	return NewQueryActionRunner(
		"bq",
		bqDefaultAttrs,
		func(ctx context.Context, cmd *cli.Command) ([]*github.Branch, error) {
			client, user, err := initGitHubQuery(ctx, cmd)
			if err != nil {
				return nil, err
			}

			repos := []string{cmd.String("repo")}
			if repos[0] == "" {
				all, err := client.Repositories(ctx, user)
				if err != nil {
					return nil, err
				}
				repos = repos[:0]
				for _, r := range all {
					repos = append(repos, r.Name)
				}
				log.Debugf("walking repositories: user=%s, count=%d", user, len(repos))
			}

			var branches []github.Branch
			for _, repo := range repos {
				b, err := client.Branches(ctx, user, repo)
				if err != nil {
					return nil, err
				}
				branches = append(branches, b...)
			}
			return pointers(branches), nil
		},
	).Run(ctx, cmd)
}

// bqCommandBuilder constructs the cli.Command for "bq", wiring metadata,
// flags, and action handlers.
func bqCommandBuilder(meta meta.Meta) *cli.Command {
	flags := append(NewGitHubFlags("bq", meta.Config.Source),
		newConfigFlag("bq", meta.Config.Source, &cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "repository to list. Lists every repository when empty",
		}),
	)

	return (&QueryCommandBuilder{
		Name:      "bq",
		Usage:     "GitHub branch query",
		UsageText: "kmsctl bq [user] [options]",
		Flags:     flags,
		Action:    bqCommandAction,
		Meta:      meta,
	}).Build()
}
