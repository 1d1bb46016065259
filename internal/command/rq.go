// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/tfctl/kmsctl/internal/config"
	"github.com/tfctl/kmsctl/internal/github"
	"github.com/tfctl/kmsctl/internal/meta"
)

// rqDefaultAttrs specifies the default attributes displayed for repositories
// in the "rq" command output.
var rqDefaultAttrs = []string{".id", "clone_url", "ssh_url"}

// ErrNoUser is returned when neither an argument nor --user names a user.
var ErrNoUser = errors.New("a GitHub user is required, as an argument or with --user")

// rqCommandAction is the action handler for the "rq" subcommand. It lists the
// repositories of a user and emits them per common flags.
func rqCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "rq"

	return NewQueryActionRunner(
		"rq",
		rqDefaultAttrs,
		func(ctx context.Context, cmd *cli.Command) ([]*github.Repository, error) {
			client, user, err := initGitHubQuery(ctx, cmd)
			if err != nil {
				return nil, err
			}
			repos, err := client.Repositories(ctx, user)
			if err != nil {
				return nil, err
			}
			return pointers(repos), nil
		},
	).Run(ctx, cmd)
}

// initGitHubQuery resolves the user and builds the API client from flags.
func initGitHubQuery(ctx context.Context, cmd *cli.Command) (*github.Client, string, error) {
	user := cmd.Args().First()
	if user == "" {
		user = cmd.String("user")
	}
	if user == "" {
		return nil, "", ErrNoUser
	}

	token := cmd.String("token")
	if cmd.Bool("ask-token") {
		var err error
		if token, err = promptToken(os.Stdin, os.Stderr); err != nil {
			return nil, "", err
		}
	}

	opts := []github.Option{github.WithPerPage(int(cmd.Int("per-page")))}
	if base := cmd.String("base-url"); base != "" {
		opts = append(opts, github.WithBaseURL(base))
	}

	client, err := github.NewClient(ctx, token, opts...)
	if err != nil {
		return nil, "", err
	}
	return client, user, nil
}

// promptToken reads a token from the terminal without echoing it.
func promptToken(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--ask-token needs a terminal")
	}

	fmt.Fprint(out, "GitHub token: ")
	defer fmt.Fprintln(out)

	b, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// rqCommandBuilder constructs the cli.Command for "rq", wiring metadata,
// flags, and action handlers.
func rqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "rq",
		Usage:     "GitHub repository query",
		UsageText: "kmsctl rq [user] [options]",
		Flags:     NewGitHubFlags("rq", meta.Config.Source),
		Action:    rqCommandAction,
		Meta:      meta,
	}).Build()
}
