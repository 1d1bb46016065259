// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/kmsctl/internal/github"
	"github.com/tfctl/kmsctl/internal/report"
)

// newSchemaFlag returns a fresh --schema flag. Flags hold parsed state, so
// commands do not share instances.
func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the schema",
		HideDefault: true,
	}
}

// NewGlobalFlags returns the output flags every query command carries.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
			Validator: func(value string) error {
				return FlagValidators(value, FilterValidator)
			},
		},
		&cli.BoolFlag{
			Name:    "local",
			Aliases: []string{"l"},
			Usage:   "show local timestamps",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.IntFlag{
			Name:  "padding",
			Usage: "spaces between text output columns",
			Value: 2,
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
		},
		&cli.BoolFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Value:   false,
		},
	}

	return
}

// newConfigFlag builds a string flag that reads, in order, the command line,
// the env vars and then ns.<name> and <name> from the config file at path.
func newConfigFlag(ns, path string, flag *cli.StringFlag, envs ...string) *cli.StringFlag {
	flag.Sources = cli.EnvVars(envs...)
	if path != "" {
		flag = NameSpacedValueChainFlagFromConfigFile(ns, path, flag)
	}
	return flag
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// NewAWSFlags returns the flags that shape the AWS configuration.
func NewAWSFlags(ns, path string) []cli.Flag {
	return []cli.Flag{
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "profile",
			Usage: "shared config profile",
		}, "AWS_PROFILE"),
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "region",
			Usage: "region to query, overriding the profile",
		}, "KMSCTL_REGION"),
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "role",
			Usage: "role ARN to assume before reading AWS Config",
		}, "KMSCTL_ROLE"),
	}
}

// NewInventoryFlags returns the flags selecting the AWS Config source and
// the report destination.
func NewInventoryFlags(ns, path string) []cli.Flag {
	return []cli.Flag{
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "aggregator",
			Usage: "configuration aggregator name",
		}, "KMSCTL_AGGREGATOR"),
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "bucket",
			Usage: "S3 bucket to upload the CSV report to",
		}, "KMSCTL_BUCKET"),
		&cli.BoolFlag{
			Name:  "csv",
			Usage: "write the CSV report instead of formatted output",
		},
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "mode",
			Usage: "source mode: config, aggregator or query. Defaults to aggregator when --aggregator is set",
			Validator: func(value string) error {
				return FlagValidators(value, ModeValidator)
			},
		}),
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "prefix",
			Usage: "object key prefix for the uploaded report",
			Value: report.DefaultPrefix,
		}, "KMSCTL_PREFIX"),
	}
}

// NewGitHubFlags returns the flags shared by the GitHub commands.
func NewGitHubFlags(ns, path string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "ask-token",
			Usage: "prompt for the API token on the terminal",
		},
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "base-url",
			Usage: "API base URL, for GitHub Enterprise",
		}, "KMSCTL_GITHUB_URL"),
		&cli.IntFlag{
			Name:    "per-page",
			Usage:   "results requested per API page",
			Value:   github.DefaultPerPage,
			Sources: cli.EnvVars("KMSCTL_GITHUB_PER_PAGE"),
		},
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:  "token",
			Usage: "API token. Anonymous when empty",
		}, github.EnvToken),
		newConfigFlag(ns, path, &cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "user whose repositories are listed",
		}, "GITHUB_USER"),
	}
}
