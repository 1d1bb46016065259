// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/urfave/cli/v3"

	"github.com/tfctl/kmsctl/internal/aws"
	"github.com/tfctl/kmsctl/internal/config"
	"github.com/tfctl/kmsctl/internal/inventory"
	"github.com/tfctl/kmsctl/internal/log"
	"github.com/tfctl/kmsctl/internal/meta"
	"github.com/tfctl/kmsctl/internal/normalize"
	"github.com/tfctl/kmsctl/internal/report"
)

// kqDefaultAttrs specifies the default attributes displayed for keys in the
// "kq" command output.
var kqDefaultAttrs = []string{".id", "type", "size_bits", "application", "creation_date"}

// kqClients builds the AWS collaborators of kq. Tests swap them for fakes.
var kqClients = struct {
	LoadConfig func(ctx context.Context, opts ...aws.Option) (awsv2.Config, error)
	Verify     func(ctx context.Context, cfg awsv2.Config) error
	Inventory  func(cfg awsv2.Config) inventory.Client
	Uploader   func(cfg awsv2.Config) report.PutObjectAPI
	Now        func() time.Time
}{
	LoadConfig: aws.LoadAWSConfig,
	Verify:     aws.VerifyCredentials,
	Inventory:  func(cfg awsv2.Config) inventory.Client { return aws.NewConfigService(cfg) },
	Uploader:   func(cfg awsv2.Config) report.PutObjectAPI { return aws.NewS3(cfg) },
	Now:        time.Now,
}

// kqCommandAction is the action handler for the "kq" subcommand. It walks the
// KMS keys recorded by AWS Config, optionally uploads the CSV report and
// emits the rows per common flags, or as CSV with --csv.
func kqCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "kq"

	if cmd.Bool("csv") && !cmd.Bool("schema") {
		r, err := kqReport(ctx, cmd)
		if err != nil {
			return err
		}
		return report.WriteCSV(writer(cmd), r.Rows)
	}

	return NewQueryActionRunner(
		"kq",
		kqDefaultAttrs,
		func(ctx context.Context, cmd *cli.Command) ([]*normalize.Row, error) {
			r, err := kqReport(ctx, cmd)
			if err != nil {
				return nil, err
			}
			return pointers(r.Rows), nil
		},
	).Run(ctx, cmd)
}

// kqReport resolves the AWS configuration, builds the report from the
// selected source and uploads it when --bucket is set.
func kqReport(ctx context.Context, cmd *cli.Command) (*report.Report, error) {
	var opts []aws.Option
	if profile := cmd.String("profile"); profile != "" {
		opts = append(opts, aws.WithProfile(profile))
	}
	if region := cmd.String("region"); region != "" {
		opts = append(opts, aws.WithRegion(region))
	}

	baseCfg, err := kqClients.LoadConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Config is read as the assumed role; the report is written with the
	// caller's own credentials.
	targetCfg := baseCfg
	if role := cmd.String("role"); role != "" {
		targetCfg, err = kqClients.LoadConfig(ctx, append(opts, aws.WithAssumeRole(role))...)
		if err == nil {
			err = kqClients.Verify(ctx, targetCfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to assume role %s: %w", role, err)
		}
		log.Debugf("role assumed: role=%s", role)
	}

	src, err := inventory.New(cmd.String("mode"), kqClients.Inventory(targetCfg), cmd.String("aggregator"))
	if err != nil {
		return nil, err
	}

	r, err := report.Build(ctx, src, kqClients.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to read resources: %w", err)
	}

	if bucket := cmd.String("bucket"); bucket != "" {
		key, err := report.NewUploader(kqClients.Uploader(baseCfg)).Publish(ctx, r, bucket, cmd.String("prefix"))
		if err != nil {
			return nil, err
		}
		if cmd.Metadata == nil {
			cmd.Metadata = map[string]any{}
		}
		cmd.Metadata["footer"] = fmt.Sprintf("uploaded s3://%s/%s", bucket, key)
	}

	return r, nil
}

// kqCommandBuilder constructs the cli.Command for "kq", wiring metadata,
// flags, and action handlers.
func kqCommandBuilder(meta meta.Meta) *cli.Command {
	flags := append(NewAWSFlags("kq", meta.Config.Source), NewInventoryFlags("kq", meta.Config.Source)...)

	return (&QueryCommandBuilder{
		Name:      "kq",
		Usage:     "KMS key query",
		UsageText: "kmsctl kq [options]",
		Flags:     flags,
		Action:    kqCommandAction,
		Meta:      meta,
	}).Build()
}
