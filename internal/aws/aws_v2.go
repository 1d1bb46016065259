// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	cfgsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/tfctl/kmsctl/internal/log"
)

const (
	// RoleSessionName identifies assumed-role sessions in CloudTrail.
	RoleSessionName = "crossaccount-config-reader"

	// RoleSessionDuration is the lifetime of assumed-role credentials.
	RoleSessionDuration = 900 * time.Second
)

// options holds optional overrides for AWS config loading.
type options struct {
	profile string
	region  string
	roleARN string
}

// Option customizes how AWS config is loaded.
// Default behavior (no options) inherits the shell environment and shared
// config chain (AWS_PROFILE, ~/.aws/config, ~/.aws/credentials, IMDS, etc.).
type Option func(*options)

// LoadAWSConfig loads AWS SDK v2 config. By default it inherits the shell's
// AWS setup (AWS_PROFILE, shared config, env, IMDS). With WithAssumeRole the
// returned config carries cached credentials for the target role, obtained
// with the base chain.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log.Debugf("opts applied: profile=%s, region=%s, role=%s", o.profile, o.region, o.roleARN)

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	log.Debugf("loadOpts built: len=%d", len(loadOpts))

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Debugf("config load err: err=%v", err)
		return awsv2.Config{}, err
	}

	if o.roleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), o.roleARN,
			func(aro *stscreds.AssumeRoleOptions) {
				aro.RoleSessionName = RoleSessionName
				aro.Duration = RoleSessionDuration
			})
		cfg.Credentials = awsv2.NewCredentialsCache(provider)
		log.Debugf("assume role provider installed: role=%s", o.roleARN)
	}

	log.Debugf("config loaded")
	return cfg, nil
}

// CallerIdentityAPI is the slice of STS used to confirm an identity.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// VerifyCredentials retrieves credentials and asks STS who they belong to.
// With an assumed role this is where the AssumeRole call happens, so a bad
// role fails here instead of on the first service call.
func VerifyCredentials(ctx context.Context, cfg awsv2.Config) error {
	return verifyCredentials(ctx, cfg, NewSTS(cfg))
}

func verifyCredentials(ctx context.Context, cfg awsv2.Config, client CallerIdentityAPI) error {
	if cfg.Credentials == nil {
		return fmt.Errorf("no credentials provider configured")
	}
	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return err
	}
	log.Debugf("credentials retrieved: source=%s, expires=%v", creds.Source, creds.Expires)

	id, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("failed to get caller identity: %w", err)
	}
	if awsv2.ToString(id.Account) == "" {
		return fmt.Errorf("caller identity has no account")
	}
	log.Infof("caller identity: account=%s, arn=%s", awsv2.ToString(id.Account), awsv2.ToString(id.Arn))
	return nil
}

// NewS3 constructs a v2 S3 client from the provided config. Additional service
// options can be supplied via optFns.
func NewS3(cfg awsv2.Config, optFns ...func(*s3v2.Options)) *s3v2.Client {
	client := s3v2.NewFromConfig(cfg, optFns...)
	log.Debugf("s3 client created")
	return client
}

// NewConfigService constructs an AWS Config client.
func NewConfigService(cfg awsv2.Config, optFns ...func(*cfgsvc.Options)) *cfgsvc.Client {
	client := cfgsvc.NewFromConfig(cfg, optFns...)
	log.Debugf("config service client created: region=%s", cfg.Region)
	return client
}

// NewSTS constructs an STS client.
func NewSTS(cfg awsv2.Config, optFns ...func(*sts.Options)) *sts.Client {
	client := sts.NewFromConfig(cfg, optFns...)
	log.Debugf("sts client created")
	return client
}

// WithProfile sets the shared config profile. Defaults to AWS_PROFILE/env chain.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override. Defaults to env/profile/metadata chain.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithAssumeRole makes the loaded config act as roleARN. Empty is a no-op.
func WithAssumeRole(roleARN string) Option {
	return func(o *options) { o.roleARN = roleARN }
}
