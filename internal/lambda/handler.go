// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"

	"github.com/tfctl/kmsctl/internal/aws"
	"github.com/tfctl/kmsctl/internal/inventory"
	"github.com/tfctl/kmsctl/internal/log"
	"github.com/tfctl/kmsctl/internal/report"
)

// Environment variable names.
const (
	EnvRoleARN    = "TARGET_ROLE_ARN"
	EnvBucket     = "S3_BUCKET"
	EnvPrefix     = "S3_KEY_PREFIX"
	EnvRegion     = "REGION"
	EnvAggregator = "AGGREGATOR_NAME"
	EnvMode       = "REPORT_MODE"
)

// Config is the function configuration.
type Config struct {
	RoleARN    string
	Bucket     string
	Prefix     string
	Region     string
	Aggregator string
	Mode       string
}

// ConfigFromEnv reads Config through getenv, applying defaults.
func ConfigFromEnv(getenv func(string) string) Config {
	c := Config{
		RoleARN:    getenv(EnvRoleARN),
		Bucket:     getenv(EnvBucket),
		Prefix:     getenv(EnvPrefix),
		Region:     getenv(EnvRegion),
		Aggregator: getenv(EnvAggregator),
		Mode:       getenv(EnvMode),
	}
	if c.Prefix == "" {
		c.Prefix = report.DefaultPrefix
	}
	if c.Mode == "" {
		c.Mode = inventory.DefaultMode(c.Aggregator)
	}
	return c
}

// Body is the JSON body of a successful invocation.
type Body struct {
	Message  string `json:"message"`
	// Rows counts keys read successfully; Failed counts id-only rows.
	Rows     int    `json:"rows"`
	Failed   int    `json:"failed"`
	S3Bucket string `json:"s3_bucket"`
	S3Key    string `json:"s3_key"`
}

// Deps are the collaborators a Handler needs. Zero fields are filled with
// the real AWS implementations.
type Deps struct {
	LoadConfig func(ctx context.Context, opts ...aws.Option) (awsv2.Config, error)
	Verify     func(ctx context.Context, cfg awsv2.Config) error
	Inventory  func(cfg awsv2.Config) inventory.Client
	Uploader   func(cfg awsv2.Config) report.PutObjectAPI
	Now        func() time.Time
}

// Handler serves invocations.
type Handler struct {
	Config Config
	Deps   Deps
}

// NewHandler returns a Handler configured from the process environment.
func NewHandler() *Handler {
	return &Handler{Config: ConfigFromEnv(os.Getenv)}
}

func (h *Handler) deps() Deps {
	d := h.Deps
	if d.LoadConfig == nil {
		d.LoadConfig = aws.LoadAWSConfig
	}
	if d.Verify == nil {
		d.Verify = aws.VerifyCredentials
	}
	if d.Inventory == nil {
		d.Inventory = func(cfg awsv2.Config) inventory.Client { return aws.NewConfigService(cfg) }
	}
	if d.Uploader == nil {
		d.Uploader = func(cfg awsv2.Config) report.PutObjectAPI { return aws.NewS3(cfg) }
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Handle runs one report. Failures are reported through the status code;
// the returned error is always nil so the invocation itself succeeds.
func (h *Handler) Handle(ctx context.Context, _ json.RawMessage) (events.APIGatewayProxyResponse, error) {
	c := h.Config
	d := h.deps()

	if c.Bucket == "" {
		return respond(http.StatusBadRequest, fmt.Sprintf("Missing %s environment variable", EnvBucket)), nil
	}

	var regionOpts []aws.Option
	if c.Region != "" {
		regionOpts = append(regionOpts, aws.WithRegion(c.Region))
	}

	baseCfg, err := d.LoadConfig(ctx, regionOpts...)
	if err != nil {
		return failure("Error loading AWS config", err), nil
	}

	targetCfg := baseCfg
	if c.RoleARN != "" {
		targetCfg, err = d.LoadConfig(ctx, append(regionOpts, aws.WithAssumeRole(c.RoleARN))...)
		if err == nil {
			err = d.Verify(ctx, targetCfg)
		}
		if err != nil {
			return failure("Error assuming role", err), nil
		}
		log.Infof("role assumed: role=%s", c.RoleARN)
	}

	src, err := inventory.New(c.Mode, d.Inventory(targetCfg), c.Aggregator)
	if err != nil {
		return respond(http.StatusBadRequest, err.Error()), nil
	}

	r, err := report.Build(ctx, src, d.Now())
	if err != nil {
		return failure("Error reading resources", err), nil
	}

	key, err := report.NewUploader(d.Uploader(baseCfg)).Publish(ctx, r, c.Bucket, c.Prefix)
	if err != nil {
		return failure("Error uploading to S3", err), nil
	}

	body, err := json.Marshal(Body{
		Message:  "CSV created",
		Rows:     r.Fetched,
		Failed:   r.Failed,
		S3Bucket: c.Bucket,
		S3Key:    key,
	})
	if err != nil {
		return failure("Error encoding response", err), nil
	}
	return respond(http.StatusOK, string(body)), nil
}

func respond(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}

func failure(what string, err error) events.APIGatewayProxyResponse {
	log.Errorf("%s: %v", what, err)
	return respond(http.StatusInternalServerError, fmt.Sprintf("%s: %v", what, err))
}
