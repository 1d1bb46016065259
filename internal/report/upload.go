// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"github.com/tfctl/kmsctl/internal/log"
)

// PutObjectAPI is the subset of the S3 client used by Uploader.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// Uploader writes report objects to S3.
type Uploader struct {
	Client PutObjectAPI
}

// NewUploader returns an Uploader over client.
func NewUploader(client PutObjectAPI) *Uploader {
	return &Uploader{Client: client}
}

// Upload stores body at bucket/key as CSV.
func (u *Uploader) Upload(ctx context.Context, bucket, key string, body []byte) error {
	_, err := u.Client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:      awsv2.String(bucket),
		Key:         awsv2.String(key),
		Body:        bytes.NewReader(body),
		ContentType: awsv2.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", bucket, key, err)
	}

	log.Infof("report uploaded: bucket=%s, key=%s, size=%s", bucket, key, humanize.Bytes(uint64(len(body))))
	return nil
}

// Publish encodes r and uploads it under prefix, returning the object key.
func (u *Uploader) Publish(ctx context.Context, r *Report, bucket, prefix string) (string, error) {
	body, err := r.CSV()
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	key := ObjectKey(prefix, Segment(r.Source), r.CreatedAt)
	if err := u.Upload(ctx, bucket, key, body); err != nil {
		return "", err
	}
	return key, nil
}
