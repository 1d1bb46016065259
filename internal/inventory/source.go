// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	cfgtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
)

// ResourceType is the only resource type this package enumerates.
const ResourceType = cfgtypes.ResourceTypeKmsKey

// ErrNoHistory is carried by an Item whose resource has no recorded
// configuration.
var ErrNoHistory = errors.New("no configuration history")

// Item is one resource visited by a Source. When Err is set only ID (and
// whatever the listing supplied) is meaningful.
type Item struct {
	ID            string
	ARN           string
	ResourceType  string
	AccountID     string
	Region        string
	Configuration []byte
	Tags          []byte
	CaptureTime   string
	Err           error
}

// Source walks KMS keys in a single enumeration. Each returns the first
// enumeration error, or the first error returned by fn. Per-resource failures
// are passed to fn as Items with Err set.
type Source interface {
	Name() string
	Each(ctx context.Context, fn func(Item) error) error
}

// fromConfigurationItem copies a Config item into an Item. id is used when
// the item has no ARN.
func fromConfigurationItem(ci *cfgtypes.ConfigurationItem, id string) Item {
	item := Item{
		ID:           id,
		ARN:          awsv2.ToString(ci.Arn),
		ResourceType: string(ci.ResourceType),
		AccountID:    awsv2.ToString(ci.AccountId),
		Region:       awsv2.ToString(ci.AwsRegion),
		CaptureTime:  formatTime(ci.ConfigurationItemCaptureTime),
	}
	if item.ARN != "" {
		item.ID = item.ARN
	}
	if ci.Configuration != nil {
		item.Configuration = []byte(*ci.Configuration)
	}
	if len(ci.Tags) > 0 {
		// A map[string]string always marshals.
		item.Tags, _ = json.Marshal(ci.Tags)
	}
	return item
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
