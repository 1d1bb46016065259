// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	cfgsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/tidwall/gjson"

	"github.com/tfctl/kmsctl/internal/log"
)

// QueryExpression selects every KMS key known to an aggregator.
const QueryExpression = "SELECT resourceId, resourceName, arn, accountId, awsRegion, " +
	"configuration, tags, configurationItemCaptureTime " +
	"WHERE resourceType = 'AWS::KMS::Key'"

// QueryAPI is the subset of the AWS Config client used by QuerySource.
type QueryAPI interface {
	SelectAggregateResourceConfig(ctx context.Context, params *cfgsvc.SelectAggregateResourceConfigInput, optFns ...func(*cfgsvc.Options)) (*cfgsvc.SelectAggregateResourceConfigOutput, error)
}

// QuerySource reads KMS keys through an aggregator advanced query. Each page
// of results carries full configurations, so there is no per-resource fetch.
type QuerySource struct {
	Client     QueryAPI
	Aggregator string
	Expression string
}

// NewQuerySource returns a QuerySource running QueryExpression.
func NewQuerySource(client QueryAPI, aggregator string) *QuerySource {
	return &QuerySource{Client: client, Aggregator: aggregator, Expression: QueryExpression}
}

// Name implements Source.
func (s *QuerySource) Name() string { return "query" }

// Each implements Source. A result row that is not a JSON object is passed
// on as a failed Item.
func (s *QuerySource) Each(ctx context.Context, fn func(Item) error) error {
	var next *string
	page := 0
	for {
		out, err := s.Client.SelectAggregateResourceConfig(ctx, &cfgsvc.SelectAggregateResourceConfigInput{
			ConfigurationAggregatorName: awsv2.String(s.Aggregator),
			Expression:                  awsv2.String(s.Expression),
			NextToken:                   next,
		})
		if err != nil {
			return fmt.Errorf("failed to select aggregate resource config for %s: %w", s.Aggregator, err)
		}
		page++
		log.Debugf("select page: aggregator=%s, page=%d, count=%d", s.Aggregator, page, len(out.Results))

		for n, raw := range out.Results {
			if err := fn(parseSelectRow(raw, page, n)); err != nil {
				return err
			}
		}

		next = out.NextToken
		if awsv2.ToString(next) == "" {
			return nil
		}
	}
}

// parseSelectRow turns one select result into an Item. page and n locate
// rows that carry no usable id.
func parseSelectRow(raw string, page, n int) Item {
	if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		return Item{
			ID:           fmt.Sprintf("result-%d-%d", page, n),
			ResourceType: string(ResourceType),
			Err:          fmt.Errorf("select result %d on page %d is not a JSON object", n, page),
		}
	}

	row := gjson.Parse(raw)
	item := Item{
		ID:           row.Get("resourceId").String(),
		ARN:          row.Get("arn").String(),
		ResourceType: string(ResourceType),
		AccountID:    row.Get("accountId").String(),
		Region:       row.Get("awsRegion").String(),
		CaptureTime:  row.Get("configurationItemCaptureTime").String(),
	}
	if item.ARN != "" {
		item.ID = item.ARN
	}

	// configuration arrives as an embedded object, or occasionally as a JSON
	// string holding one.
	if conf := row.Get("configuration"); conf.Exists() {
		switch conf.Type {
		case gjson.String:
			item.Configuration = []byte(conf.Str)
		case gjson.JSON:
			item.Configuration = []byte(conf.Raw)
		}
	}
	if tags := row.Get("tags"); tags.IsArray() || tags.IsObject() {
		item.Tags = []byte(tags.Raw)
	}
	return item
}
