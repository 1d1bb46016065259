// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	cfgsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	cfgtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"

	"github.com/tfctl/kmsctl/internal/log"
)

// AggregatorAPI is the subset of the AWS Config client used by
// AggregatorSource.
type AggregatorAPI interface {
	ListAggregateDiscoveredResources(ctx context.Context, params *cfgsvc.ListAggregateDiscoveredResourcesInput, optFns ...func(*cfgsvc.Options)) (*cfgsvc.ListAggregateDiscoveredResourcesOutput, error)
	GetAggregateResourceConfig(ctx context.Context, params *cfgsvc.GetAggregateResourceConfigInput, optFns ...func(*cfgsvc.Options)) (*cfgsvc.GetAggregateResourceConfigOutput, error)
}

// AggregatorSource reads KMS keys from every account and region feeding a
// configuration aggregator.
type AggregatorSource struct {
	Client     AggregatorAPI
	Aggregator string
}

// NewAggregatorSource returns an AggregatorSource over client.
func NewAggregatorSource(client AggregatorAPI, aggregator string) *AggregatorSource {
	return &AggregatorSource{Client: client, Aggregator: aggregator}
}

// Name implements Source.
func (s *AggregatorSource) Name() string { return "aggregator" }

// Each implements Source.
func (s *AggregatorSource) Each(ctx context.Context, fn func(Item) error) error {
	paginator := cfgsvc.NewListAggregateDiscoveredResourcesPaginator(s.Client, &cfgsvc.ListAggregateDiscoveredResourcesInput{
		ConfigurationAggregatorName: awsv2.String(s.Aggregator),
		ResourceType:                ResourceType,
	})

	page := 0
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list aggregate discovered resources for %s: %w", s.Aggregator, err)
		}
		page++
		log.Debugf("aggregate resources page: aggregator=%s, page=%d, count=%d", s.Aggregator, page, len(out.ResourceIdentifiers))

		for i := range out.ResourceIdentifiers {
			if err := fn(s.fetch(ctx, &out.ResourceIdentifiers[i])); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *AggregatorSource) fetch(ctx context.Context, ri *cfgtypes.AggregateResourceIdentifier) Item {
	id := awsv2.ToString(ri.ResourceId)
	failed := func(err error) Item {
		return Item{
			ID:           id,
			ResourceType: string(ri.ResourceType),
			AccountID:    awsv2.ToString(ri.SourceAccountId),
			Region:       awsv2.ToString(ri.SourceRegion),
			Err:          err,
		}
	}

	out, err := s.Client.GetAggregateResourceConfig(ctx, &cfgsvc.GetAggregateResourceConfigInput{
		ConfigurationAggregatorName: awsv2.String(s.Aggregator),
		ResourceIdentifier:          ri,
	})
	if err != nil {
		return failed(fmt.Errorf("failed to get aggregate config for %s: %w", id, err))
	}
	if out.ConfigurationItem == nil {
		return failed(fmt.Errorf("%s: %w", id, ErrNoHistory))
	}
	return fromConfigurationItem(out.ConfigurationItem, id)
}
