// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	cfgsvc "github.com/aws/aws-sdk-go-v2/service/configservice"

	"github.com/tfctl/kmsctl/internal/log"
)

// ConfigAPI is the subset of the AWS Config client used by ConfigSource.
type ConfigAPI interface {
	ListDiscoveredResources(ctx context.Context, params *cfgsvc.ListDiscoveredResourcesInput, optFns ...func(*cfgsvc.Options)) (*cfgsvc.ListDiscoveredResourcesOutput, error)
	GetResourceConfigHistory(ctx context.Context, params *cfgsvc.GetResourceConfigHistoryInput, optFns ...func(*cfgsvc.Options)) (*cfgsvc.GetResourceConfigHistoryOutput, error)
}

// ConfigSource reads KMS keys from the recorder of the account the client
// is authenticated against.
type ConfigSource struct {
	Client ConfigAPI
}

// NewConfigSource returns a ConfigSource over client.
func NewConfigSource(client ConfigAPI) *ConfigSource {
	return &ConfigSource{Client: client}
}

// Name implements Source.
func (s *ConfigSource) Name() string { return "config" }

// Each implements Source. The latest configuration of each resource comes
// from its history, limited to one item.
func (s *ConfigSource) Each(ctx context.Context, fn func(Item) error) error {
	paginator := cfgsvc.NewListDiscoveredResourcesPaginator(s.Client, &cfgsvc.ListDiscoveredResourcesInput{
		ResourceType: ResourceType,
	})

	page := 0
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list discovered resources: %w", err)
		}
		page++
		log.Debugf("discovered resources page: page=%d, count=%d", page, len(out.ResourceIdentifiers))

		for _, ri := range out.ResourceIdentifiers {
			id := awsv2.ToString(ri.ResourceId)
			if err := fn(s.latest(ctx, id)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ConfigSource) latest(ctx context.Context, id string) Item {
	out, err := s.Client.GetResourceConfigHistory(ctx, &cfgsvc.GetResourceConfigHistoryInput{
		ResourceType: ResourceType,
		ResourceId:   awsv2.String(id),
		Limit:        awsv2.Int32(1),
	})
	if err != nil {
		return Item{ID: id, ResourceType: string(ResourceType), Err: fmt.Errorf("failed to get config history for %s: %w", id, err)}
	}
	if len(out.ConfigurationItems) == 0 {
		return Item{ID: id, ResourceType: string(ResourceType), Err: fmt.Errorf("%s: %w", id, ErrNoHistory)}
	}
	return fromConfigurationItem(&out.ConfigurationItems[0], id)
}
