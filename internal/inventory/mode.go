// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// Source modes.
const (
	ModeConfig     = "config"
	ModeAggregator = "aggregator"
	ModeQuery      = "query"
)

// Modes lists the accepted modes.
var Modes = []string{ModeConfig, ModeAggregator, ModeQuery}

var (
	ErrUnknownMode        = errors.New("unknown source mode")
	ErrAggregatorRequired = errors.New("aggregator name is required")
)

// Client is satisfied by the AWS Config client and serves every mode.
type Client interface {
	ConfigAPI
	AggregatorAPI
	QueryAPI
}

// DefaultMode picks aggregator when an aggregator is named, else config.
func DefaultMode(aggregator string) string {
	if aggregator != "" {
		return ModeAggregator
	}
	return ModeConfig
}

// New builds the Source for mode. An empty mode falls back to DefaultMode.
func New(mode string, client Client, aggregator string) (Source, error) {
	if mode == "" {
		mode = DefaultMode(aggregator)
	}

	switch strings.ToLower(mode) {
	case ModeConfig:
		return NewConfigSource(client), nil
	case ModeAggregator:
		if aggregator == "" {
			return nil, fmt.Errorf("%s mode: %w", ModeAggregator, ErrAggregatorRequired)
		}
		return NewAggregatorSource(client, aggregator), nil
	case ModeQuery:
		if aggregator == "" {
			return nil, fmt.Errorf("%s mode: %w", ModeQuery, ErrAggregatorRequired)
		}
		return NewQuerySource(client, aggregator), nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownMode, mode, strings.Join(Modes, ", "))
}
