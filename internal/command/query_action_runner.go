// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/kmsctl/internal/log"
)

// QueryActionRunner[T] encapsulates the common query action pattern: meta,
// schema dumping, attrs and output emission around the command specific
// FetchFn. T is the struct type; FetchFn returns pointers to it.
type QueryActionRunner[T any] struct {
	CommandName  string
	DefaultAttrs []string
	FetchFn      func(context.Context, *cli.Command) ([]*T, error)
}

// Run executes the query action with the provided context and command.
func (qar *QueryActionRunner[T]) Run(
	ctx context.Context,
	cmd *cli.Command,
) error {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("executing action: command=%s, args=%v", qar.CommandName, m.Args[1:])
	}

	if DumpSchemaIfRequested(cmd, reflect.TypeFor[T]()) {
		return nil
	}

	al, err := BuildAttrs(cmd, qar.DefaultAttrs...)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al.String())

	results, err := qar.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}
	// A nil slice is emitted as "data": null.
	if results == nil {
		results = []*T{}
	}

	return EmitJSONAPISlice(results, al, cmd)
}

// NewQueryActionRunner creates a QueryActionRunner with the provided
// configuration.
func NewQueryActionRunner[T any](
	commandName string,
	defaultAttrs []string,
	fetchFn func(context.Context, *cli.Command) ([]*T, error),
) *QueryActionRunner[T] {
	return &QueryActionRunner[T]{
		CommandName:  commandName,
		DefaultAttrs: defaultAttrs,
		FetchFn:      fetchFn,
	}
}
