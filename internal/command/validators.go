// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/kmsctl/internal/attrs"
	"github.com/tfctl/kmsctl/internal/filters"
	"github.com/tfctl/kmsctl/internal/inventory"
	"github.com/tfctl/kmsctl/internal/output"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// GlobalFlagsValidator checks the flags whose syntax is only known once all
// of them are parsed.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	var al attrs.AttrList
	if err := al.Set(c.String("attrs")); err != nil {
		return fmt.Errorf("--attrs: %w", err)
	}
	return nil
}

func OutputValidator(value any) error {
	if s, ok := value.(string); ok && slices.Contains(output.Formats, s) {
		return nil
	}
	return fmt.Errorf("must be one of %v", output.Formats)
}

func FilterValidator(value any) error {
	s, _ := value.(string)
	_, err := filters.BuildFilters(s)
	return err
}

func ModeValidator(value any) error {
	s, _ := value.(string)
	if s == "" || slices.Contains(inventory.Modes, strings.ToLower(s)) {
		return nil
	}
	return fmt.Errorf("must be one of %v", inventory.Modes)
}
