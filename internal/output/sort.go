// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"cmp"
	"slices"
	"strings"
)

// sortKey is one comma separated --sort term: "-" sorts descending and "!"
// compares strings case-sensitively.
type sortKey struct {
	field         string
	descending    bool
	caseSensitive bool
}

func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key := sortKey{}
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			key.descending = true
		}
		if strings.HasPrefix(field, "!") {
			field = field[1:]
			key.caseSensitive = true
		}
		key.field = field
		keys = append(keys, key)
	}
	return keys
}

// SortDataset orders rows in place by spec, stably. Numbers compare
// numerically when both sides are numbers; everything else compares as text.
func SortDataset(resultSet []map[string]interface{}, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	slices.SortStableFunc(resultSet, func(one, two map[string]interface{}) int {
		for _, key := range keys {
			c := compareValues(one[key.field], two[key.field], key.caseSensitive)
			if c == 0 {
				continue
			}
			if key.descending {
				return -c
			}
			return c
		}
		return 0
	})
}

func compareValues(one, two interface{}, caseSensitive bool) int {
	oneNum, oneOk := one.(float64)
	twoNum, twoOk := two.(float64)
	if oneOk && twoOk {
		return cmp.Compare(oneNum, twoNum)
	}

	oneStr := InterfaceToString(one)
	twoStr := InterfaceToString(two)
	if !caseSensitive {
		oneStr = strings.ToLower(oneStr)
		twoStr = strings.ToLower(twoStr)
	}
	return strings.Compare(oneStr, twoStr)
}
