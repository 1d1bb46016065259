// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tfctl/kmsctl/internal/attrs"
	"github.com/tfctl/kmsctl/internal/driller"
	"github.com/tfctl/kmsctl/internal/log"
)

// EnvDelim overrides the "," separating filter expressions, for values that
// contain commas.
const EnvDelim = "KMSCTL_FILTER_DELIM"

// filterRegex splits an expression into key, optionally negated operator and
// target.
var filterRegex = regexp.MustCompile(`^([^!=^~<>@/]*)(!?[=^~<>@/])?(.*)$`)

// Filter is one parsed expression. An empty Operand tests that the key holds
// a non-empty value.
type Filter struct {
	Key     string `yaml:"key" json:"Key"`
	Negate  bool   `yaml:"negate" json:"Negate"`
	Operand string `yaml:"operand" json:"Operand"`
	Value   string `yaml:"value" json:"Value"`
}

func (f Filter) String() string {
	op := f.Operand
	if f.Negate {
		op = "!" + op
	}
	return f.Key + op + f.Value
}

// BuildFilters parses a filter spec. Blank expressions are ignored; an
// expression without a key, or with a bad regex, is an error.
func BuildFilters(spec string) ([]Filter, error) {
	var filters []Filter
	if strings.TrimSpace(spec) == "" {
		return filters, nil
	}

	delim := ","
	if d, ok := os.LookupEnv(EnvDelim); ok && d != "" {
		delim = d
	}

	for _, expr := range strings.Split(spec, delim) {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}

		parts := filterRegex.FindStringSubmatch(expr)
		key := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("invalid filter %q: empty key", expr)
		}
		if parts[2] == "" && parts[3] != "" {
			return nil, fmt.Errorf("invalid filter %q: missing operator", expr)
		}

		f := Filter{
			Key:     key,
			Negate:  strings.HasPrefix(parts[2], "!"),
			Operand: strings.TrimPrefix(parts[2], "!"),
			Value:   parts[3],
		}
		if f.Operand == "/" {
			if _, err := regexp.Compile(f.Value); err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
			}
		}
		filters = append(filters, f)
	}

	log.Debugf("filters built: filters=%v", filters)
	return filters, nil
}

// FilterDataset keeps the candidates matching every filter and projects each
// onto attrs, keyed by OutputKey. Transforms are left to the caller.
func FilterDataset(candidates gjson.Result, al attrs.AttrList, filters []Filter) []map[string]any {
	var results []map[string]any

	for _, candidate := range candidates.Array() {
		if !Match(candidate, al, filters) {
			continue
		}

		row := make(map[string]any, len(al))
		for _, attr := range al {
			if attr.Key == "*" {
				continue
			}
			row[attr.OutputKey] = driller.Drill(candidate, attr.Key).Value()
		}
		results = append(results, row)
	}

	return results
}

// Match reports whether candidate satisfies every filter. A filter key is
// resolved through attrs by output key, then as an attribute name.
func Match(candidate gjson.Result, al attrs.AttrList, filters []Filter) bool {
	for _, f := range filters {
		if !f.match(driller.Drill(candidate, resolveKey(al, f.Key))) {
			return false
		}
	}
	return true
}

func resolveKey(al attrs.AttrList, key string) string {
	for _, attr := range al {
		if attr.OutputKey == key && attr.Key != "*" {
			return attr.Key
		}
	}
	if key == "id" || strings.HasPrefix(key, ".") {
		return strings.TrimPrefix(key, ".")
	}
	return "attributes." + key
}

// match applies f to one value. Missing and null values never match a
// positive test.
func (f Filter) match(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return f.Negate && f.Operand != ""
	}

	var result bool
	switch {
	case f.Operand == "":
		return v.String() != ""
	case v.Type == gjson.Number && isNumericOperand(f.Operand):
		result = f.numeric(v.Num)
	case v.IsArray() || v.IsObject():
		result = f.contains(v)
	default:
		result = f.text(v.String())
	}

	return result != f.Negate
}

func isNumericOperand(op string) bool {
	return op == "=" || op == "<" || op == ">"
}

func (f Filter) numeric(value float64) bool {
	target, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
	if err != nil {
		return f.text(strconv.FormatFloat(value, 'f', -1, 64))
	}
	switch f.Operand {
	case "=":
		return value == target
	case "<":
		return value < target
	default:
		return value > target
	}
}

// contains handles @ against arrays (element equality) and objects (key
// presence). Other operands compare the raw JSON text.
func (f Filter) contains(v gjson.Result) bool {
	if f.Operand != "@" {
		return f.text(v.Raw)
	}
	if v.IsObject() {
		return v.Get(gjson.Escape(f.Value)).Exists()
	}
	for _, item := range v.Array() {
		if item.String() == f.Value {
			return true
		}
	}
	return false
}

func (f Filter) text(value string) bool {
	switch f.Operand {
	case "=":
		return value == f.Value
	case "~":
		return strings.EqualFold(value, f.Value)
	case "^":
		return strings.HasPrefix(value, f.Value)
	case "<":
		return value < f.Value
	case ">":
		return value > f.Value
	case "@":
		return strings.Contains(value, f.Value)
	case "/":
		matched, err := regexp.MatchString(f.Value, value)
		return err == nil && matched
	}
	return false
}
