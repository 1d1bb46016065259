// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"slices"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tfctl/kmsctl/internal/driller"
)

// Tag is one resolved key/value pair.
type Tag struct {
	Key   string
	Value string
	// HasValue is false when the pair carried no value (or null).
	HasValue bool
}

// Tags is a tag collection in either of the shapes AWS Config emits: a map of
// tag name to value, or an ordered list of {key, value} pairs. Raw keeps the
// original JSON for the configuration summary.
type Tags struct {
	Map  map[string]gjson.Result
	List []Tag
	Raw  gjson.Result
}

// ParseTags resolves a tags field. Anything other than an object or array
// yields empty Tags.
func ParseTags(v gjson.Result) Tags {
	switch {
	case v.IsObject():
		m := make(map[string]gjson.Result)
		v.ForEach(func(key, value gjson.Result) bool {
			m[key.String()] = value
			return true
		})
		return Tags{Map: m, Raw: v}
	case v.IsArray():
		var list []Tag
		for _, item := range v.Array() {
			if !item.IsObject() {
				continue
			}
			key, _ := driller.First(item, "key", "Key")
			value, _ := driller.First(item, "value", "Value")
			list = append(list, Tag{
				Key:      text(key),
				Value:    text(value),
				HasValue: value.Exists() && value.Type != gjson.Null,
			})
		}
		return Tags{List: list, Raw: v}
	}
	return Tags{}
}

// Empty reports whether no tags field was present.
func (t Tags) Empty() bool {
	return !t.Raw.Exists()
}

// applicationCandidates are the map-shaped tag names consulted, in order.
var applicationCandidates = []string{"Application", "application", "app", "App", "Owner", "owner"}

// applicationKeys are the lowercased tag keys accepted from either shape, in
// priority order.
var applicationKeys = []string{"application", "app", "owner"}

// application returns the value of the first application-like tag. The first
// match wins even when its value is empty.
func (t Tags) application() string {
	if t.Map != nil {
		for _, candidate := range applicationCandidates {
			if v, ok := t.Map[candidate]; ok {
				return text(v)
			}
		}

		// Keys in any other casing, e.g. "APP".
		keys := make([]string, 0, len(t.Map))
		for key := range t.Map {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, want := range applicationKeys {
			for _, key := range keys {
				if strings.ToLower(key) == want {
					return text(t.Map[key])
				}
			}
		}
		return ""
	}

	for _, tag := range t.List {
		if tag.Key == "" {
			continue
		}
		if slices.Contains(applicationKeys, strings.ToLower(tag.Key)) {
			return tag.Value
		}
	}
	return ""
}
