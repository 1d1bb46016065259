// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(\[(\d+|\*)?\])?$`)

// Drill navigates a parsed document using a dot path. A segment may carry an
// index ("tags[1]"); a bare list with a single element is unwrapped, a longer
// list without an index is returned whole.
func Drill(current gjson.Result, path string) gjson.Result {
	if path == "" {
		return current
	}

	for _, segment := range strings.Split(path, ".") {
		matches := segmentRegex.FindStringSubmatch(segment)
		if matches == nil {
			return gjson.Result{}
		}

		// gjson treats some characters in keys as syntax, so escape the key.
		val := current.Get(gjson.Escape(matches[1]))

		index := -1
		if matches[3] != "" && matches[3] != "*" {
			i, err := strconv.Atoi(matches[3])
			if err != nil {
				return gjson.Result{}
			}
			index = i
		}

		if val.IsArray() {
			arr := val.Array()
			switch {
			case index == -1:
				if len(arr) == 1 && matches[3] != "*" {
					val = arr[0]
				}
			case index < len(arr):
				val = arr[index]
			default:
				return gjson.Result{}
			}
		}

		current = val
	}

	return current
}

// First returns the value of the first alias path that exists in doc, and
// the alias that matched. Aliases are tried in order; a JSON null counts as
// missing. Lists are returned whole, even with a single element.
func First(doc gjson.Result, aliases ...string) (gjson.Result, string) {
	for _, alias := range aliases {
		if v := Drill(doc, alias+"[*]"); v.Exists() && v.Type != gjson.Null {
			return v, alias
		}
	}
	return gjson.Result{}, ""
}

// Aliases returns name followed by its capitalized form, the two spellings
// AWS Config uses for the same field.
func Aliases(name string) []string {
	if name == "" {
		return nil
	}
	capitalized := strings.ToUpper(name[:1]) + name[1:]
	if capitalized == name {
		return []string{name}
	}
	return []string{name, capitalized}
}
