// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package attrs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tfctl/kmsctl/internal/log"
)

// Attr is one output column. Key addresses the value inside a JSON:API
// resource object: "attributes.<name>" for attributes, "id" for the primary
// key.
type Attr struct {
	Key string `yaml:"key" json:"Key"`
	// Include is false for attrs used only to filter or sort.
	Include bool `yaml:"include" json:"Include"`
	// OutputKey names the value in output and titles the column.
	OutputKey     string `yaml:"outputKey" json:"OutputKey"`
	TransformSpec string `yaml:"transformSpec" json:"TransformSpec"`
}

var widthRegex = regexp.MustCompile(`-?\d+`)

// Transform applies the attr's transform spec to a string value. Other
// values are returned untouched. Spec letters: l/L lower, u/U upper (the
// last one wins), t local time, T time ago. A number truncates to that
// width; a negative number elides the middle.
func (a *Attr) Transform(value any) any {
	s, ok := value.(string)
	if !ok || a.TransformSpec == "" {
		return value
	}
	spec := a.TransformSpec

	if strings.ContainsAny(spec, "tT") {
		s = transformTime(s, strings.Contains(spec, "T"))
	}

	lower := strings.LastIndexAny(spec, "lL")
	upper := strings.LastIndexAny(spec, "uU")
	switch {
	case lower > upper:
		s = strings.ToLower(s)
	case upper > lower:
		s = strings.ToUpper(s)
	}

	if widths := widthRegex.FindAllString(spec, -1); len(widths) > 0 {
		// The last width overrides any global one prepended before it.
		w, _ := strconv.Atoi(widths[len(widths)-1])
		s = clip(s, w)
	}

	log.Tracef("transform: key=%s, spec=%s, result=%s", a.Key, spec, s)
	return s
}

// transformTime renders an RFC 3339 timestamp in the local zone, or as a
// relative time. Anything unparsable is returned as is.
func transformTime(s string, ago bool) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	if ago {
		return humanize.Time(t)
	}
	return t.Local().Format("2006-01-02T15:04:05MST")
}

// clip shortens s to |w| bytes. A negative w keeps both ends around "..".
func clip(s string, w int) string {
	abs := w
	if abs < 0 {
		abs = -abs
	}
	if len(s) <= abs {
		return s
	}
	if w >= 0 {
		return s[:w]
	}
	side := (abs - 2) / 2
	if side < 1 {
		return s[:abs]
	}
	return s[:side] + ".." + s[len(s)-side:]
}

// AttrList is the ordered set of columns to emit.
type AttrList []Attr

// Set parses a comma separated --attrs value. Each spec is
// key[:outputKey[:transform]]. A leading ! hides the attr; a leading . reads
// from the resource root instead of its attributes; "*" carries a global
// transform. Specs naming an existing attr update it in place.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	for _, spec := range strings.Split(value, ",") {
		fields := strings.Split(spec, ":")
		attr := Attr{Include: true, Key: strings.TrimSpace(fields[0])}

		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		if attr.Key == "" {
			return fmt.Errorf("empty attr key in %q", spec)
		}
		if attr.Key == "*" {
			attr.Include = false
		}

		switch {
		case len(fields) == 1:
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		case strings.TrimSpace(fields[1]) != "":
			attr.OutputKey = strings.TrimSpace(fields[1])
		default:
			attr.OutputKey = attr.Key
		}
		if len(fields) > 2 {
			attr.TransformSpec = strings.TrimSpace(fields[2])
		}

		if i := a.index(attr.Key); i >= 0 {
			(*a)[i].Include = attr.Include
			(*a)[i].OutputKey = attr.OutputKey
			(*a)[i].TransformSpec = attr.TransformSpec
			continue
		}

		switch {
		case strings.HasPrefix(attr.Key, "."):
			attr.Key = attr.Key[1:]
		case attr.Key != "*":
			attr.Key = "attributes." + attr.Key
		}
		*a = append(*a, attr)
	}

	log.Debugf("attrs set: attrs=%s", a.String())
	return nil
}

// index finds an attr by the name a user would type for it.
func (a *AttrList) index(name string) int {
	for i, attr := range *a {
		if attr.OutputKey == name || attr.Key == name ||
			attr.Key == "attributes."+name || "."+attr.Key == name {
			return i
		}
	}
	return -1
}

// SetGlobalTransformSpec prepends the "*" attr's transform to every attr.
func (a *AttrList) SetGlobalTransformSpec() error {
	spec := ""
	for _, attr := range *a {
		if attr.Key == "*" {
			spec = attr.TransformSpec
			break
		}
	}
	if spec == "" {
		return nil
	}

	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}
	return nil
}

// Titles returns the output keys of the included attrs.
func (a AttrList) Titles() []string {
	titles := make([]string, 0, len(a))
	for _, attr := range a {
		if attr.Include {
			titles = append(titles, attr.OutputKey)
		}
	}
	return titles
}

// String renders the list in Set's syntax, with resolved keys.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Type implements flag.Value.
func (a *AttrList) Type() string { return "list" }
