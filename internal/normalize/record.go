// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/tfctl/kmsctl/internal/driller"
)

// ErrNotObject is returned by ParseRecord when the payload is valid JSON but
// not an object.
var ErrNotObject = errors.New("configuration is not a JSON object")

// Record is the typed view of one KMS configuration item. Every field is
// resolved once from its canonical name or capitalized alias; a field that was
// absent (or JSON null) does not Exist.
type Record struct {
	KeyID        gjson.Result
	Arn          gjson.Result
	KeyState     gjson.Result
	KeySpec      gjson.Result
	KeyUsage     gjson.Result
	Origin       gjson.Result
	Description  gjson.Result
	KeyManager   gjson.Result
	CreationDate gjson.Result
	Tags         Tags
}

// ParseRecord decodes a configuration payload. Only a JSON object is
// accepted.
func ParseRecord(raw []byte) (*Record, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid configuration JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, ErrNotObject
	}
	return fromDocument(doc), nil
}

// RecordFromMap builds a Record from an untyped map. Values that cannot be
// JSON encoded are replaced by their fmt string form.
func RecordFromMap(m map[string]any) *Record {
	if m == nil {
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	safe := make(map[string]json.RawMessage, len(m))
	for _, k := range keys {
		safe[k] = encodeLenient(m[k])
	}

	raw, err := json.Marshal(safe)
	if err != nil {
		// Every value is already valid JSON, so this is unreachable in practice.
		return &Record{}
	}
	return fromDocument(gjson.ParseBytes(raw))
}

// WithTags returns a copy of r carrying tags when r has none of its own.
func (r *Record) WithTags(tags Tags) *Record {
	if r == nil || !r.Tags.Empty() || tags.Empty() {
		return r
	}
	out := *r
	out.Tags = tags
	return &out
}

func fromDocument(doc gjson.Result) *Record {
	field := func(name string) gjson.Result {
		v, _ := driller.First(doc, driller.Aliases(name)...)
		return v
	}

	return &Record{
		KeyID:        field("keyId"),
		Arn:          field("arn"),
		KeyState:     field("keyState"),
		KeySpec:      field("keySpec"),
		KeyUsage:     field("keyUsage"),
		Origin:       field("origin"),
		Description:  field("description"),
		KeyManager:   field("keyManager"),
		CreationDate: field("creationDate"),
		Tags:         ParseTags(field("tags")),
	}
}

// encodeLenient JSON encodes v, falling back to its string form.
func encodeLenient(v any) json.RawMessage {
	if raw, err := json.Marshal(v); err == nil {
		return raw
	}
	raw, _ := json.Marshal(fmt.Sprint(v))
	return raw
}

// text returns the string form of a scalar field, or "" when absent.
func text(v gjson.Result) string {
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}
