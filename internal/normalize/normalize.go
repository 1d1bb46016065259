// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Header is the CSV header, in Row.Strings order.
var Header = []string{"id", "configuration_summary", "type", "size_bits", "creation_date", "application"}

// Row is the flat, exportable form of one KMS key.
type Row struct {
	ID                   string `jsonapi:"primary,kms-keys"`
	ConfigurationSummary string `jsonapi:"attr,configuration_summary"`
	Type                 string `jsonapi:"attr,type"`
	SizeBits             *int   `jsonapi:"attr,size_bits,omitempty"`
	CreationDate         string `jsonapi:"attr,creation_date"`
	Application          string `jsonapi:"attr,application"`
}

// Strings returns the row cells in Header order. An unknown size is an empty
// cell, never zero.
func (r Row) Strings() []string {
	size := ""
	if r.SizeBits != nil {
		size = strconv.Itoa(*r.SizeBits)
	}
	return []string{r.ID, r.ConfigurationSummary, r.Type, size, r.CreationDate, r.Application}
}

// Normalize turns one record into exactly one Row. A nil record produces a
// row carrying only the id. captureTime is the configuration item capture
// time used when the record has no creation date.
func Normalize(rec *Record, id string, captureTime string) Row {
	row := Row{ID: id}
	if rec == nil {
		return row
	}

	row.ConfigurationSummary = BuildConfigurationSummary(rec)
	row.Type = DeriveType(rec)
	if bits, ok := DeriveSizeBits(text(rec.KeySpec)); ok {
		row.SizeBits = &bits
	}
	row.CreationDate = DeriveCreationDate(rec, captureTime)
	row.Application = ExtractApplication(rec)

	return row
}

// DeriveType returns the first non-empty of key spec, key usage and key
// manager.
func DeriveType(rec *Record) string {
	if rec == nil {
		return ""
	}
	for _, v := range []gjson.Result{rec.KeySpec, rec.KeyUsage, rec.KeyManager} {
		if s := text(v); s != "" {
			return s
		}
	}
	return ""
}

var keySpecBits = map[string]int{
	"RSA_2048":          2048,
	"RSA_3072":          3072,
	"RSA_4096":          4096,
	"ECC_NIST_P256":     256,
	"ECC_NIST_P384":     384,
	"ECC_NIST_P521":     521,
	"ECC_SECG_P256K1":   256,
	"SYMMETRIC_DEFAULT": 256,
	"AES_256":           256,
	"AES_128":           128,
}

// DeriveSizeBits maps a key spec to its size in bits. ok is false for an
// empty or unrecognized spec.
func DeriveSizeBits(keySpec string) (bits int, ok bool) {
	bits, ok = keySpecBits[keySpec]
	return bits, ok
}

// DeriveCreationDate renders the record's creation date. Numbers are Unix
// epoch seconds and come back as RFC 3339 UTC; strings pass through. Zero and
// "" count as absent, in which case fallbackCaptureTime is returned as is.
func DeriveCreationDate(rec *Record, fallbackCaptureTime string) string {
	if rec != nil {
		cd := rec.CreationDate
		switch cd.Type {
		case gjson.Number:
			if cd.Num != 0 {
				return epochToRFC3339(cd)
			}
		case gjson.String:
			if cd.Str != "" {
				return cd.Str
			}
		case gjson.True:
			// true is epoch 1; false is zero and so absent.
			return time.Unix(1, 0).UTC().Format(time.RFC3339)
		case gjson.JSON:
			return cd.String()
		}
	}
	return fallbackCaptureTime
}

// RFC 3339 years run 0000 through 9999.
var (
	minEpoch = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxEpoch = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// epochToRFC3339 formats epoch seconds. A value outside the years RFC 3339
// can express is returned as the raw number.
func epochToRFC3339(v gjson.Result) string {
	if v.Num < float64(minEpoch) || v.Num >= float64(maxEpoch+1) {
		return v.Raw
	}
	if !strings.ContainsAny(v.Raw, ".eE") {
		return time.Unix(v.Int(), 0).UTC().Format(time.RFC3339)
	}
	sec, frac := math.Modf(v.Num)
	nsec := int64(math.Round(frac * 1e9))
	if nsec >= 1e9 {
		sec, nsec = sec+1, 0
	}
	return time.Unix(int64(sec), nsec).UTC().Format(time.RFC3339Nano)
}

// descriptionTokens are tried in this order; the first one present wins.
var descriptionTokens = []string{"application=", "application:", "app=", "app:"}

// ExtractApplication finds the owning application of a key: an
// application-like tag first, then an "application=..." style token in the
// free-text description. The description fallback is best-effort.
func ExtractApplication(rec *Record) string {
	if rec == nil {
		return ""
	}

	if app := rec.Tags.application(); app != "" {
		return app
	}

	if rec.Description.Type != gjson.String {
		return ""
	}
	desc := rec.Description.Str
	lower := asciiLower(desc)

	for _, token := range descriptionTokens {
		idx := strings.Index(lower, token)
		if idx < 0 {
			continue
		}
		rest := desc[idx+len(token):]
		if end := strings.IndexAny(rest, ",;"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}

// asciiLower lowercases A-Z only so byte offsets line up with the original.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// BuildConfigurationSummary renders the allowlisted fields as a compact JSON
// object in fixed key order. A nil record yields "".
func BuildConfigurationSummary(rec *Record) string {
	if rec == nil {
		return ""
	}

	fields := []struct {
		name  string
		value gjson.Result
	}{
		{"keyId", rec.KeyID},
		{"arn", rec.Arn},
		{"keyState", rec.KeyState},
		{"keySpec", rec.KeySpec},
		{"keyUsage", rec.KeyUsage},
		{"origin", rec.Origin},
		{"description", rec.Description},
		{"keyManager", rec.KeyManager},
		{"tags", rec.Tags.Raw},
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	for _, f := range fields {
		if !f.value.Exists() || f.value.Type == gjson.Null {
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		key, _ := json.Marshal(f.name)
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, []byte(f.value.Raw)); err != nil {
			quoted, _ := json.Marshal(f.value.String())
			buf.Write(quoted)
		}
	}
	buf.WriteByte('}')

	return buf.String()
}
