// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package normalize

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustParse parses a JSON configuration or fails the test.
func mustParse(t *testing.T, doc string) *Record {
	t.Helper()
	rec, err := ParseRecord([]byte(doc))
	require.NoError(t, err)
	return rec
}

func TestDeriveSizeBits(t *testing.T) {
	tests := []struct {
		spec   string
		want   int
		wantOK bool
	}{
		{"RSA_2048", 2048, true},
		{"RSA_3072", 3072, true},
		{"RSA_4096", 4096, true},
		{"ECC_NIST_P256", 256, true},
		{"ECC_NIST_P384", 384, true},
		{"ECC_NIST_P521", 521, true},
		{"ECC_SECG_P256K1", 256, true},
		{"SYMMETRIC_DEFAULT", 256, true},
		{"AES_256", 256, true},
		{"AES_128", 128, true},
		{"", 0, false},
		{"HMAC_256", 0, false},
		{"rsa_2048", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, ok := DeriveSizeBits(tt.spec)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveType(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "key spec first", doc: `{"keySpec":"RSA_4096","keyUsage":"SIGN_VERIFY","keyManager":"CUSTOMER"}`, want: "RSA_4096"},
		{name: "capitalized spec", doc: `{"KeySpec":"ECC_NIST_P384"}`, want: "ECC_NIST_P384"},
		{name: "usage second", doc: `{"keyUsage":"ENCRYPT_DECRYPT","keyManager":"AWS"}`, want: "ENCRYPT_DECRYPT"},
		{name: "empty spec skipped", doc: `{"keySpec":"","KeyUsage":"GENERATE_VERIFY_MAC"}`, want: "GENERATE_VERIFY_MAC"},
		{name: "manager only", doc: `{"keyManager":"AWS"}`, want: "AWS"},
		{name: "capitalized manager only", doc: `{"KeyManager":"CUSTOMER"}`, want: "CUSTOMER"},
		{name: "none", doc: `{"keyId":"abc"}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveType(mustParse(t, tt.doc)))
		})
	}

	assert.Equal(t, "", DeriveType(nil))
}

func TestDeriveCreationDate(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		fallback string
		want     string
	}{
		{name: "epoch seconds", doc: `{"creationDate":1609459200}`, want: "2021-01-01T00:00:00Z"},
		{name: "fractional epoch", doc: `{"creationDate":1609459200.25}`, want: "2021-01-01T00:00:00.25Z"},
		{name: "string passthrough", doc: `{"creationDate":"2020-05-01T10:00:00.000Z"}`, fallback: "ignored", want: "2020-05-01T10:00:00.000Z"},
		{name: "capitalized alias", doc: `{"CreationDate":"Jan 2 2020"}`, want: "Jan 2 2020"},
		{name: "fallback to capture time", doc: `{"keyId":"k"}`, fallback: "2024-02-03T04:05:06.789Z", want: "2024-02-03T04:05:06.789Z"},
		{name: "empty string uses fallback", doc: `{"creationDate":""}`, fallback: "cap", want: "cap"},
		{name: "zero uses fallback", doc: `{"creationDate":0}`, fallback: "cap", want: "cap"},
		{name: "true is epoch one", doc: `{"creationDate":true}`, fallback: "cap", want: "1970-01-01T00:00:01Z"},
		{name: "false uses fallback", doc: `{"creationDate":false}`, fallback: "cap", want: "cap"},
		{name: "last representable second", doc: `{"creationDate":253402300799}`, want: "9999-12-31T23:59:59Z"},
		{name: "year 10000 kept raw", doc: `{"creationDate":253402300800}`, want: "253402300800"},
		{name: "huge exponent kept raw", doc: `{"creationDate":1e20}`, want: "1e20"},
		{name: "huger exponent kept raw", doc: `{"creationDate":1e300}`, want: "1e300"},
		{name: "before year zero kept raw", doc: `{"creationDate":-1e15}`, want: "-1e15"},
		{name: "negative epoch", doc: `{"creationDate":-86400}`, want: "1969-12-31T00:00:00Z"},
		{name: "nothing", doc: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCreationDate(mustParse(t, tt.doc), tt.fallback))
		})
	}

	assert.Equal(t, "cap", DeriveCreationDate(nil, "cap"))
}

func TestDeriveCreationDate_RoundTrip(t *testing.T) {
	epochs := []float64{0.5, 1, 86400, 1609459200, 1700000000.123456789, 4102444800}

	for _, epoch := range epochs {
		rec := RecordFromMap(map[string]any{"creationDate": epoch})
		got := DeriveCreationDate(rec, "")

		parsed, err := time.Parse(time.RFC3339Nano, got)
		require.NoError(t, err, "got %q", got)
		assert.Equal(t, time.UTC, parsed.Location())

		back := float64(parsed.UnixNano()) / 1e9
		assert.True(t, math.Abs(back-epoch) < 1e-6, "epoch %v came back as %v", epoch, back)
	}
}

func TestExtractApplication(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "map exact", doc: `{"tags":{"Application":"billing","owner":"ops"}}`, want: "billing"},
		{name: "map candidate order", doc: `{"tags":{"owner":"ops","App":"web"}}`, want: "web"},
		{name: "map capital Tags field", doc: `{"Tags":{"app":"search"}}`, want: "search"},
		{name: "map key any case", doc: `{"tags":{"APP":"checkout"}}`, want: "checkout"},
		{name: "map key any case priority", doc: `{"tags":{"OWNER":"ops","APPLICATION":"ledger"}}`, want: "ledger"},
		{name: "value case kept", doc: `{"tags":{"Owner":"Team-X"}}`, want: "Team-X"},
		{name: "list lowercase fields", doc: `{"tags":[{"key":"env","value":"prod"},{"key":"Owner","value":"team-x"}]}`, want: "team-x"},
		{name: "list capitalized fields", doc: `{"tags":[{"Key":"APPLICATION","Value":"Payments"}]}`, want: "Payments"},
		{name: "list order wins over priority", doc: `{"tags":[{"key":"owner","value":"ops"},{"key":"application","value":"web"}]}`, want: "ops"},
		{name: "list missing key skipped", doc: `{"tags":[{"value":"x"},{"key":"app","value":"api"}]}`, want: "api"},
		{name: "description equals", doc: `{"description":"owner: x; application=PaymentsService, tier=2"}`, want: "PaymentsService"},
		{name: "description colon", doc: `{"description":"Key for App: Reporting ; rotated"}`, want: "Reporting"},
		{name: "description token order", doc: `{"description":"app=first application:second"}`, want: "second"},
		{name: "description case kept", doc: `{"Description":"APPLICATION=MixedCase"}`, want: "MixedCase"},
		{name: "description to end", doc: `{"description":"app= trailing  "}`, want: "trailing"},
		{name: "description non string", doc: `{"description":42}`, want: ""},
		{name: "empty tag falls back to description", doc: `{"tags":{"Application":""},"description":"app=fallback"}`, want: "fallback"},
		{name: "tags beat description", doc: `{"tags":[{"key":"app","value":"tagged"}],"description":"app=described"}`, want: "tagged"},
		{name: "nothing", doc: `{"keyId":"abc"}`, want: ""},
		{name: "no tags no description", doc: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractApplication(mustParse(t, tt.doc)))
		})
	}

	assert.Equal(t, "", ExtractApplication(nil))
}

func TestBuildConfigurationSummary(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "fixed order and allowlist",
			doc: `{"origin":"AWS_KMS","keyId":"k-1","policy":"dropped","keySpec":"RSA_2048",
			       "tags":[{"key":"Owner","value":"team-x"}]}`,
			want: `{"keyId":"k-1","keySpec":"RSA_2048","origin":"AWS_KMS","tags":[{"key":"Owner","value":"team-x"}]}`,
		},
		{
			name: "aliases emitted canonically",
			doc:  `{"KeyState":"Enabled","Arn":"arn:aws:kms:us-east-1:111122223333:key/k"}`,
			want: `{"arn":"arn:aws:kms:us-east-1:111122223333:key/k","keyState":"Enabled"}`,
		},
		{
			name: "empty object",
			doc:  `{}`,
			want: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildConfigurationSummary(mustParse(t, tt.doc))
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)))
		})
	}

	assert.Equal(t, "", BuildConfigurationSummary(nil))
}

func TestRecordFromMap_Coercion(t *testing.T) {
	rec := RecordFromMap(map[string]any{
		"keyId":       "k-9",
		"description": make(chan int),
		"keySpec":     "AES_128",
	})
	require.NotNil(t, rec)

	summary := BuildConfigurationSummary(rec)
	assert.True(t, json.Valid([]byte(summary)))
	assert.Contains(t, summary, `"keyId":"k-9"`)
	assert.Contains(t, summary, `"description":"0x`)
	assert.Equal(t, "AES_128", DeriveType(rec))

	assert.Nil(t, RecordFromMap(nil))
}

func TestParseRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"python literal", `{'keySpec': 'RSA_2048'}`},
		{"truncated", `{"keySpec":`},
		{"array", `[1,2]`},
		{"string", `"hello"`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord([]byte(tt.raw))
			assert.Error(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("end to end", func(t *testing.T) {
		rec := mustParse(t, `{"keySpec":"RSA_2048","tags":[{"key":"Owner","value":"team-x"}]}`)
		row := Normalize(rec, "key-1", "")

		cells := row.Strings()
		require.Len(t, cells, len(Header))
		assert.Equal(t, "key-1", cells[0])
		assert.Contains(t, cells[1], `"keySpec":"RSA_2048"`)
		assert.Equal(t, "RSA_2048", cells[2])
		assert.Equal(t, "2048", cells[3])
		assert.Equal(t, "", cells[4])
		assert.Equal(t, "team-x", cells[5])
	})

	t.Run("null record", func(t *testing.T) {
		row := Normalize(nil, "key-2", "2024-01-01T00:00:00Z")
		assert.Equal(t, []string{"key-2", "", "", "", "", ""}, row.Strings())
	})

	t.Run("unknown size is empty not zero", func(t *testing.T) {
		row := Normalize(mustParse(t, `{"keyUsage":"ENCRYPT_DECRYPT"}`), "key-3", "")
		assert.Nil(t, row.SizeBits)
		assert.Equal(t, "", row.Strings()[3])
	})

	t.Run("capture time fallback", func(t *testing.T) {
		row := Normalize(mustParse(t, `{"keySpec":"SYMMETRIC_DEFAULT"}`), "key-4", "2023-07-04T12:00:00Z")
		assert.Equal(t, "2023-07-04T12:00:00Z", row.CreationDate)
		require.NotNil(t, row.SizeBits)
		assert.Equal(t, 256, *row.SizeBits)
	})
}

func TestRecord_WithTags(t *testing.T) {
	extra := parseTagsJSON(t, `[{"key":"app","value":"from-select"}]`)

	bare := mustParse(t, `{"keySpec":"AES_256"}`)
	assert.Equal(t, "from-select", ExtractApplication(bare.WithTags(extra)))
	assert.True(t, bare.Tags.Empty(), "receiver must not be modified")

	own := mustParse(t, `{"tags":{"app":"own"}}`)
	assert.Equal(t, "own", ExtractApplication(own.WithTags(extra)))

	var none *Record
	assert.Nil(t, none.WithTags(extra))
}
