// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfctl/kmsctl/internal/inventory"
	"github.com/tfctl/kmsctl/internal/normalize"
)

// staticSource replays a fixed set of items, then returns err.
type staticSource struct {
	name  string
	items []inventory.Item
	err   error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Each(_ context.Context, fn func(inventory.Item) error) error {
	for _, it := range s.items {
		if err := fn(it); err != nil {
			return err
		}
	}
	return s.err
}

var buildTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestBuild(t *testing.T) {
	src := staticSource{name: "config", items: []inventory.Item{
		{
			ID:            "key-1",
			Configuration: []byte(`{"keySpec":"RSA_2048","tags":[{"key":"Owner","value":"team-x"}]}`),
		},
		{ID: "key-2", Err: errors.New("boom")},
		{
			ID:            "key-3",
			Configuration: []byte(`{"keySpec":"AES_128"}`),
			Tags:          []byte(`{"Application":"from-item"}`),
			CaptureTime:   "2024-01-01T00:00:00Z",
		},
		{ID: "key-4", Configuration: []byte(`not json`), CaptureTime: "2024-02-02T00:00:00Z"},
		{ID: "key-5", CaptureTime: "2023-06-01T00:00:00Z"},
	}}

	r, err := Build(context.Background(), src, buildTime)
	require.NoError(t, err)

	assert.Equal(t, "config", r.Source)
	assert.Equal(t, buildTime, r.CreatedAt)
	assert.Equal(t, 4, r.Fetched)
	assert.Equal(t, 1, r.Failed)
	require.Len(t, r.Rows, 5)

	one := r.Rows[0].Strings()
	assert.Equal(t, "key-1", one[0])
	assert.Contains(t, one[1], `"keySpec":"RSA_2048"`)
	assert.Equal(t, []string{"RSA_2048", "2048", "", "team-x"}, one[2:])

	assert.Equal(t, []string{"key-2", "", "", "", "", ""}, r.Rows[1].Strings())

	three := r.Rows[2]
	assert.Equal(t, "from-item", three.Application)
	assert.Equal(t, "2024-01-01T00:00:00Z", three.CreationDate)

	// Unreadable configuration is not a failed fetch: capture time survives.
	assert.Equal(t, []string{"key-4", "{}", "", "", "2024-02-02T00:00:00Z", ""}, r.Rows[3].Strings())

	// A missing configuration still yields the capture time.
	assert.Equal(t, "{}", r.Rows[4].ConfigurationSummary)
	assert.Equal(t, "2023-06-01T00:00:00Z", r.Rows[4].CreationDate)
}

func TestBuild_EnumerationError(t *testing.T) {
	src := staticSource{
		name:  "aggregator",
		items: []inventory.Item{{ID: "key-1", Configuration: []byte(`{}`)}},
		err:   errors.New("list failed"),
	}

	r, err := Build(context.Background(), src, buildTime)
	assert.ErrorContains(t, err, "list failed")
	assert.Nil(t, r)
}

func TestReport_CSV(t *testing.T) {
	size := 2048
	r := &Report{Rows: []normalize.Row{
		{
			ID:                   "key-1",
			ConfigurationSummary: `{"keySpec":"RSA_2048","description":"a, b"}`,
			Type:                 "RSA_2048",
			SizeBits:             &size,
			Application:          "team-x",
		},
		{ID: "key-2"},
	}}

	body, err := r.CSV()
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"id", "configuration_summary", "type", "size_bits", "creation_date", "application"}, records[0])
	assert.Equal(t, r.Rows[0].Strings(), records[1])
	assert.Equal(t, []string{"key-2", "", "", "", "", ""}, records[2])
}

func TestReport_CSVEmpty(t *testing.T) {
	body, err := (&Report{}).CSV()
	require.NoError(t, err)
	assert.Equal(t, "id,configuration_summary,type,size_bits,creation_date,application\n", string(body))
}

func TestReadCSV(t *testing.T) {
	size := 2048
	written := []normalize.Row{
		{
			ID:                   "key-1",
			ConfigurationSummary: `{"keySpec":"RSA_2048","description":"a, b"}`,
			Type:                 "RSA_2048",
			SizeBits:             &size,
			CreationDate:         "2023-11-14T22:13:20Z",
			Application:          "team-x",
		},
		{ID: "key-2"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, written))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, written, rows)
}

func TestReadCSV_Variants(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []normalize.Row
		wantErr error
	}{
		{
			name: "reordered columns and BOM",
			body: "\ufeffapplication,id,extra\nbilling,key-3,x\n",
			want: []normalize.Row{{ID: "key-3", Application: "billing"}},
		},
		{
			name: "header only",
			body: "id,type\n",
			want: nil,
		},
		{
			name:    "empty",
			body:    "",
			wantErr: ErrEmptyReport,
		},
		{
			name:    "no id column",
			body:    "type,size_bits\nRSA_2048,2048\n",
			wantErr: ErrBadReport,
		},
		{
			name:    "bad size",
			body:    "id,size_bits\nkey-1,big\n",
			wantErr: ErrBadReport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadCSV(bytes.NewBufferString(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		segment string
		want    string
	}{
		{"default prefix", DefaultPrefix, "kms-config", "kms-reports/kms-config-20240102T030405Z.csv"},
		{"no trailing slash", "reports", "kms-aggregator", "reports/kms-aggregator-20240102T030405Z.csv"},
		{"many trailing slashes", "a/b///", "kms-query", "a/b/kms-query-20240102T030405Z.csv"},
		{"empty prefix", "", "kms-config", "kms-config-20240102T030405Z.csv"},
		{"slash only", "/", "kms-config", "kms-config-20240102T030405Z.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.prefix, tt.segment, buildTime))
		})
	}

	local := buildTime.In(time.FixedZone("UTC+2", 2*60*60))
	assert.Equal(t, "kms-config-20240102T030405Z.csv", ObjectKey("", "kms-config", local))
}

func TestSegment(t *testing.T) {
	assert.Equal(t, "kms-config", Segment("config"))
	assert.Equal(t, "kms-aggregator", Segment("aggregator"))
	assert.Equal(t, "kms-query", Segment("query"))
}

// fakeS3 records PutObject calls.
type fakeS3 struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = awsv2.ToString(in.Bucket)
	f.key = awsv2.ToString(in.Key)
	f.contentType = awsv2.ToString(in.ContentType)
	f.body, _ = io.ReadAll(in.Body)
	return &s3v2.PutObjectOutput{}, nil
}

func TestUploader_Publish(t *testing.T) {
	fake := &fakeS3{}
	r := &Report{Source: "query", CreatedAt: buildTime, Rows: []normalize.Row{{ID: "key-1"}}}

	key, err := NewUploader(fake).Publish(context.Background(), r, "bucket-a", "kms-reports/")
	require.NoError(t, err)

	assert.Equal(t, "kms-reports/kms-query-20240102T030405Z.csv", key)
	assert.Equal(t, "bucket-a", fake.bucket)
	assert.Equal(t, key, fake.key)
	assert.Equal(t, "text/csv; charset=utf-8", fake.contentType)
	assert.Equal(t, "id,configuration_summary,type,size_bits,creation_date,application\nkey-1,,,,,\n", string(fake.body))
}

func TestUploader_Error(t *testing.T) {
	fake := &fakeS3{err: errors.New("AccessDenied")}

	err := NewUploader(fake).Upload(context.Background(), "bucket-a", "k.csv", []byte("x"))
	assert.ErrorContains(t, err, "AccessDenied")
	assert.ErrorContains(t, err, "s3://bucket-a/k.csv")
}
