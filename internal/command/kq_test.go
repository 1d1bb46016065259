// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	cfgsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tfctl/kmsctl/internal/aws"
	"github.com/tfctl/kmsctl/internal/inventory"
	"github.com/tfctl/kmsctl/internal/report"
)

var selectRows = []string{
	`{"resourceId":"key-1","configuration":{"keySpec":"RSA_2048","tags":[{"key":"Owner","value":"team-x"}]},"configurationItemCaptureTime":"2024-01-02T03:04:05Z"}`,
	`{"resourceId":"key-2","configuration":{"keySpec":"ECC_NIST_P256","description":"app=billing"},"configurationItemCaptureTime":"2024-01-02T03:04:05Z"}`,
	`not json`,
}

// fakeSelect serves one page of aggregator select results.
type fakeSelect struct {
	inventory.Client
	rows []string
	err  error
}

func (f *fakeSelect) SelectAggregateResourceConfig(context.Context, *cfgsvc.SelectAggregateResourceConfigInput, ...func(*cfgsvc.Options)) (*cfgsvc.SelectAggregateResourceConfigOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &cfgsvc.SelectAggregateResourceConfigOutput{Results: f.rows}, nil
}

type fakePut struct {
	bucket string
	key    string
	body   []byte
	err    error
}

func (f *fakePut) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = awsv2.ToString(in.Bucket)
	f.key = awsv2.ToString(in.Key)
	f.body, _ = io.ReadAll(in.Body)
	return &s3v2.PutObjectOutput{}, nil
}

// kqStub records how kq used its AWS collaborators.
type kqStub struct {
	loads    int
	verifies int
}

func stubKQ(t *testing.T, inv inventory.Client, put report.PutObjectAPI, verifyErr error) *kqStub {
	t.Helper()
	saved := kqClients
	t.Cleanup(func() { kqClients = saved })

	stub := &kqStub{}
	kqClients.LoadConfig = func(context.Context, ...aws.Option) (awsv2.Config, error) {
		stub.loads++
		return awsv2.Config{}, nil
	}
	kqClients.Verify = func(context.Context, awsv2.Config) error {
		stub.verifies++
		return verifyErr
	}
	kqClients.Inventory = func(awsv2.Config) inventory.Client { return inv }
	kqClients.Uploader = func(awsv2.Config) report.PutObjectAPI { return put }
	kqClients.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return stub
}

func TestKQ_JSON(t *testing.T) {
	isolate(t)
	stubKQ(t, &fakeSelect{rows: selectRows}, &fakePut{}, nil)

	out, err := runApp(t, "kq", "--mode", "query", "--aggregator", "org", "-o", "json", "-s", "id")
	require.NoError(t, err)

	rows := gjson.Parse(out).Array()
	require.Len(t, rows, 3)

	assert.Equal(t, "key-1", rows[0].Get("id").String())
	assert.Equal(t, "RSA_2048", rows[0].Get("type").String())
	assert.Equal(t, int64(2048), rows[0].Get("size_bits").Int())
	assert.Equal(t, "team-x", rows[0].Get("application").String())
	assert.Equal(t, "2024-01-02T03:04:05Z", rows[0].Get("creation_date").String())

	assert.Equal(t, "billing", rows[1].Get("application").String())
	assert.Equal(t, int64(256), rows[1].Get("size_bits").Int())

	assert.Equal(t, "result-1-2", rows[2].Get("id").String())
	assert.Equal(t, gjson.Null, rows[2].Get("size_bits").Type)
	assert.Equal(t, "", rows[2].Get("type").String())
}

func TestKQ_Filter(t *testing.T) {
	isolate(t)
	stubKQ(t, &fakeSelect{rows: selectRows}, &fakePut{}, nil)

	out, err := runApp(t, "kq", "--mode", "query", "--aggregator", "org", "-o", "json", "-f", "size_bits>1024")
	require.NoError(t, err)

	rows := gjson.Parse(out).Array()
	require.Len(t, rows, 1)
	assert.Equal(t, "key-1", rows[0].Get("id").String())
}

func TestKQ_CSV(t *testing.T) {
	isolate(t)
	stubKQ(t, &fakeSelect{rows: selectRows}, &fakePut{}, nil)

	out, err := runApp(t, "kq", "--mode", "query", "--aggregator", "org", "--csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,configuration_summary,type,size_bits,creation_date,application", lines[0])
	assert.Equal(t, "result-1-2,,,,,", lines[3])
}

func TestKQ_Upload(t *testing.T) {
	isolate(t)
	put := &fakePut{}
	stubKQ(t, &fakeSelect{rows: selectRows}, put, nil)

	out, err := runApp(t, "kq", "--mode", "query", "--aggregator", "org", "--bucket", "reports", "--prefix", "p/")
	require.NoError(t, err)

	assert.Equal(t, "reports", put.bucket)
	assert.Equal(t, "p/kms-query-20240102T030405Z.csv", put.key)
	assert.True(t, strings.HasPrefix(string(put.body), "id,configuration_summary"))
	assert.Contains(t, out, "uploaded s3://reports/p/kms-query-20240102T030405Z.csv")
	assert.Contains(t, out, "key-1")
}

func TestKQ_Role(t *testing.T) {
	isolate(t)

	t.Run("assumed before reading", func(t *testing.T) {
		stub := stubKQ(t, &fakeSelect{rows: selectRows}, &fakePut{}, nil)

		_, err := runApp(t, "kq", "--mode", "query", "--aggregator", "org", "--role", "arn:aws:iam::1:role/r")
		require.NoError(t, err)
		assert.Equal(t, 2, stub.loads)
		assert.Equal(t, 1, stub.verifies)
	})

	t.Run("failure stops the run", func(t *testing.T) {
		inv := &fakeSelect{err: errors.New("must not be called")}
		stubKQ(t, inv, &fakePut{}, errors.New("access denied"))

		_, err := runApp(t, "kq", "--mode", "query", "--aggregator", "org", "--role", "arn:aws:iam::1:role/r")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to assume role")
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("no role no verify", func(t *testing.T) {
		stub := stubKQ(t, &fakeSelect{rows: selectRows}, &fakePut{}, nil)

		_, err := runApp(t, "kq", "--mode", "query", "--aggregator", "org")
		require.NoError(t, err)
		assert.Equal(t, 1, stub.loads)
		assert.Equal(t, 0, stub.verifies)
	})
}

func TestKQ_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name     string
		args     []string
		inv      inventory.Client
		put      *fakePut
		wantErr  error
		contains string
	}{
		{
			name:    "aggregator required",
			args:    []string{"kq", "--mode", "query"},
			inv:     &fakeSelect{},
			wantErr: inventory.ErrAggregatorRequired,
		},
		{
			name:     "enumeration failure",
			args:     []string{"kq", "--mode", "query", "--aggregator", "org"},
			inv:      &fakeSelect{err: errors.New("throttled")},
			contains: "failed to read resources",
		},
		{
			name:     "upload failure",
			args:     []string{"kq", "--mode", "query", "--aggregator", "org", "--bucket", "b"},
			inv:      &fakeSelect{rows: selectRows},
			put:      &fakePut{err: errors.New("denied")},
			contains: "denied",
		},
		{
			name:     "bad mode",
			args:     []string{"kq", "--mode", "sideways"},
			inv:      &fakeSelect{},
			contains: "must be one of",
		},
		{
			name:     "bad filter",
			args:     []string{"kq", "-f", "=x"},
			inv:      &fakeSelect{},
			contains: "empty key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			put := tt.put
			if put == nil {
				put = &fakePut{}
			}
			stubKQ(t, tt.inv, put, nil)

			_, err := runApp(t, tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestKQ_Schema(t *testing.T) {
	isolate(t)
	stub := stubKQ(t, &fakeSelect{}, &fakePut{}, nil)

	out, err := runApp(t, "kq", "--schema")
	require.NoError(t, err)

	for _, attr := range []string{"application", "configuration_summary", "creation_date", "size_bits", "type"} {
		assert.Contains(t, out, attr+"\n")
	}
	assert.Equal(t, 0, stub.loads)
}
