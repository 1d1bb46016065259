// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withConfig points KMSCTL_CFG_FILE at a testdata file, loads it and runs fn.
func withConfig(t *testing.T, testFile string, namespace string, fn func(t *testing.T)) {
	t.Helper()

	abs, err := filepath.Abs(filepath.Join("testdata", testFile))
	require.NoError(t, err)
	t.Setenv(EnvFile, abs)

	Config = Type{}
	t.Cleanup(func() { Config = Type{} })

	_, err = Load(namespace)
	require.NoError(t, err)
	fn(t)
}

func TestLoad(t *testing.T) {
	withConfig(t, "simple.yaml", "", func(t *testing.T) {
		assert.NotEmpty(t, Config.Source)
		assert.Equal(t, "us-east-1", Config.Data["region"])
		assert.Equal(t, "", Config.Namespace)
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
		},
		{
			name: "directory",
			path: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name: "invalid yaml",
			path: func(t *testing.T) string {
				abs, _ := filepath.Abs(filepath.Join("testdata", "invalid.yaml"))
				return abs
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvFile, tt.path(t))
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		key       string
		def       []string
		want      string
		wantErr   bool
	}{
		{name: "plain", key: "bucket", want: "shared-bucket"},
		{name: "namespaced wins", namespace: "kq", key: "bucket", want: "kq-bucket"},
		{name: "namespace falls back", namespace: "kq", key: "prefix", want: "kms-reports/"},
		{name: "explicit dotted", key: "colors.title", want: "#f6be00"},
		{name: "missing with default", key: "nope", def: []string{"fallback"}, want: "fallback"},
		{name: "missing", key: "nope", wantErr: true},
		{name: "wrong type", namespace: "kq", key: "defaults", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withConfig(t, "namespace.yaml", tt.namespace, func(t *testing.T) {
				got, err := GetString(tt.key, tt.def...)
				if tt.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		})
	}
}

func TestGetInt(t *testing.T) {
	withConfig(t, "simple.yaml", "", func(t *testing.T) {
		n, err := GetInt("padding")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = GetInt("missing", 7)
		require.NoError(t, err)
		assert.Equal(t, 7, n)

		_, err = GetInt("region")
		assert.Error(t, err)
	})
}

func TestGetBool(t *testing.T) {
	withConfig(t, "simple.yaml", "", func(t *testing.T) {
		b, err := GetBool("color")
		require.NoError(t, err)
		assert.True(t, b)

		_, err = GetBool("bucket")
		assert.Error(t, err)
	})
}

func TestGetStringSlice(t *testing.T) {
	withConfig(t, "namespace.yaml", "kq", func(t *testing.T) {
		got, err := GetStringSlice("defaults")
		require.NoError(t, err)
		assert.Equal(t, []string{"--titles", "--sort type,-size_bits"}, got)

		got, err = GetStringSlice("missing", []string{"a"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, got)

		_, err = GetStringSlice("bucket")
		assert.Error(t, err)
	})
}
