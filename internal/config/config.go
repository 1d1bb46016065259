// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tfctl/kmsctl/internal/log"
)

// EnvFile names the environment variable that points at an explicit config
// file.
const EnvFile = "KMSCTL_CFG_FILE"

// FileName is the config file looked up in os.UserConfigDir.
const FileName = "kmsctl.yaml"

// ErrNotFound is returned when a dotted key does not resolve.
var ErrNotFound = errors.New("config key not found")

// Type is the in-memory representation of the loaded configuration.
//
//   - Source: absolute path of the YAML file loaded.
//   - Namespace: command namespace tried before the bare key, so that
//     "kq.bucket" wins over "bucket" while running kq.
//   - Data: raw YAML tree.
type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

// Config holds the process-wide configuration.
var Config Type

// Load reads the YAML configuration file and replaces the global Config. The
// optional namespace is recorded on the result.
func Load(namespace ...string) (Type, error) {
	path, err := configFile()
	if err != nil {
		return Type{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Type{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	Config = Type{Source: path, Data: data}
	if len(namespace) > 0 {
		Config.Namespace = namespace[0]
	}
	log.Debugf("config loaded: source=%s namespace=%s", Config.Source, Config.Namespace)

	return Config, nil
}

// GetString returns the string at key, or the single default when the key is
// missing. A present value of another type is an error.
func GetString(key string, defaultValue ...string) (string, error) {
	return lookup(key, defaultValue, func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	})
}

// GetInt returns the integer at key. YAML numbers may decode as int, int64 or
// float64.
func GetInt(key string, defaultValue ...int) (int, error) {
	return lookup(key, defaultValue, func(v any) (int, bool) {
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			return int(n), true
		}
		return 0, false
	})
}

// GetBool returns the boolean at key.
func GetBool(key string, defaultValue ...bool) (bool, error) {
	return lookup(key, defaultValue, func(v any) (bool, bool) {
		b, ok := v.(bool)
		return b, ok
	})
}

// GetStringSlice returns the string list at key.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	return lookup(key, defaultValue, func(v any) ([]string, bool) {
		switch list := v.(type) {
		case []string:
			return list, true
		case []interface{}:
			out := make([]string, len(list))
			for i, item := range list {
				s, ok := item.(string)
				if !ok {
					return nil, false
				}
				out[i] = s
			}
			return out, true
		}
		return nil, false
	})
}

// lookup resolves key against the global Config, lazily loading it, and
// converts the value with conv.
func lookup[T any](key string, defaultValue []T, conv func(any) (T, bool)) (T, error) {
	var zero T

	if len(Config.Data) == 0 {
		ns := Config.Namespace
		if _, err := Load(ns); err != nil {
			log.Tracef("lazy config load failed: err=%v", err)
		}
	}

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return zero, err
	}

	out, ok := conv(val)
	if !ok {
		return zero, fmt.Errorf("config key %q has unexpected type %T", key, val)
	}
	return out, nil
}

// get walks the tree along a dotted key. The namespaced key is tried first.
func (cfg *Type) get(key string) (any, error) {
	candidates := []string{key}
	if cfg.Namespace != "" && !strings.HasPrefix(key, cfg.Namespace+".") {
		candidates = []string{cfg.Namespace + "." + key, key}
	}

	for _, candidate := range candidates {
		var current any = cfg.Data
		found := true
		for _, part := range strings.Split(candidate, ".") {
			m, ok := current.(map[string]interface{})
			if !ok {
				found = false
				break
			}
			if current, ok = m[part]; !ok {
				found = false
				break
			}
		}
		if found {
			return current, nil
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrNotFound, candidates)
}

// configFile returns the YAML config path. KMSCTL_CFG_FILE wins when set;
// otherwise FileName in os.UserConfigDir is used if it exists.
func configFile() (string, error) {
	if path := os.Getenv(EnvFile); path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("config file not found at %s path: %s", EnvFile, path)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s points to a directory: %s", EnvFile, path)
		}
		return path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, nil
	}

	return "", fmt.Errorf("no config file found in standard locations")
}
