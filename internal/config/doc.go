// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package config provides loading and typed accessors for kmsctl's user
// configuration, a YAML document found at $KMSCTL_CFG_FILE or in the user's
// configuration directory:
//   - Linux: $XDG_CONFIG_HOME/kmsctl.yaml or $HOME/.config/kmsctl.yaml
//   - macOS: $HOME/Library/Application Support/kmsctl.yaml
//   - Windows: %APPDATA%/kmsctl.yaml
//
// Keys are dotted paths. A command namespace ("kq", "rq") is tried first so a
// single file can hold per-command defaults.
package config
