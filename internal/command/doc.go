// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package command defines the CLI command set for kmsctl: kq for KMS keys,
// rq and bq for GitHub repositories and branches, and the hidden ki
// inspector. It wires flags, validators and actions for each.
package command
