// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package output filters, transforms, sorts and renders JSON:API datasets as
// tables, JSON or YAML, and dumps the attribute schema for --schema.
package output
