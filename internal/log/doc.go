// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package log is a thin apex/log wrapper so the rest of kmsctl logs through a
// single handler and level setting.
package log
