// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package driller resolves dot paths and field aliases over gjson documents.
// It is the one place where kmsctl guesses between spellings of a field.
package driller
