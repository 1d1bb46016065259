// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package normalize turns AWS Config configuration items for KMS keys into
// flat rows for tabular export. It is pure: no I/O, no errors surfaced to the
// caller. Field spellings are resolved once, when a Record is built, so the
// derivations below only ever see canonical fields.
package normalize
