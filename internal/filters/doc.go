// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package filters selects rows of a result set with --filter expressions.
//
// An expression is key, operator, target. Expressions are joined with ","
// (or KMSCTL_FILTER_DELIM) and a row must satisfy all of them. Operators may
// be negated with a leading "!":
//
//   - = : equal; numeric when both sides are numbers
//   - ~ : equal ignoring case
//   - ^ : prefix
//   - < > : less or greater; numeric when both sides are numbers
//   - @ : substring, array element or object key
//   - / : regular expression
//
// A bare key keeps rows where the key has a non-empty value.
//
// Examples:
//
//   - "type^RSA_" : RSA keys
//   - "size_bits>256" : keys larger than 256 bits
//   - "application=" : keys with no application
//   - "application!~payments" : everything not owned by payments
//
// Keys are the output names of --attrs, or any attribute of the row.
package filters
