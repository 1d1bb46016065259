// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package report assembles normalized KMS key rows from an inventory source,
// encodes them as CSV and uploads the result to S3.
package report
