// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package inventory enumerates AWS::KMS::Key configuration items from AWS
// Config. Three sources are provided: the account's own recorder, an
// aggregator, and an aggregator advanced query. All of them walk resources in
// pagination order and fetch each one completely before requesting the next.
package inventory
