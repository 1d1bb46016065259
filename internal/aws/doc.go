// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package aws loads AWS SDK configuration, optionally as an assumed
// cross-account role, and builds the S3, AWS Config and STS clients the
// report and inventory packages use.
package aws
