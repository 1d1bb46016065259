// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package lambda is the AWS Lambda entry for the KMS report. It reads its
// settings from the function environment, builds one report and answers with
// an API Gateway style status code and body.
package lambda
