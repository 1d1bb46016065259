// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package github lists a user's repositories and each repository's branches
// through the GitHub REST API.
package github
