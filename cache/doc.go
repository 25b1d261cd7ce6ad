// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cache holds short-lived in-process values such as the per-tenant
// dashboard metrics.
package cache
