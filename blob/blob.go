// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"
)

var ErrNotFound = errors.New("object not found")

// Store keeps attachment bytes outside the database.
type Store interface {
	// Put writes data under key and returns the key actually used.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	// URL returns a link that serves the object until ttl elapses.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Error wraps a storage failure with the operation and object involved.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("blob.%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("blob.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Key builds the object key {tenantId}/{ownerId}/{unixMillis}-{fileName}.
func Key(tenantID, ownerID, fileName string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s", tenantID, ownerID, at.UnixMilli(), SafeName(fileName))
}

// SafeName reduces a client file name to a single path segment of
// letters, digits, dots, dashes and underscores.
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "arquivo"
	}
	return out
}

// TenantOf returns the tenant segment of a key.
func TenantOf(key string) string {
	tenant, _, _ := strings.Cut(key, "/")
	return tenant
}
