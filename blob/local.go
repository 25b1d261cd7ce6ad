// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aurorasocial/server/auth"
)

// LocalStore keeps objects under a directory. Its URLs point back at the
// application's /files route and are signed with auth.SignDownload.
type LocalStore struct {
	dir     string
	baseURL string
	salt    string
	now     func() time.Time
}

func NewLocalStore(dir, baseURL, salt string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &Error{Op: "init", Err: err}
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), salt: salt, now: time.Now}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", &Error{Op: "put", Key: key, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return "", &Error{Op: "put", Key: key, Err: err}
	}
	if err := os.WriteFile(p, data, 0o640); err != nil {
		return "", &Error{Op: "put", Key: key, Err: err}
	}
	return key, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, &Error{Op: "open", Key: key, Err: err}
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Op: "open", Key: key, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &Error{Op: "open", Key: key, Err: err}
	}
	return f, nil
}

func (s *LocalStore) URL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", &Error{Op: "url", Key: key, Err: err}
	}
	expires := s.now().Add(ttl).Truncate(time.Second)

	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	q := url.Values{}
	q.Set("exp", strconv.FormatInt(expires.Unix(), 10))
	q.Set("sig", auth.SignDownload(key, expires, s.salt))
	return s.baseURL + "/files/" + strings.Join(segments, "/") + "?" + q.Encode(), nil
}
