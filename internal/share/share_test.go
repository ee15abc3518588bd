// ABOUTME: Tests for sharing providers
// ABOUTME: Covers cache file writes, handle URIs and S3 configuration

package share

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheSharer_WritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	sharer := NewCacheSharer(dir, "")

	h, err := sharer.Share(context.Background(), "location.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	data, err := os.ReadFile(h.Path)
	if err != nil {
		t.Fatalf("read shared file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("unexpected content %q", data)
	}
	if h.Path != filepath.Join(dir, "location.txt") {
		t.Errorf("expected file in cache dir, got %s", h.Path)
	}
	if !strings.HasPrefix(h.URI, "file://") || !strings.HasSuffix(h.URI, "/location.txt") {
		t.Errorf("unexpected URI %q", h.URI)
	}
}

func TestCacheSharer_Overwrites(t *testing.T) {
	sharer := NewCacheSharer(t.TempDir(), "")

	first, err := sharer.Share(context.Background(), "location.txt", []byte("first export, longer"))
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	second, err := sharer.Share(context.Background(), "location.txt", []byte("second"))
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if first.Path != second.Path {
		t.Errorf("expected same path, got %s and %s", first.Path, second.Path)
	}

	data, _ := os.ReadFile(second.Path)
	if string(data) != "second" {
		t.Errorf("expected overwrite, got %q", data)
	}
}

func TestCacheSharer_ContentURI(t *testing.T) {
	sharer := NewCacheSharer(t.TempDir(), "org.example.geolocation.provider")

	h, err := sharer.Share(context.Background(), "location.txt", []byte("x"))
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if h.URI != "content://org.example.geolocation.provider/cache/location.txt" {
		t.Errorf("unexpected URI %q", h.URI)
	}
	if h.Path == "" {
		t.Error("expected local path for cache share")
	}
}

func TestCacheSharer_RejectsBadNames(t *testing.T) {
	sharer := NewCacheSharer(t.TempDir(), "")
	for _, name := range []string{"", ".", "..", "../escape.txt", "a/b.txt", `a\b.txt`} {
		if _, err := sharer.Share(context.Background(), name, []byte("x")); err == nil {
			t.Errorf("expected error for name %q", name)
		}
	}
}

func TestNewS3Sharer_RequiresBucket(t *testing.T) {
	if _, err := NewS3Sharer(S3Config{Endpoint: "localhost:9000"}); err == nil {
		t.Error("expected error without bucket")
	}
	if _, err := NewS3Sharer(S3Config{Bucket: "exports"}); err == nil {
		t.Error("expected error without endpoint")
	}
}

func TestS3Sharer_ObjectName(t *testing.T) {
	s, err := NewS3Sharer(S3Config{Endpoint: "localhost:9000", Bucket: "exports", Prefix: "geolocation"})
	if err != nil {
		t.Fatalf("create sharer: %v", err)
	}
	if got := s.ObjectName("location.txt"); got != "geolocation/location.txt" {
		t.Errorf("unexpected object name %q", got)
	}
	if s.cfg.Expiry != DefaultPresignExpiry {
		t.Errorf("expected default expiry, got %v", s.cfg.Expiry)
	}
}
