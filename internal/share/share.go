// ABOUTME: Sharing providers that turn exported bytes into a handle other programs can open
// ABOUTME: Local cache directory files and S3 presigned URLs

package share

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Handle identifies a shared file.
type Handle struct {
	// URI is what gets handed to other programs.
	URI string `json:"uri"`
	// Path is the local file path, empty for remote shares.
	Path string `json:"path,omitempty"`
}

// Sharer stores data under name and returns a handle to it.
// Sharing the same name twice overwrites the earlier content.
type Sharer interface {
	Share(ctx context.Context, name string, data []byte) (Handle, error)
}

// CacheSharer writes shared files into a private cache directory.
type CacheSharer struct {
	dir       string
	authority string
}

// Compile-time check that CacheSharer implements Sharer.
var _ Sharer = (*CacheSharer)(nil)

// NewCacheSharer shares files from dir. When authority is set, handles use
// content://<authority>/cache/<name> URIs instead of file:// URIs.
func NewCacheSharer(dir, authority string) *CacheSharer {
	return &CacheSharer{dir: dir, authority: authority}
}

// Dir returns the cache directory.
func (c *CacheSharer) Dir() string {
	return c.dir
}

// Share writes data to <dir>/<name>, replacing any previous file of that name.
func (c *CacheSharer) Share(_ context.Context, name string, data []byte) (Handle, error) {
	if err := validateName(name); err != nil {
		return Handle{}, err
	}
	if err := os.MkdirAll(c.dir, 0700); err != nil {
		return Handle{}, fmt.Errorf("create cache directory: %w", err)
	}

	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return Handle{}, fmt.Errorf("write %s: %w", name, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Handle{URI: c.uriFor(name, abs), Path: abs}, nil
}

func (c *CacheSharer) uriFor(name, abs string) string {
	if c.authority != "" {
		u := url.URL{Scheme: "content", Host: c.authority, Path: "/cache/" + name}
		return u.String()
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid share name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("share name %q must not contain path separators", name)
	}
	return nil
}
