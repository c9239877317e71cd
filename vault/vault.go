// Package vault is the document store voice memos are written into: a directory
// tree addressed by slash-separated paths relative to its root.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrExists       = errors.New("file already exists")
	ErrOutsideVault = errors.New("path escapes the vault")
	ErrNotFolder    = errors.New("path exists and is not a folder")
)

type Vault struct {
	root      string
	wikilinks bool
}

// File is a created artifact. Path is vault-relative with forward slashes.
type File struct {
	Path    string
	Abs     string
	Size    int64
	Created time.Time
}

func (f *File) Name() string {
	return path.Base(f.Path)
}

func (f *File) Basename() string {
	return strings.TrimSuffix(f.Name(), path.Ext(f.Path))
}

// Open returns a vault rooted at dir, which must be an existing directory.
func Open(dir string, wikilinks bool) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault %s: %w", abs, ErrNotFolder)
	}
	return &Vault{root: abs, wikilinks: wikilinks}, nil
}

func (v *Vault) Root() string {
	return v.root
}

// NormalizePath cleans a vault path: backslashes become slashes, surrounding
// slashes and whitespace are dropped, and ".." may not climb above the root.
func NormalizePath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.Trim(p, "/")
	if p == "" {
		return "", nil
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%q: %w", p, ErrOutsideVault)
	}
	if clean == "." {
		return "", nil
	}
	return clean, nil
}

func (v *Vault) abs(rel string) (string, string, error) {
	norm, err := NormalizePath(rel)
	if err != nil {
		return "", "", err
	}
	return norm, filepath.Join(v.root, filepath.FromSlash(norm)), nil
}

// CreateFolder creates rel and any missing parents. An existing folder is not an error.
func (v *Vault) CreateFolder(rel string) error {
	_, abs, err := v.abs(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
			return fmt.Errorf("create folder %s: %w", rel, ErrNotFolder)
		}
		return fmt.Errorf("create folder %s: %w", rel, err)
	}
	return nil
}

// CreateBinary writes data to a new file at rel. It never overwrites: an existing
// file yields ErrExists.
func (v *Vault) CreateBinary(rel string, data []byte) (*File, error) {
	norm, abs, err := v.abs(rel)
	if err != nil {
		return nil, err
	}
	if norm == "" {
		return nil, fmt.Errorf("create file: empty path")
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create %s: %w", norm, ErrExists)
		}
		return nil, fmt.Errorf("create %s: %w", norm, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(abs)
		return nil, fmt.Errorf("write %s: %w", norm, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(abs)
		return nil, fmt.Errorf("close %s: %w", norm, err)
	}

	return &File{
		Path:    norm,
		Abs:     abs,
		Size:    int64(len(data)),
		Created: time.Now(),
	}, nil
}

// Link builds the embed link a note would use to reference f.
func (v *Vault) Link(f *File) string {
	if v.wikilinks {
		return "![[" + f.Path + "]]"
	}
	segments := strings.Split(f.Path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "![" + f.Basename() + "](" + strings.Join(segments, "/") + ")"
}
