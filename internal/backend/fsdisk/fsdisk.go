// Package fsdisk implements a backend disk on top of an afero filesystem:
// the local driver wraps the OS filesystem below a root directory, the
// memory driver keeps everything in process.
package fsdisk

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	models "medialib/internal/domain/models/media"
)

const (
	publicFilePerm  fs.FileMode = 0o644
	privateFilePerm fs.FileMode = 0o600
	publicDirPerm   fs.FileMode = 0o755
	privateDirPerm  fs.FileMode = 0o700
)

// ErrNoSigningKey is returned by TemporaryURL when the disk has no key.
var ErrNoSigningKey = errors.New("temporary urls need a signing key")

// Disk stores objects as plain files.
type Disk struct {
	fs         afero.Fs
	baseURL    string
	signingKey []byte
	now        func() time.Time
}

// Option configures a Disk.
type Option func(*Disk)

// WithURL sets the public base url objects are served under.
func WithURL(baseURL string) Option {
	return func(d *Disk) { d.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithSigningKey enables temporary urls.
func WithSigningKey(key string) Option {
	return func(d *Disk) {
		if key != "" {
			d.signingKey = []byte(key)
		}
	}
}

// WithClock overrides time.Now for url expiry.
func WithClock(now func() time.Time) Option {
	return func(d *Disk) { d.now = now }
}

// New wraps an arbitrary afero filesystem.
func New(afs afero.Fs, opts ...Option) *Disk {
	d := &Disk{fs: afs, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewLocal creates a disk rooted at root on the OS filesystem.
func NewLocal(root string, opts ...Option) (*Disk, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(root, publicDirPerm); err != nil {
		return nil, fmt.Errorf("create disk root %s: %w", root, err)
	}
	return New(afero.NewBasePathFs(osFs, root), opts...), nil
}

// NewMemory creates an in-memory disk.
func NewMemory(opts ...Option) *Disk {
	return New(afero.NewMemMapFs(), opts...)
}

// Fs exposes the underlying filesystem.
func (d *Disk) Fs() afero.Fs { return d.fs }

func filePerm(v models.Visibility) fs.FileMode {
	if v == models.VisibilityPrivate {
		return privateFilePerm
	}
	return publicFilePerm
}

func dirPerm(v models.Visibility) fs.FileMode {
	if v == models.VisibilityPrivate {
		return privateDirPerm
	}
	return publicDirPerm
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func (d *Disk) Exists(_ context.Context, p string) (bool, error) {
	return afero.Exists(d.fs, clean(p))
}

func (d *Disk) Put(_ context.Context, p string, data []byte, visibility models.Visibility) error {
	p = clean(p)
	if dir := path.Dir(p); dir != "." {
		if err := d.fs.MkdirAll(dir, publicDirPerm); err != nil {
			return err
		}
	}
	if err := afero.WriteFile(d.fs, p, data, filePerm(visibility)); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file
	return d.fs.Chmod(p, filePerm(visibility))
}

func (d *Disk) Get(_ context.Context, p string) ([]byte, error) {
	return afero.ReadFile(d.fs, clean(p))
}

// Delete removes a single file. A missing file is not an error.
func (d *Disk) Delete(_ context.Context, p string) error {
	err := d.fs.Remove(clean(p))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Disk) DeleteDirectory(_ context.Context, p string) error {
	p = clean(p)
	if p == "" {
		return fmt.Errorf("refusing to delete the disk root")
	}
	return d.fs.RemoveAll(p)
}

func (d *Disk) MakeDirectory(_ context.Context, p string, visibility models.Visibility) error {
	p = clean(p)
	if err := d.fs.MkdirAll(p, dirPerm(visibility)); err != nil {
		return err
	}
	return d.fs.Chmod(p, dirPerm(visibility))
}

func (d *Disk) Move(_ context.Context, from, to string) error {
	from, to = clean(from), clean(to)
	if from == to {
		return nil
	}
	if _, err := d.fs.Stat(from); err != nil {
		return err
	}
	if dir := path.Dir(to); dir != "." {
		if err := d.fs.MkdirAll(dir, publicDirPerm); err != nil {
			return err
		}
	}
	return d.fs.Rename(from, to)
}

func (d *Disk) SetVisibility(_ context.Context, p string, visibility models.Visibility) error {
	p = clean(p)
	info, err := d.fs.Stat(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return d.fs.Chmod(p, dirPerm(visibility))
	}
	return d.fs.Chmod(p, filePerm(visibility))
}

// Visibility reports the visibility derived from the object's mode bits.
func (d *Disk) Visibility(p string) (models.Visibility, error) {
	info, err := d.fs.Stat(clean(p))
	if err != nil {
		return "", err
	}
	if info.Mode().Perm()&0o004 == 0 {
		return models.VisibilityPrivate, nil
	}
	return models.VisibilityPublic, nil
}

func (d *Disk) URL(p string) (string, error) {
	if d.baseURL == "" {
		return "/" + clean(p), nil
	}
	return d.baseURL + "/" + clean(p), nil
}

// TemporaryURL returns the public url with an expiry and an HMAC-SHA256
// signature over "path|expires".
func (d *Disk) TemporaryURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	if d.signingKey == nil {
		return "", ErrNoSigningKey
	}
	base, err := d.URL(p)
	if err != nil {
		return "", err
	}

	expires := d.now().Add(ttl).Unix()
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires, 10))
	query.Set("signature", d.sign(clean(p), expires))
	return base + "?" + query.Encode(), nil
}

// Verify checks a signature produced by TemporaryURL.
func (d *Disk) Verify(p string, expires int64, signature string) bool {
	if d.signingKey == nil || d.now().Unix() > expires {
		return false
	}
	expected := d.sign(clean(p), expires)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (d *Disk) sign(p string, expires int64) string {
	mac := hmac.New(sha256.New, d.signingKey)
	mac.Write([]byte(p + "|" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
