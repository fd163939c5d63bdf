package utils

import (
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug transliterates s to lowercase ASCII and replaces every run of
// characters outside [a-z0-9] with sep.
//
//   - Slug("App Storage", "-") → "app-storage"
//   - Slug("Crème Brûlée.JPG", "-") → "creme-brulee-jpg"
func Slug(s, sep string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(ascii) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteString(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// CleanFilename slugs the base of a filename and keeps its lowercased extension.
//
//   - CleanFilename("My Photo.JPG") → "my-photo.jpg"
func CleanFilename(filename string) string {
	ext := path.Ext(filename)
	base := Slug(strings.TrimSuffix(filename, ext), "-")
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if base == "" {
		base = "file"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// Extension returns the lowercased extension of a filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// Fqfn builds the fully qualified file name that keys a file on its backend.
func Fqfn(id, filename string) string {
	return id + "-" + Slug(filename, "-")
}

// IsUUID reports whether s is a canonical 36 character UUID.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
