package utils

import (
	"strings"
	"unicode"

	"medialib/internal/domain"
)

// Separator is the only directory separator used in catalog and backend paths.
const Separator = "/"

// Join joins path segments into a normalized, slash separated path.
//
// Empty segments are dropped, backslashes are treated as separators, "." and
// redundant separators are collapsed and ".." pops the previous segment.
// A ".." that would climb above the root fails with PathTraversalError.
//
// Examples:
//   - Join("my/paths/", "/are/", "a/r/g/s/") → "my/paths/are/a/r/g/s"
//   - Join("", "Images", ".") → "Images"
//   - Join("a", "../..") → PathTraversalError
func Join(segments ...string) (string, error) {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return normalize(strings.Join(parts, Separator))
}

// Segments validates a path and returns its normalized segments.
// The root ("", "/", ".") has no segments.
func Segments(path string) ([]string, error) {
	joined, err := Join(path)
	if err != nil {
		return nil, err
	}
	if joined == "" {
		return nil, nil
	}
	return strings.Split(joined, Separator), nil
}

// Split returns dirname/basename of a path. The parent is nil when the path
// has a single segment.
//
//   - Split("Images/Products") → ("Images", "Products")
//   - Split("Images") → (nil, "Images")
func Split(path string) (parent *string, name string) {
	path = strings.Trim(strings.ReplaceAll(path, "\\", Separator), Separator)
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return nil, path
	}
	return Normalize(path[:idx]), path[idx+1:]
}

// Normalize maps the root sentinels "" and "." to nil and trims everything else.
func Normalize(location string) *string {
	location = strings.Trim(strings.TrimSpace(location), Separator)
	if location == "" || location == "." {
		return nil
	}
	return &location
}

// Location returns the catalog form of an optional location ("" for root).
func Location(location *string) string {
	if location == nil {
		return ""
	}
	return *location
}

func normalize(path string) (string, error) {
	path = strings.ReplaceAll(path, "\\", Separator)
	if err := rejectFunkyCharacters(path); err != nil {
		return "", err
	}

	parts := make([]string, 0, strings.Count(path, Separator)+1)
	for _, part := range strings.Split(path, Separator) {
		switch part {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return "", &domain.PathTraversalError{Path: path}
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, Separator), nil
}

// rejectFunkyCharacters rejects unprintable characters and invalid unicode.
func rejectFunkyCharacters(path string) error {
	for _, r := range path {
		if r == unicode.ReplacementChar {
			return &domain.InvalidPathError{Path: path, Reason: "invalid unicode"}
		}
		if unicode.In(r, unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs) {
			return &domain.InvalidPathError{Path: path, Reason: "unprintable character"}
		}
	}
	return nil
}
