package utils

import (
	"errors"
	"testing"

	"medialib/internal/domain"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
		wantErr  error
	}{
		{
			name:     "collapses redundant separators",
			segments: []string{"my/paths/", "/are/", "a/r/g/s/"},
			want:     "my/paths/are/a/r/g/s",
		},
		{
			name:     "drops empty segments",
			segments: []string{"", "Images", ""},
			want:     "Images",
		},
		{
			name:     "reduces dot segments",
			segments: []string{"Images", "./Products", "../Banners"},
			want:     "Images/Banners",
		},
		{
			name:     "backslashes are separators",
			segments: []string{`Images\Products`, "shoes"},
			want:     "Images/Products/shoes",
		},
		{
			name:     "root",
			segments: []string{"", "/", "."},
			want:     "",
		},
		{
			name:     "traversal above root",
			segments: []string{"Images", "../.."},
			wantErr:  domain.ErrPathTraversal,
		},
		{
			name:     "control characters",
			segments: []string{"Images", "bad\x00name"},
			wantErr:  domain.ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Join(tt.segments...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Join(%q) error = %v, want %v", tt.segments, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Join(%q) unexpected error: %v", tt.segments, err)
			}
			if got != tt.want {
				t.Errorf("Join(%q) = %q, want %q", tt.segments, got, tt.want)
			}
		})
	}
}

func TestJoin_TraversalIsValidationError(t *testing.T) {
	_, err := Join("..")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected traversal to classify as validation error, got %v", err)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		path       string
		wantParent *string
		wantName   string
	}{
		{path: "Images/Products", wantParent: strPtr("Images"), wantName: "Products"},
		{path: "Images/Products/shoes/", wantParent: strPtr("Images/Products"), wantName: "shoes"},
		{path: "Images", wantParent: nil, wantName: "Images"},
		{path: "/Images", wantParent: nil, wantName: "Images"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			parent, name := Split(tt.path)
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			switch {
			case tt.wantParent == nil && parent != nil:
				t.Errorf("parent = %q, want nil", *parent)
			case tt.wantParent != nil && (parent == nil || *parent != *tt.wantParent):
				t.Errorf("parent = %v, want %q", parent, *tt.wantParent)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	for _, root := range []string{"", ".", "/", " "} {
		if got := Normalize(root); got != nil {
			t.Errorf("Normalize(%q) = %q, want nil", root, *got)
		}
	}
	if got := Normalize("/Images/"); got == nil || *got != "Images" {
		t.Errorf("Normalize(/Images/) = %v, want Images", got)
	}
}

func TestSegments(t *testing.T) {
	got, err := Segments("/Images//Products/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "Images" || got[1] != "Products" {
		t.Errorf("Segments = %v", got)
	}

	root, err := Segments("")
	if err != nil || len(root) != 0 {
		t.Errorf("Segments(\"\") = %v, %v; want empty", root, err)
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"Products", "summer 2024", "ñandú"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) unexpected error: %v", name, err)
		}
	}

	invalid := []string{"", "  ", "a/b", `a\b`, ".", "..", "tab\tname"}
	for _, name := range invalid {
		if err := ValidateName(name); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("ValidateName(%q) = %v, want validation error", name, err)
		}
	}
}

func TestValidatePath(t *testing.T) {
	got, err := ValidatePath("/Images/./Products/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Images/Products" {
		t.Errorf("ValidatePath = %q, want Images/Products", got)
	}

	if _, err := ValidatePath("Images/../../etc"); !errors.Is(err, domain.ErrPathTraversal) {
		t.Errorf("expected traversal error, got %v", err)
	}
}

func strPtr(s string) *string { return &s }
