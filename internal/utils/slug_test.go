package utils

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		in, sep, want string
	}{
		{"App Storage", "-", "app-storage"},
		{"Crème Brûlée.JPG", "-", "creme-brulee-jpg"},
		{"  leading and trailing  ", "-", "leading-and-trailing"},
		{"under_score", "_", "under_score"},
		{"!!!", "-", ""},
	}

	for _, tt := range tests {
		if got := Slug(tt.in, tt.sep); got != tt.want {
			t.Errorf("Slug(%q, %q) = %q, want %q", tt.in, tt.sep, got, tt.want)
		}
	}
}

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"My Photo.JPG":     "my-photo.jpg",
		"report.final.pdf": "report-final.pdf",
		"README":           "readme",
		".env":             "file.env",
	}
	for in, want := range tests {
		if got := CleanFilename(in); got != want {
			t.Errorf("CleanFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFqfn(t *testing.T) {
	id := "0b5b9c3e-3f5e-4f61-9a7d-6c1f2b0f4a11"
	if got := Fqfn(id, "my-photo.jpg"); got != id+"-my-photo-jpg" {
		t.Errorf("Fqfn = %q", got)
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("0b5b9c3e-3f5e-4f61-9a7d-6c1f2b0f4a11") {
		t.Error("expected canonical uuid to be accepted")
	}
	for _, s := range []string{"", "Images", "0b5b9c3e3f5e4f619a7d6c1f2b0f4a11", "zzzzzzzz-3f5e-4f61-9a7d-6c1f2b0f4a11"} {
		if IsUUID(s) {
			t.Errorf("IsUUID(%q) = true, want false", s)
		}
	}
}
