package slugify_test

import (
	"testing"

	"authorfix/internal/slugify"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Jane Doe", "jane-doe"},
		{"accents", "José Ångström", "jose-angstrom"},
		{"punctuation runs", "O'Brien,  Jr.", "o-brien-jr"},
		{"leading trailing", "  --Jane--  ", "jane"},
		{"digits kept", "Jane Doe 2", "jane-doe-2"},
		{"empty", "!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := slugify.Sanitize(tc.input); got != tc.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestStripPrefix(t *testing.T) {
	if got := slugify.StripPrefix("cap-jane-doe", "cap-"); got != "jane-doe" {
		t.Fatalf("StripPrefix returned %q", got)
	}
	if got := slugify.StripPrefix("jane-doe", "cap-"); got != "jane-doe" {
		t.Fatalf("StripPrefix without marker returned %q", got)
	}
}

func TestIsEmail(t *testing.T) {
	valid := []string{"jane@example.com", "j.doe+tag@sub.example.org"}
	for _, v := range valid {
		if !slugify.IsEmail(v) {
			t.Errorf("IsEmail(%q) = false, want true", v)
		}
	}
	invalid := []string{"", "jane", "jane@", "Jane Doe <jane@example.com>", "two words@example.com"}
	for _, v := range invalid {
		if slugify.IsEmail(v) {
			t.Errorf("IsEmail(%q) = true, want false", v)
		}
	}
}

func TestEmailLocalPart(t *testing.T) {
	if got := slugify.EmailLocalPart("jane@example.com"); got != "jane" {
		t.Fatalf("EmailLocalPart returned %q", got)
	}
	if got := slugify.EmailLocalPart("not-an-email"); got != "not-an-email" {
		t.Fatalf("EmailLocalPart passthrough returned %q", got)
	}
}
