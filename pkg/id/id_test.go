package id

import (
	"regexp"
	"testing"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

func TestNewRunID_Format(t *testing.T) {
	got := NewRunID()
	if !reHex32.MatchString(got) {
		t.Fatalf("not 32-char lowercase hex: %q", got)
	}
	if !Valid(got) {
		t.Fatalf("Valid(%q) = false", got)
	}
}

func TestNewRunID_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewRunID()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"abc", false},
		{"6ba7b8109dad11d180b400c04fd430c8", true},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", false},
	}
	for _, c := range cases {
		if got := Valid(c.in); got != c.want {
			t.Errorf("Valid(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
