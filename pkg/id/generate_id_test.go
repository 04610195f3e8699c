package id

import (
	"encoding/hex"
	"regexp"
	"testing"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

func TestNewID32_FormatAndDecode(t *testing.T) {
	got := NewID32()

	// length
	if len(got) != 32 {
		t.Fatalf("length = %d, want 32 (got=%q)", len(got), got)
	}
	// lowercase hex only (no separators/prefixes)
	if !reHex32.MatchString(got) {
		t.Fatalf("not 32-char lowercase hex: %q", got)
	}
	// decodes to exactly 16 bytes
	b, err := hex.DecodeString(got)
	if err != nil {
		t.Fatalf("hex.DecodeString error: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("decoded bytes = %d, want 16", len(b))
	}
}

func TestNewID32_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewID32()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewID32_NoUppercaseOrHyphen(t *testing.T) {
	id := NewID32()
	for _, r := range id {
		if r >= 'A' && r <= 'Z' {
			t.Fatalf("found uppercase letter in id: %q", id)
		}
		if r == '-' {
			t.Fatalf("found hyphen in id: %q", id)
		}
	}
}

func TestNewUUID_Canonical(t *testing.T) {
	got := NewUUID()
	if len(got) != 36 {
		t.Fatalf("length = %d, want 36 (got=%q)", len(got), got)
	}
	norm, ok := NormalizeUUID(got)
	if !ok || norm != got {
		t.Fatalf("NormalizeUUID(%q) = %q,%v", got, norm, ok)
	}
}

func TestNormalizeUUID(t *testing.T) {
	const canonical = "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88"
	for _, in := range []string{
		canonical,
		"3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88",
		"  " + canonical + " ",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88",
	} {
		got, ok := NormalizeUUID(in)
		if !ok || got != canonical {
			t.Fatalf("NormalizeUUID(%q) = %q,%v want %q", in, got, ok, canonical)
		}
	}
	for _, bad := range []string{"", "nope", "3f9a6a1b-3d54-4fbe-8b3a"} {
		if _, ok := NormalizeUUID(bad); ok {
			t.Fatalf("NormalizeUUID(%q) should fail", bad)
		}
	}
}
