package secret

import (
	"strings"
	"testing"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	key, err := ParseKey(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	s, err := NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return s
}

func TestSealOpen(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.Seal("sk-or-v1-secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if strings.Contains(sealed, "sk-or") {
		t.Fatal("sealed value leaks plaintext")
	}
	again, _ := s.Seal("sk-or-v1-secret")
	if again == sealed {
		t.Error("two seals of the same value should differ")
	}

	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != "sk-or-v1-secret" {
		t.Errorf("Open = %q", got)
	}
}

func TestOpen_Rejects(t *testing.T) {
	s := testSealer(t)
	for _, in := range []string{"!!!", "AAAA", ""} {
		if _, err := s.Open(in); err == nil {
			t.Errorf("Open(%q) should fail", in)
		}
	}

	other, _ := NewSealer([]byte(strings.Repeat("k", 32)))
	sealed, _ := other.Seal("x")
	if _, err := s.Open(sealed); err == nil {
		t.Error("opening with the wrong key should fail")
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		wantLen int
		wantErr bool
	}{
		{strings.Repeat("0f", 32), 32, false},
		{strings.Repeat("x", 32), 32, false},
		{strings.Repeat("x", 16), 16, false},
		{"short", 0, true},
		{strings.Repeat("z", 64), 0, true},
	}
	for _, tt := range tests {
		key, err := ParseKey(tt.in)
		if (err != nil) != tt.wantErr || len(key) != tt.wantLen {
			t.Errorf("ParseKey(%q) = %d bytes, err %v", tt.in, len(key), err)
		}
	}
}

func TestNilSealer(t *testing.T) {
	var s *Sealer
	if _, err := s.Seal("x"); err == nil {
		t.Error("nil sealer should refuse to seal")
	}
}
