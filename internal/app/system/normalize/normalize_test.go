package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"donor@example.com", "donor@example.com"},
		{"DONOR@EXAMPLE.COM", "donor@example.com"},
		{"  Donor@Example.Com  ", "donor@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Grace Hopper", "Grace Hopper"},
		{"  Grace   Hopper  ", "Grace Hopper"},
		{"UPPER CASE", "UPPER CASE"},
		{"", ""},
		{"\t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLowercasers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"role", Role, "  Principal ", "principal"},
		{"status", Status, "DISABLED", "disabled"},
		{"category", Category, " Food", "food"},
		{"student key", StudentKey, " S-12A ", "s-12a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, tt.in, got, tt.want)
			}
		})
	}
}

func TestQueryParam(t *testing.T) {
	if got := QueryParam("  Mixed Case  "); got != "Mixed Case" {
		t.Errorf("QueryParam = %q, want %q", got, "Mixed Case")
	}
}
