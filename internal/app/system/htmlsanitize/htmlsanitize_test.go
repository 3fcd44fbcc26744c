package htmlsanitize_test

import (
	"testing"

	"github.com/mealbridge/mealbridge/internal/app/system/htmlsanitize"
)

func TestStripAll(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trimmed", "  plain  ", "plain"},
		{"tags dropped", "<b>Good</b> lunch", "Good lunch"},
		{"script dropped", "<script>alert(1)</script>fine", "fine"},
		{"handlers dropped", `<a href="javascript:alert('x')" onclick="x()">Click</a>`, "Click"},
		{"iframe dropped", `<p>ok</p><iframe src="https://evil.example"></iframe>`, "ok"},
		{"ampersand kept", "Rice & beans", "Rice & beans"},
		{"apostrophe kept", "the school's kitchen", "the school's kitchen"},
		{"entities decoded", "Tom &amp; Jerry&#39;s", "Tom & Jerry's"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.StripAll(tt.in); got != tt.want {
				t.Errorf("StripAll(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
