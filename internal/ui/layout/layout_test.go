package layout

import (
	"strings"
	"testing"
)

func TestRenderHeaderShowsCounts(t *testing.T) {
	h := RenderHeader("Review", 3, 12, 90)
	for _, want := range []string{"Synap", "Review", "3 due", "12 scheduled"} {
		if !strings.Contains(h, want) {
			t.Errorf("header missing %q:\n%s", want, h)
		}
	}
}

func TestRenderFooterShowsHints(t *testing.T) {
	f := RenderFooter([]KeyHint{{"space", "Reveal"}, {"0-4", "Grade"}}, 90)
	if !strings.Contains(f, "Reveal") || !strings.Contains(f, "0-4") {
		t.Errorf("footer missing hints:\n%s", f)
	}
}

func TestIsTooSmall(t *testing.T) {
	tests := []struct {
		w, h int
		want bool
	}{
		{80, 24, false},
		{79, 24, true},
		{120, 10, true},
	}
	for _, tt := range tests {
		if got := IsTooSmall(tt.w, tt.h); got != tt.want {
			t.Errorf("IsTooSmall(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestContentHeight(t *testing.T) {
	if got := ContentHeight(30); got != 24 {
		t.Errorf("ContentHeight(30) = %d, want 24", got)
	}
	if got := ContentHeight(2); got != 0 {
		t.Errorf("ContentHeight(2) = %d, want 0", got)
	}
}
