package pageops

import "testing"

func TestCalculatePosition(t *testing.T) {
	const pageW, pageH, textW, textH, margin = 600.0, 800.0, 100.0, 10.0, 30.0
	cases := []struct {
		pos  Position
		x, y float64
	}{
		{TopLeft, 30, 40},
		{TopCenter, 250, 40},
		{TopRight, 470, 40},
		{BottomLeft, 30, 770},
		{BottomCenter, 250, 770},
		{BottomRight, 470, 770},
		{Center, 250, 400},
	}
	for _, tc := range cases {
		x, y := calculatePosition(tc.pos, pageW, pageH, textW, textH, margin)
		if x != tc.x || y != tc.y {
			t.Errorf("position %d: got (%v, %v), want (%v, %v)", tc.pos, x, y, tc.x, tc.y)
		}
	}
}

func TestBandTop(t *testing.T) {
	if y := bandTop(TopCenter, 842, 70); y != 0 {
		t.Errorf("top band at %v", y)
	}
	if y := bandTop(BottomCenter, 842, 120); y != 722 {
		t.Errorf("bottom band at %v", y)
	}
	if y := bandTop(Center, 800, 100); y != 350 {
		t.Errorf("centered band at %v", y)
	}
}

func TestPageLabel(t *testing.T) {
	if got := pageLabel("Page {page} of {pages}", 2); got != "Page 2 of {nb}" {
		t.Errorf("pageLabel = %q", got)
	}
	if got := pageLabel("{page}", 7); got != "7" {
		t.Errorf("pageLabel = %q", got)
	}
}
