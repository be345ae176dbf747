package sampling

import "testing"

func TestWindowAveraging(t *testing.T) {
	a := NewAverager(4, 2.0)
	a.SetBias(1, 2, 3)

	samples := [][3]int16{
		{2, 4, 6},
		{4, 8, 12},
		{6, 12, 18},
		{8, 16, 24},
	}
	for i, s := range samples {
		done := a.Add(s[0], s[1], s[2])
		if want := i == 3; done != want {
			t.Fatalf("Add %d completed=%v, want %v", i+1, done, want)
		}
	}

	// Means (5,10,15), minus bias (4,8,12), times gain 2.
	x, y, z := a.Latest()
	if x != 8 || y != 16 || z != 24 {
		t.Errorf("Latest() = (%g, %g, %g), want (8, 16, 24)", x, y, z)
	}
}

func TestLatestZeroBeforeFirstWindow(t *testing.T) {
	a := NewAverager(4, 1.0)
	a.Add(100, 100, 100)
	a.Add(100, 100, 100)
	a.Add(100, 100, 100)

	if x, y, z := a.Latest(); x != 0 || y != 0 || z != 0 {
		t.Errorf("Latest() before first completed window = (%g, %g, %g), want zeros", x, y, z)
	}
}

func TestFreshWindowAfterCompletion(t *testing.T) {
	a := NewAverager(4, 1.0)

	for i := 0; i < 4; i++ {
		a.Add(8, 8, 8)
	}
	if x, _, _ := a.Latest(); x != 8 {
		t.Fatalf("first window mean = %g, want 8", x)
	}

	// The 5th sample opens a fresh accumulation window and must not
	// disturb the latched triad.
	a.Add(100, 100, 100)
	if x, _, _ := a.Latest(); x != 8 {
		t.Errorf("Latest() after partial second window = %g, want 8", x)
	}

	a.Add(100, 100, 100)
	a.Add(100, 100, 100)
	if done := a.Add(100, 100, 100); !done {
		t.Fatal("second window did not complete on its 4th sample")
	}
	if x, y, z := a.Latest(); x != 100 || y != 100 || z != 100 {
		t.Errorf("second window Latest() = (%g, %g, %g), want (100, 100, 100)", x, y, z)
	}
}

func TestNegativeCounts(t *testing.T) {
	a := NewAverager(2, 0.5)
	a.Add(-10, -20, 30)
	a.Add(-30, -40, 10)

	x, y, z := a.Latest()
	if x != -10 || y != -15 || z != 10 {
		t.Errorf("Latest() = (%g, %g, %g), want (-10, -15, 10)", x, y, z)
	}
}
