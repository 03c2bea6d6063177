package humanmode

import (
	"math"
	"math/rand/v2"
	"testing"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestDelays_StayWithinBounds(t *testing.T) {
	r := seeded()
	for i := 0; i < 200; i++ {
		if d := NavigationDelay(r); d < 800 || d > 2500 {
			t.Fatalf("NavigationDelay out of bounds: %d", d)
		}
		if d := PreClickDelay(r); d < 100 || d > 400 {
			t.Fatalf("PreClickDelay out of bounds: %d", d)
		}
		if d := PreTypeDelay(r); d < 200 || d > 600 {
			t.Fatalf("PreTypeDelay out of bounds: %d", d)
		}
		if d := InterKeyDelay(r); d < 30 || d > 250 {
			t.Fatalf("InterKeyDelay out of bounds: %d", d)
		}
		if d := PreScrollDelay(r); d < 500 || d > 1500 {
			t.Fatalf("PreScrollDelay out of bounds: %d", d)
		}
		if d := ReplayStepDelay(r); d < 400 || d > 900 {
			t.Fatalf("ReplayStepDelay out of bounds: %d", d)
		}
		if d := PostLoadDelay(r); d < 1000 || d > 3000 {
			t.Fatalf("PostLoadDelay out of bounds: %d", d)
		}
		if d := IdleDelay(r); d < 1000 || d > 4000 {
			t.Fatalf("IdleDelay out of bounds: %d", d)
		}
		dx, dy := ClickOffset(r)
		if dx < -3 || dx > 3 || dy < -3 || dy > 3 {
			t.Fatalf("ClickOffset out of bounds: %v %v", dx, dy)
		}
	}
}

func TestHumanMousePath_Deterministic(t *testing.T) {
	r1 := rand.New(rand.NewPCG(42, 7))
	r2 := rand.New(rand.NewPCG(42, 7))

	p1 := HumanMousePath(r1, 0, 0, 300, 150)
	p2 := HumanMousePath(r2, 0, 0, 300, 150)

	if len(p1) != len(p2) {
		t.Fatalf("path lengths differ: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("path point %d differs: %v vs %v", i, p1[i], p2[i])
		}
	}
}

func TestHumanMousePath_ShortDistanceIsTwoPoints(t *testing.T) {
	r := seeded()
	path := HumanMousePath(r, 10, 10, 12, 13)
	if len(path) != 2 {
		t.Fatalf("expected 2-point path for a short hop, got %d points", len(path))
	}
	if path[0] != (Point{10, 10}) || path[1] != (Point{12, 13}) {
		t.Errorf("expected endpoints preserved exactly, got %v", path)
	}
}

func TestHumanMousePath_StartsAndEndsAtEndpoints(t *testing.T) {
	r := seeded()
	path := HumanMousePath(r, 5, 5, 400, 300)
	if path[0] != (Point{5, 5}) {
		t.Errorf("expected path to start at origin, got %v", path[0])
	}
	last := path[len(path)-1]
	if absFloat(last.X-400) > 1e-9 || absFloat(last.Y-300) > 1e-9 {
		t.Errorf("expected path to end at target, got %v", last)
	}
}

func TestHumanDragPath_EndsWithCorrectionAtTarget(t *testing.T) {
	r := seeded()
	path := HumanDragPath(r, 0, 0, 100, 50)
	if len(path) < 4 {
		t.Fatalf("expected at least 4 points (base path + overshoot + correction), got %d", len(path))
	}
	last := path[len(path)-1]
	if last.X != 100 || last.Y != 50 {
		t.Errorf("expected final point to land exactly on target, got %v", last.Point)
	}
	overshoot := path[len(path)-2]
	distFromTarget := math.Hypot(overshoot.X-100, overshoot.Y-50)
	if distFromTarget < 5 || distFromTarget > 15 {
		t.Errorf("expected overshoot 5-15px beyond target, got %.2f", distFromTarget)
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
