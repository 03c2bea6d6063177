// Package humanmode implements the Human-Mode Timing Engine (spec.md §4.5):
// pure, stateless functions producing randomized delays and Bezier-sampled
// mouse paths, used by the dispatcher when the active mode is "human" or
// "stealth".
//
// Every function takes an explicit *rand.Rand so callers (and tests) can
// inject a seeded source — spec.md §8's "human-path determinism under
// seeded RNG" property requires humanMousePath to be bitwise reproducible
// given a fixed seed. Grounded on the teacher's stealth-injection approach
// (scraper/page.go's EvalOnNewDocument(stealth.JS)) generalized from "inject
// once" to "model the interaction pacing a human would produce," since the
// teacher itself has no timing engine of its own.
package humanmode

import (
	"math"
	"math/rand/v2"
)

// Point is a 2D pixel coordinate sampled along a mouse path.
type Point struct {
	X, Y float64
}

// PathPoint is a Point with an associated per-step delay, used for drag
// paths where each leg of the motion should pause for a different amount
// of time.
type PathPoint struct {
	Point
	Delay float64 // milliseconds to wait before moving to this point
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func uniformDuration(r *rand.Rand, loMs, hiMs int) int {
	return int(uniform(r, float64(loMs), float64(hiMs)))
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// gaussian returns a normally distributed sample with the given mean and
// standard deviation, using the Box-Muller transform over r.
func gaussian(r *rand.Rand, mean, stddev float64) float64 {
	u1 := r.Float64()
	u2 := r.Float64()
	if u1 == 0 {
		u1 = 1e-12
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + z*stddev
}

// NavigationDelay is the pre-navigation sleep: uniform 800-2500ms.
func NavigationDelay(r *rand.Rand) int { return uniformDuration(r, 800, 2500) }

// PreClickDelay is the sleep before a click's final press: uniform 100-400ms.
func PreClickDelay(r *rand.Rand) int { return uniformDuration(r, 100, 400) }

// PreTypeDelay is the sleep before typing begins: uniform 200-600ms.
func PreTypeDelay(r *rand.Rand) int { return uniformDuration(r, 200, 600) }

// InterKeyDelay is the per-character typing delay:
// clamp(30, 250, round(Gaussian(100, 40))) ms.
func InterKeyDelay(r *rand.Rand) int {
	return int(clamp(30, 250, math.Round(gaussian(r, 100, 40))))
}

// PreScrollDelay is the sleep before a scroll action: uniform 500-1500ms.
func PreScrollDelay(r *rand.Rand) int { return uniformDuration(r, 500, 1500) }

// ReplayStepDelay is the inter-step pause a human-mode replay takes
// between recorded steps: uniform 400-900ms.
func ReplayStepDelay(r *rand.Rand) int { return uniformDuration(r, 400, 900) }

// PostLoadDelay is the sleep after navigation completes: uniform 1000-3000ms.
func PostLoadDelay(r *rand.Rand) int { return uniformDuration(r, 1000, 3000) }

// IdleDelay is a generic "do nothing for a while" delay: uniform 1000-4000ms.
func IdleDelay(r *rand.Rand) int { return uniformDuration(r, 1000, 4000) }

// ClickOffset returns a small random offset from an element's center,
// uniform +/-3px in both axes.
func ClickOffset(r *rand.Rand) (dx, dy float64) {
	return uniform(r, -3, 3), uniform(r, -3, 3)
}

// HumanMousePath samples a cubic Bezier curve from (sx,sy) to (ex,ey) at
// clamp(10, 30, round(dist/15)) points. Both control points sit at 33% and
// 67% of the straight line, offset perpendicular to it by a random amount
// in +/-0.3*dist. If the two points are closer than 5px, the path is just
// the two endpoints.
func HumanMousePath(r *rand.Rand, sx, sy, ex, ey float64) []Point {
	dx, dy := ex-sx, ey-sy
	dist := math.Hypot(dx, dy)

	if dist < 5 {
		return []Point{{sx, sy}, {ex, ey}}
	}

	// Unit perpendicular to the line (sx,sy)->(ex,ey).
	var perpX, perpY float64
	if dist > 0 {
		perpX, perpY = -dy/dist, dx/dist
	}

	offset1 := uniform(r, -0.3*dist, 0.3*dist)
	offset2 := uniform(r, -0.3*dist, 0.3*dist)

	c1x := sx + dx*0.33 + perpX*offset1
	c1y := sy + dy*0.33 + perpY*offset1
	c2x := sx + dx*0.67 + perpX*offset2
	c2y := sy + dy*0.67 + perpY*offset2

	n := int(clamp(10, 30, math.Round(dist/15)))

	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		points = append(points, cubicBezier(sx, sy, c1x, c1y, c2x, c2y, ex, ey, t))
	}
	return points
}

func cubicBezier(p0x, p0y, p1x, p1y, p2x, p2y, p3x, p3y, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*p0x + b*p1x + c*p2x + d*p3x,
		Y: a*p0y + b*p1y + c*p2y + d*p3y,
	}
}

// HumanDragPath builds on HumanMousePath: interior points get +/-2px
// y-wobble, an overshoot point 5-15px beyond the target (in the drag
// direction) is appended, then a corrective point back at the exact
// target. Every point carries a per-step delay: 10-30ms for ordinary
// steps, 30-60ms for the overshoot pause, 50-120ms for the correction
// pause.
func HumanDragPath(r *rand.Rand, sx, sy, ex, ey float64) []PathPoint {
	base := HumanMousePath(r, sx, sy, ex, ey)

	out := make([]PathPoint, 0, len(base)+2)
	for i, p := range base {
		if i > 0 && i < len(base)-1 {
			p.Y += uniform(r, -2, 2)
		}
		out = append(out, PathPoint{Point: p, Delay: uniform(r, 10, 30)})
	}

	dx, dy := ex-sx, ey-sy
	dist := math.Hypot(dx, dy)
	var dirX, dirY float64
	if dist > 0 {
		dirX, dirY = dx/dist, dy/dist
	}
	overshoot := uniform(r, 5, 15)
	overshootPoint := Point{X: ex + dirX*overshoot, Y: ey + dirY*overshoot}
	out = append(out, PathPoint{Point: overshootPoint, Delay: uniform(r, 30, 60)})
	out = append(out, PathPoint{Point: Point{X: ex, Y: ey}, Delay: uniform(r, 50, 120)})

	return out
}
