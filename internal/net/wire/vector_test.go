package wire

import (
	"math"
	"testing"
)

func TestServerToLocalMapping(t *testing.T) {
	got := ServerToLocal(Vec3{X: 1, Y: 2, Z: 3})
	want := Vec3{X: 300, Y: 100, Z: 200}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLocalToServerMapping(t *testing.T) {
	got := LocalToServer(Vec3{X: 300, Y: 100, Z: 200})
	want := Vec3{X: 1, Y: 2, Z: 3}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTransformInvertibility(t *testing.T) {
	positions := []Vec3{
		{},
		{X: 1, Y: 2, Z: 3},
		{X: -17.25, Y: 0.001, Z: 9999.5},
		{X: 0.333333, Y: -0.666666, Z: 123.456},
	}
	const tol = 1e-3

	approx := func(a, b Vec3) bool {
		return math.Abs(float64(a.X-b.X)) < tol &&
			math.Abs(float64(a.Y-b.Y)) < tol &&
			math.Abs(float64(a.Z-b.Z)) < tol
	}

	for _, p := range positions {
		if got := LocalToServer(ServerToLocal(p)); !approx(got, p) {
			t.Fatalf("server round trip %+v: got %+v", p, got)
		}
		if got := ServerToLocal(LocalToServer(p)); !approx(got, p) {
			t.Fatalf("local round trip %+v: got %+v", p, got)
		}
	}
}
