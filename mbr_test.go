package hydrolib

import (
	"math"
	"testing"
)

func TestOrientedMBRSquare(t *testing.T) {
	var s caliperSolver
	rect, ok := s.OrientedMBR([][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}})
	if !ok {
		t.Fatal("square should have a valid rect")
	}
	a, b := rect.SideLengths()
	if math.Abs(a-1) > 1e-9 || math.Abs(b-1) > 1e-9 {
		t.Fatalf("sides: %f %f", a, b)
	}
	if e := rect.Elongation(); math.Abs(e-1) > 1e-9 {
		t.Fatalf("elongation: %f", e)
	}
	if m := rect.MainAxis(); math.Abs(m-1) > 1e-9 {
		t.Fatalf("main axis: %f", m)
	}
}

func TestOrientedMBRRotatedRect(t *testing.T) {
	// 10x2的矩形旋转30度，最小外接矩形应与其重合
	sin, cos := math.Sin(math.Pi/6), math.Cos(math.Pi/6)
	src := [][2]float64{{0, 0}, {10, 0}, {10, 2}, {0, 2}}
	pts := make([][2]float64, len(src))
	for i, p := range src {
		pts[i] = [2]float64{p[0]*cos - p[1]*sin, p[0]*sin + p[1]*cos}
	}
	var s caliperSolver
	rect, ok := s.OrientedMBR(pts)
	if !ok {
		t.Fatal("rect should be valid")
	}
	if m := rect.MainAxis(); math.Abs(m-10) > 1e-6 {
		t.Fatalf("main axis: %f", m)
	}
	if e := rect.Elongation(); math.Abs(e-5) > 1e-6 {
		t.Fatalf("elongation: %f", e)
	}
}

func TestOrientedMBRDegenerate(t *testing.T) {
	var s caliperSolver
	degenerate := [][][2]float64{
		nil,
		{{1, 1}},
		{{1, 1}, {2, 2}},
		{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, // 共线
		{{1, 1}, {1, 1}, {1, 1}},         // 重复点
	}
	for i, pts := range degenerate {
		if _, ok := s.OrientedMBR(pts); ok {
			t.Errorf("case %d should be degenerate", i)
		}
	}
}

func TestConvexHullExcludesInterior(t *testing.T) {
	hull := convexHull([][2]float64{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {2, 2}, {1, 3}})
	if len(hull) != 4 {
		t.Fatalf("hull size: %d", len(hull))
	}
	for _, p := range hull {
		if p == [2]float64{2, 2} || p == [2]float64{1, 3} {
			t.Fatalf("interior point in hull: %v", p)
		}
	}
}

func TestMBRectZeroWidth(t *testing.T) {
	r := MBRect{Corners: [4][2]float64{{0, 0}, {5, 0}, {5, 0}, {0, 0}}}
	if e := r.Elongation(); e != 1 {
		t.Fatalf("zero width elongation: %f", e)
	}
	if m := r.MainAxis(); m != 5 {
		t.Fatalf("zero width main axis: %f", m)
	}
}
