package hydrolib

import (
	"encoding/json"
	"math"
	"testing"
)

func TestGetWaterCoverageRatio(t *testing.T) {
	g := NewHydroToolbox()
	if g == nil {
		t.Fatal()
	}
	zone := PointsToWkt(0, 2, 0, 2)
	waters := []string{PointsToWkt(0, 1, 0, 2)}
	ratio, err := g.GetWaterCoverageRatio(zone, waters)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(ratio)-0.5) > 1e-6 {
		t.Fatalf("got ratio %f", ratio)
	}
}

func TestGetWaterCoverage(t *testing.T) {
	g := NewHydroToolbox()
	zone, err := g.WktToWkb(PointsToWkt(0, 2, 0, 2), UNIVERSAL_SRID)
	if err != nil {
		t.Fatal(err)
	}
	full, err := g.WktToWkb(PointsToWkt(0, 2, 0, 2), UNIVERSAL_SRID)
	if err != nil {
		t.Fatal(err)
	}
	half, err := g.WktToWkb(PointsToWkt(0, 2, 0, 1), UNIVERSAL_SRID)
	if err != nil {
		t.Fatal(err)
	}
	ratios, dst, unions, diffs, err := g.GetWaterCoverage(zone, []GdalGeo{full, half})
	if err != nil {
		t.Fatal(err)
	}
	if len(ratios) != 2 || len(unions) != 2 || len(diffs) != 2 {
		t.Fatal("wrong result size")
	}
	if math.Abs(float64(ratios[0])-1) > 1e-6 || math.Abs(float64(ratios[1])-0.5) > 1e-6 {
		t.Fatalf("got ratios %v", ratios)
	}
	if !json.Valid(dst) || !json.Valid(unions[0]) {
		t.Fatal("invalid geojson")
	}
	// 全覆盖时不输出差集
	if diffs[0] != nil {
		t.Fatal("unexpected diff for full coverage")
	}
	if diffs[1] == nil || !json.Valid(diffs[1]) {
		t.Fatal("missing diff for partial coverage")
	}
}

func TestBuildWaterEnvelopes(t *testing.T) {
	g := NewHydroToolbox()
	// 两片相距很近的水体，包络应合并
	wkt := "MULTIPOLYGON(((0 0,0.01 0,0.01 0.01,0 0.01,0 0)),((0.012 0,0.022 0,0.022 0.01,0.012 0.01,0.012 0)))"
	wkb, err := g.WktToWkb(wkt, GEOJSON_SRID)
	if err != nil {
		t.Fatal(err)
	}
	ret, err := g.BuildWaterEnvelopes(wkb, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(ret) == 0 || !json.Valid(ret) {
		t.Fatalf("got %s", ret)
	}
	t.Log(string(ret))
}
