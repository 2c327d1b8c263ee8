package hydrolib

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func writeSampleShp(t *testing.T, g *HydroToolbox, shp string, feats ...WaterFeature) {
	t.Helper()
	if err := g.WriteWaterShapefile(shp, UNIVERSAL_SRID, feats...); err != nil {
		t.Fatal(err)
	}
}

func TestWriteParseWaterShapefile(t *testing.T) {
	g := NewHydroToolbox()
	if g == nil {
		t.Fatal()
	}
	dir := t.TempDir()
	shp := filepath.Join(dir, "water.shp")
	feats := []WaterFeature{
		{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1)), Area: 12345.5, Perimeter: 450.25, Elongation: 1.5, MainAxis: 120, Class: CLASS_POND},
		{Geom: mustWkb(t, g, PointsToWkt(2, 3, 0, 1)), Area: 600000, Perimeter: 3200, Elongation: 1.2, MainAxis: 900, Class: CLASS_LAKE},
	}
	writeSampleShp(t, g, shp, feats...)
	srid, err := g.GetSridOfShapefile(shp)
	if err != nil {
		t.Fatal(err)
	}
	if srid != UNIVERSAL_SRID {
		t.Fatalf("got srid %d", srid)
	}
	back, err := g.ParseWaterShapefile(shp)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != len(feats) {
		t.Fatalf("got %d feats", len(back))
	}
	for i, ft := range back {
		want := feats[i]
		if math.Abs(ft.Area-want.Area) > 1e-6 || math.Abs(ft.Perimeter-want.Perimeter) > 1e-6 ||
			math.Abs(ft.Elongation-want.Elongation) > 1e-6 || math.Abs(ft.MainAxis-want.MainAxis) > 1e-6 {
			t.Fatalf("feat %d metrics: %+v", i, ft)
		}
		if ft.Class != want.Class || len(ft.Geom) == 0 {
			t.Fatalf("feat %d class: %s", i, ft.Class)
		}
	}
	if span := wkbSpan(t, g, back[1].Geom); span != [4]float64{2, 3, 0, 1} {
		t.Fatalf("got span %v", span)
	}
}

func TestGetClassesInShapefile(t *testing.T) {
	g := NewHydroToolbox()
	dir := t.TempDir()
	shp := filepath.Join(dir, "water.shp")
	writeSampleShp(t, g, shp,
		WaterFeature{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1)), Class: CLASS_POND},
		WaterFeature{Geom: mustWkb(t, g, PointsToWkt(2, 3, 0, 1)), Class: CLASS_LAKE},
		WaterFeature{Geom: mustWkb(t, g, PointsToWkt(4, 5, 0, 1)), Class: CLASS_POND},
	)
	want := []string{CLASS_LAKE, CLASS_POND}
	classes, err := g.GetClassesInShapefile(shp, true)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(classes)
	if len(classes) != 2 || classes[0] != want[0] || classes[1] != want[1] {
		t.Fatalf("got classes %v", classes)
	}
	// ASCII类别标签经GBK转码不变
	classes, err = g.GetClassesInShapefile(shp, false)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(classes)
	if len(classes) != 2 || classes[0] != want[0] || classes[1] != want[1] {
		t.Fatalf("got classes %v", classes)
	}

	void := filepath.Join(dir, "void.shp")
	writeSampleShp(t, g, void, WaterFeature{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1))})
	if _, err = g.GetClassesInShapefile(void, true); err == nil || !strings.Contains(err.Error(), SHP_FIELD_CLASS) {
		t.Fatalf("got %v", err)
	}
}

func TestUpdateClassInShapefile(t *testing.T) {
	g := NewHydroToolbox()
	dir := t.TempDir()
	shp := filepath.Join(dir, "water.shp")
	writeSampleShp(t, g, shp,
		WaterFeature{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1)), Class: CLASS_POND},
		WaterFeature{Geom: mustWkb(t, g, PointsToWkt(2, 3, 0, 1)), Class: CLASS_LAKE},
		WaterFeature{Geom: mustWkb(t, g, PointsToWkt(10, 11, 0, 1)), Class: CLASS_POND},
	)
	// 无有效映射且无范围时不做任何修改
	if err := g.UpdateClassInShapefile(shp, "", map[string]string{CLASS_POND: CLASS_POND}); err != nil {
		t.Fatal(err)
	}
	back, err := g.ParseWaterShapefile(shp)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 3 {
		t.Fatalf("got %d feats", len(back))
	}

	zone := filepath.Join(dir, "zone.shp")
	writeSampleShp(t, g, zone, WaterFeature{Geom: mustWkb(t, g, PointsToWkt(-1, 4, -1, 2)), Class: CLASS_WATER})
	if err = g.UpdateClassInShapefile(shp, zone, map[string]string{CLASS_POND: CLASS_WATER}); err != nil {
		t.Fatal(err)
	}
	back, err = g.ParseWaterShapefile(shp)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 {
		t.Fatalf("got %d feats after zone filter", len(back))
	}
	got := map[string]int{}
	for _, ft := range back {
		got[ft.Class]++
	}
	if got[CLASS_WATER] != 1 || got[CLASS_LAKE] != 1 {
		t.Fatalf("got classes %v", got)
	}
}

func TestGetWktOfWaterShp(t *testing.T) {
	g := NewHydroToolbox()
	dir := t.TempDir()
	multi := filepath.Join(dir, "multi.shp")
	writeSampleShp(t, g, multi,
		WaterFeature{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1)), Class: CLASS_POND},
		WaterFeature{Geom: mustWkb(t, g, PointsToWkt(2, 3, 0, 1)), Class: CLASS_LAKE},
	)
	wkt, err := g.GetWktOfWaterShp(multi)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(wkt, "MULTIPOLYGON") {
		t.Fatalf("got %s", wkt)
	}
	wkb, err := g.GetWkbOfWaterShp(multi)
	if err != nil {
		t.Fatal(err)
	}
	if span := wkbSpan(t, g, wkb); span != [4]float64{0, 3, 0, 1} {
		t.Fatalf("got span %v", span)
	}

	// 只有一个面时退为Polygon
	single := filepath.Join(dir, "single.shp")
	writeSampleShp(t, g, single, WaterFeature{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1)), Class: CLASS_POND})
	if wkt, err = g.GetWktOfWaterShp(single); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(wkt, "POLYGON") {
		t.Fatalf("got %s", wkt)
	}
}

func TestWaterShpToGeoJSON(t *testing.T) {
	g := NewHydroToolbox()
	dir := t.TempDir()
	shp := filepath.Join(dir, "water.shp")
	writeSampleShp(t, g, shp, WaterFeature{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1)), Class: CLASS_POND})
	out, err := g.WaterShpToGeoJSON(shp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "_4326.json") {
		t.Fatalf("got %s", out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Fatal("invalid geojson output")
	}
}

func TestTransformShapefile(t *testing.T) {
	g := NewHydroToolbox()
	dir := t.TempDir()
	shp := filepath.Join(dir, "water.shp")
	writeSampleShp(t, g, shp, WaterFeature{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1)), Class: CLASS_POND})
	out, err := g.TransformShapefile(shp, 3857)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "_3857.shp") {
		t.Fatalf("got %s", out)
	}
	srid, err := g.GetSridOfShapefile(out)
	if err != nil {
		t.Fatal(err)
	}
	if srid != 3857 {
		t.Fatalf("got srid %d", srid)
	}
	if _, err = os.Stat(shp); !os.IsNotExist(err) {
		t.Fatal("old shp not removed")
	}
	// 目标坐标系一致时原样返回
	out2, err := g.TransformShapefile(out, 3857)
	if err != nil {
		t.Fatal(err)
	}
	if out2 != out {
		t.Fatalf("got %s", out2)
	}
}

func TestEncodingShapefile(t *testing.T) {
	g := NewHydroToolbox()
	dir := t.TempDir()
	shp := filepath.Join(dir, "water.shp")
	writeSampleShp(t, g, shp, WaterFeature{Geom: mustWkb(t, g, PointsToWkt(0, 1, 0, 1)), Class: CLASS_POND})
	for _, cpg := range []string{SHAPE_ENCODING, UTF8_ENC} {
		out, err := g.EncodingShapefile(shp, cpg, false)
		if err != nil {
			t.Fatal(err)
		}
		if out != shp {
			t.Fatalf("got %s", out)
		}
	}
}
