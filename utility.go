package hydrolib

import (
	"fmt"
	"math"
)

const (
	degToRad = math.Pi / 180

	xr = 20037508.34 / 180
	yr = xr / degToRad
	tr = degToRad / 2
)

func PointsToWkt(lon1, lon2, lat1, lat2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", lon1, lon2, lat1, lat2)
}

func SpanToWkt(span [4]float64) string {
	return PointsToWkt(span[0], span[1], span[2], span[3])
}

func Convert4326To3857(lon, lat float64) (lonIn3857, latIn3857 float64) {
	lonIn3857 = lon * xr
	latIn3857 = math.Log(math.Tan((90+lat)*tr)) * yr
	return
}

func Convert3857To4326(lonIn3857, latIn3857 float64) (lon, lat float64) {
	lon = lonIn3857 / xr
	lat = math.Atan(math.Pow(math.E, latIn3857/yr))/tr - 90
	return
}

// 仿射变换：像素坐标转地理坐标
func PixelToGeo(gt [6]float64, px, py float64) (x, y float64) {
	x = gt[0] + px*gt[1] + py*gt[2]
	y = gt[3] + px*gt[4] + py*gt[5]
	return
}

// 求栅格的地理范围，兼容带旋转项的仿射变换，返回[minX, maxX, minY, maxY]
func RasterSpan(gt [6]float64, width, height int) (span [4]float64) {
	w, h := float64(width), float64(height)
	x0, y0 := PixelToGeo(gt, 0, 0)
	x1, y1 := PixelToGeo(gt, w, 0)
	x2, y2 := PixelToGeo(gt, 0, h)
	x3, y3 := PixelToGeo(gt, w, h)
	span[0] = math.Min(math.Min(x0, x1), math.Min(x2, x3))
	span[1] = math.Max(math.Max(x0, x1), math.Max(x2, x3))
	span[2] = math.Min(math.Min(y0, y1), math.Min(y2, y3))
	span[3] = math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return
}
