package hydrolib

import (
	"math"

	"github.com/wgdzlh/hydrolib/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

const (
	BuffPercent  = 0.05
	BuffQuadSegs = 12
)

func (g *HydroToolbox) parseAlgWKT(wkt string) (ret gdal.Geometry, err error) {
	ref, err := g.getSridRef(WKT_ALG_SRID)
	if err != nil {
		return
	}
	ret, err = gdal.CreateFromWKT(wkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse alg wkt failed", zap.Error(err))
		err = ErrInvalidWKT
	}
	return
}

func (g *HydroToolbox) simpGeo(geo gdal.Geometry, t float64) (wkt string, err error) {
	defer geo.Destroy()
	if t <= 0 {
		t = SimplifyT
	}
	log.Info(g.logTag+"simplify geo", zap.Float64("tolerance", t))
	ret := geo.SimplifyPreservingTopology(t)
	defer ret.Destroy()
	area := ret.Area()
	if area <= 0 {
		return
	}
	buff := math.Sqrt(area) * BuffPercent
	ret = ret.Buffer(-buff, BuffQuadSegs) // 腐蚀
	ret = ret.Buffer(buff, BuffQuadSegs)  // 膨胀
	wkt, err = ret.ToWKT()
	return
}

func (g *HydroToolbox) muffGeo(geo gdal.Geometry) (ret gdal.Geometry, err error) {
	switch geo.Type() {
	case gdal.GT_Polygon:
		err = removeHolesInPolygon(geo)
		ret = geo.Clone()
	case gdal.GT_MultiPolygon:
		var subGeo gdal.Geometry
		gNum := geo.GeometryCount()
		for i := 0; i < gNum; i++ {
			subGeo = geo.Geometry(i)
			if err = removeHolesInPolygon(subGeo); err != nil {
				return
			}
			if gNum == 1 {
				ret = subGeo.Clone()
				return
			}
		}
		ret = geo.UnionCascaded() // avoid overlaps
	default:
		err = ErrGdalWrongGeoType
	}
	return
}

// 平滑水体边界：先做保拓扑抽稀，再经腐蚀膨胀消除矢量化产生的锯齿边；t为抽稀容差（米），非正时取默认值
func (g *HydroToolbox) SmoothWaterBoundaries(wkt string, t float64) (out string, err error) {
	log.Info(g.logTag + "start smooth water boundaries")
	geo, err := g.parseAlgWKT(wkt)
	if err != nil {
		return
	}
	out, err = g.simpGeo(geo, t)
	return
}

// 填补水体内部的岛洞，返回去洞后的WKT
func (g *HydroToolbox) FillWaterIslands(wkt string) (out string, err error) {
	log.Info(g.logTag + "start fill water islands")
	geo, err := g.parseAlgWKT(wkt)
	if err != nil {
		return
	}
	defer geo.Destroy()
	ret, err := g.muffGeo(geo)
	if err != nil {
		return
	}
	defer ret.Destroy()
	out, err = ret.ToWKT()
	return
}

func removeHolesInPolygon(geo gdal.Geometry) (err error) {
	gNum := geo.GeometryCount()
	for i := 1; i < gNum; i++ {
		if err = geo.RemoveGeometry(1, true); err != nil {
			return
		}
	}
	return
}
