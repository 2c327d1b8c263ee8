package hydrolib

import (
	"github.com/wgdzlh/hydrolib/log"
	"github.com/wgdzlh/hydrolib/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 拆分、凸包+缓冲、合并散布水体WKB，输出水域复合体外包络的GeoJSON；
// dis为包络间的合并距离（米），非正时取默认值
func (g *HydroToolbox) BuildWaterEnvelopes(geom GdalGeo, dis int) (ret AnyJson, err error) {
	log.Info(g.logTag+"start build water envelopes", zap.Int("geoSize", len(geom)), zap.Int("dis", dis))
	ref, err := g.getSridRef(GEOJSON_SRID)
	if err != nil {
		return
	}
	mergedSg, err := g.parseWKB(geom, ref)
	if err != nil {
		return
	}
	defer mergedSg.Destroy()
	mergeDis := MergeBufferDistance
	if dis > 0 {
		mergeDis = float64(dis) * MergeBufferMeter
	}
	// 缓冲 + 合并
	unionGeo := g.splitAndHullBuff(mergedSg, mergeDis)
	defer unionGeo.Destroy()
	// 再次拆分 + 凸包
	envGeo := g.splitAndHullBuff(unionGeo)
	defer envGeo.Destroy()
	ret = utils.S2B(envGeo.ToJSON())
	log.Info(g.logTag+"output water envelopes json", zap.Int("dis", dis))
	return
}

func (g *HydroToolbox) splitAndHullBuff(geo gdal.Geometry, dis ...float64) (rGeo gdal.Geometry) {
	var gc []destroyable
	if geo.Type() == gdal.GT_Polygon {
		rGeo = geo.ConvexHull()
		gc = append(gc, rGeo)
		if len(dis) > 0 {
			rGeo = rGeo.Buffer(dis[0], MergeBufferSegs)
		}
	} else {
		rGeo = gdal.Create(gdal.GT_Polygon)
		geoCount := geo.GeometryCount()
		for i := 0; i < geoCount; i++ {
			subGeo := geo.Geometry(i)
			if subGeo.Type() != gdal.GT_Polygon {
				log.Error(g.logTag+"wrong type in geom", zap.Uint("type", uint(subGeo.Type())))
				continue
			}
			subGeo = subGeo.ConvexHull()
			gc = append(gc, subGeo)
			if len(dis) > 0 {
				subGeo = subGeo.Buffer(dis[0], MergeBufferSegs)
				gc = append(gc, subGeo)
			}
			gc = append(gc, rGeo)
			rGeo = rGeo.Union(subGeo)
		}
	}
	for _, v := range gc {
		v.Destroy()
	}
	return
}

// 获取多个水体范围WKB分别在目标区域中的覆盖率，及目标区域、水体范围、未覆盖区域的GeoJSON
func (g *HydroToolbox) GetWaterCoverage(zoneGeom GdalGeo, waterGeoms []GdalGeo) (ratios []float32, dst AnyJson, unions, diffs []AnyJson, err error) {
	log.Info(g.logTag + "start get water coverage")
	ref, err := g.getSridRef(UNIVERSAL_SRID)
	if err != nil {
		return
	}
	zone, err := g.parseWKB(zoneGeom, ref)
	if err != nil {
		return
	}
	dst = utils.S2B(zone.ToJSON())
	n := len(waterGeoms)
	ratios = make([]float32, n)
	unions = make([]AnyJson, n)
	diffs = make([]AnyJson, n)
	var (
		unionGeo  gdal.Geometry
		geo       gdal.Geometry
		ratio     float32
		interArea float64
		zoneArea  = zone.Area()
		gc        = []destroyable{zone}
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for i, wGeom := range waterGeoms {
		if unionGeo, err = g.parseWKB(wGeom, ref); err != nil {
			return
		}
		gc = append(gc, unionGeo)
		// 计算覆盖率
		geo = zone.Intersection(unionGeo)
		interArea = geo.Area()
		gc = append(gc, geo)
		ratio = float32(interArea / zoneArea)
		ratios[i] = ratio
		// 水体范围合集
		unions[i] = utils.S2B(unionGeo.ToJSON())
		if ratio < CoverageThreshold {
			// 区域与水体范围差集
			geo = zone.Difference(unionGeo)
			diffs[i] = utils.S2B(geo.ToJSON())
			gc = append(gc, geo)
		}
	}
	log.Info(g.logTag+"got water coverage", zap.Any("ratios", ratios))
	return
}

// 获取多个水体范围的集合在目标区域中的覆盖率
func (g *HydroToolbox) GetWaterCoverageRatio(zoneWkt string, waterWkts []string) (ratio float32, err error) {
	log.Info(g.logTag + "start get water coverage ratio")
	ref, err := g.getSridRef(UNIVERSAL_SRID)
	if err != nil {
		return
	}
	zone, err := gdal.CreateFromWKT(zoneWkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse zone wkt failed", zap.Error(err))
		return
	}
	var (
		unionGeo = gdal.Create(gdal.GT_Polygon)
		subGeo   gdal.Geometry
		gc       = []destroyable{zone, unionGeo}
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for _, gs := range waterWkts {
		if subGeo, err = gdal.CreateFromWKT(gs, ref); err != nil {
			return
		}
		unionGeo = unionGeo.Union(subGeo)
		gc = append(gc, subGeo)
		gc = append(gc, unionGeo)
	}
	// 计算覆盖率
	zoneArea := zone.Area()
	unionGeo = zone.Intersection(unionGeo)
	interArea := unionGeo.Area()
	gc = append(gc, unionGeo)
	ratio = float32(interArea / zoneArea)
	log.Info(g.logTag+"got water coverage ratio", zap.Float32("ratio", ratio))
	return
}
