package hydrolib

import (
	"strconv"
	"strings"
	"sync"

	"github.com/wgdzlh/hydrolib/log"
	"github.com/wgdzlh/hydrolib/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type HydroToolbox struct {
	refMap     map[int]gdal.SpatialReference
	rLock      sync.Mutex
	tmpDir     string
	logTag     string
	thresholds ClassThresholds
	mbr        MBRSolver
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

var (
	emptyGeometry = gdal.Geometry{}
)

// 初始化水文工具箱，tmpDir为可选的临时目录路径（未提供的话为当前目录）
func NewHydroToolbox(tmpDir ...string) *HydroToolbox {
	g := &HydroToolbox{
		refMap:     map[int]gdal.SpatialReference{},
		logTag:     "HydroToolbox:",
		thresholds: DefaultClassThresholds,
		mbr:        caliperSolver{},
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

// 替换水体分类阈值（默认为DefaultClassThresholds）
func (g *HydroToolbox) SetClassThresholds(t ClassThresholds) {
	g.thresholds = t
}

// 替换最小外接矩形求解器（默认为纯Go旋转卡壳实现）
func (g *HydroToolbox) SetMBRSolver(s MBRSolver) {
	if s != nil {
		g.mbr = s
	}
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (g *HydroToolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[srid]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil { // 设定坐标系ID
		log.Error(g.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		return
	}
	// 这里应设置坐标系对应的数据轴次序为固定的(经度,纬度)（传统GIS坐标序），而不是新标准中与CRS相关的次序。否则在转换坐标系或者转GeoJSON时，可能出现次序倒置问题
	// 目前我们处理的空间坐标数据都为固定的(经度,纬度)次序
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[srid] = ref
	return
}

func (g *HydroToolbox) getSrid(sp gdal.SpatialReference) (srid int, err error) {
	wkt, _ := sp.ToWKT()
	log.Info(g.logTag+"spatial ref attrs", zap.String("attr", wkt))
	rawId, ok := sp.AttrValue("AUTHORITY", 1)
	if !ok {
		if strings.Contains(wkt, "CGCS_2000") {
			rawId = "4490"
		} else {
			err = ErrVoidSrid
			return
		}
	}
	srid, err = strconv.Atoi(rawId)
	log.Info(g.logTag+"got srid from sp", zap.String("id", rawId))
	return
}

// 获取shp的srid
func (g *HydroToolbox) GetSridOfShapefile(shp string) (srid int, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	return g.getSrid(layer.SpatialReference())
}

func (g *HydroToolbox) parseWKB(wkb GdalGeo, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKB(wkb, ref, len(wkb))
	if err != nil {
		log.Error(g.logTag+"parse wkb failed", zap.Error(err))
	}
	return
}

func (g *HydroToolbox) parseWKT(wkt string, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKT(wkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse wkt failed", zap.Error(err))
		err = ErrInvalidWKT
	}
	return
}

// 转换WKB坐标系
func (g *HydroToolbox) TransformWkb(wkb GdalGeo, srid, tSrid int) (ret GdalGeo, err error) {
	if tSrid == srid {
		ret = wkb
		return
	}
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	tRef, err := g.getSridRef(tSrid)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(wkb, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if err = geo.TransformTo(tRef); err != nil {
		log.Error(g.logTag+"geo transform failed", zap.Error(err))
		return
	}
	ret, err = geo.ToWKB()
	return
}

// 转换WKT坐标系
func (g *HydroToolbox) TransformWkt(wkt string, srid, tSrid int) (ret string, err error) {
	if tSrid == srid {
		ret = wkt
		return
	}
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	tRef, err := g.getSridRef(tSrid)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if err = geo.TransformTo(tRef); err != nil {
		log.Error(g.logTag+"geo transform failed", zap.Error(err))
		return
	}
	ret, err = geo.ToWKT()
	return
}

// 检查WKT有效性
func (g *HydroToolbox) CheckWkt(wkt string, srid int) (err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	geo.Destroy()
	return
}

// WKT转WKB
func (g *HydroToolbox) WktToWkb(wkt string, srid int) (wkb GdalGeo, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	wkb, err = geo.ToWKB()
	geo.Destroy()
	return
}

// WKB转WKT
func (g *HydroToolbox) WkbToWkt(wkb GdalGeo, srid int) (wkt string, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(wkb, ref)
	if err != nil {
		return
	}
	wkt, err = geo.ToWKT()
	geo.Destroy()
	return
}

// GeoJSON转WKB
func (g *HydroToolbox) GeoJSONToWkb(geoJson AnyJson) (ret GdalGeo, err error) {
	geo := gdal.CreateFromJson(utils.B2S(geoJson))
	defer geo.Destroy()
	if geo.WKBSize() == 0 {
		err = ErrGdalWrongGeoJSON
		return
	}
	ret, err = geo.ToWKB()
	return
}

// WKB转GeoJSON
func (g *HydroToolbox) WkbToGeoJSON(wkb GdalGeo, srid int) (ret AnyJson, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(wkb, ref)
	if err != nil {
		return
	}
	ret = utils.S2B(geo.ToJSON())
	geo.Destroy()
	return
}

// 合并多个WKB矢量面
func (g *HydroToolbox) Union(gs []GdalGeo, srid int) (ret GdalGeo, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	var (
		geo      gdal.Geometry
		unionGeo = gdal.Create(gdal.GT_Polygon)
		gc       = []destroyable{unionGeo}
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for _, a := range gs {
		if geo, err = g.parseWKB(a, ref); err != nil {
			return
		}
		gc = append(gc, geo)
		unionGeo = unionGeo.Union(geo)
		gc = append(gc, unionGeo)
	}
	ret, err = unionGeo.ToWKB()
	return
}

// 获取多个WKB矢量面公共区
func (g *HydroToolbox) Intersection(gs []GdalGeo, srid int) (ret GdalGeo, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	var (
		geo      gdal.Geometry
		interGeo = emptyGeometry
		gc       []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for _, a := range gs {
		if geo, err = g.parseWKB(a, ref); err != nil {
			return
		}
		gc = append(gc, geo)
		if interGeo == emptyGeometry { // 首个面作为初始公共区
			interGeo = geo
			continue
		}
		interGeo = interGeo.Intersection(geo)
		gc = append(gc, interGeo)
	}
	if interGeo == emptyGeometry {
		interGeo = gdal.Create(gdal.GT_Polygon)
		gc = append(gc, interGeo)
	}
	ret, err = interGeo.ToWKB()
	return
}

// 求两个WKB矢量面之差
func (g *HydroToolbox) Difference(gA, gB GdalGeo, srid int) (ret GdalGeo, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geoA, err := g.parseWKB(gA, ref)
	if err != nil {
		return
	}
	defer geoA.Destroy()
	geoB, err := g.parseWKB(gB, ref)
	if err != nil {
		return
	}
	defer geoB.Destroy()
	diffGeo := geoA.Difference(geoB)
	ret, err = diffGeo.ToWKB()
	diffGeo.Destroy()
	return
}

// 从目标区域WKB中剪除多个水体WKB（如由区域面推算陆地面）
func (g *HydroToolbox) SubtractWaterFromZone(zone *WaterZone, waters []GdalGeo, srid int) (err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	zoneGeo, err := g.parseWKB(zone.Geom, ref)
	if err != nil {
		return
	}
	var (
		geo gdal.Geometry
		e   error
		gc  = []destroyable{zoneGeo}
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for _, wkb := range waters {
		if geo, e = g.parseWKB(wkb, ref); e != nil {
			continue
		}
		gc = append(gc, geo)
		zoneGeo = zoneGeo.Difference(geo)
		gc = append(gc, zoneGeo)
	}
	zone.Geom, err = zoneGeo.ToWKB()
	return
}

// 获取WKT经纬度范围
func (g *HydroToolbox) GetWktSpan(wkt string, srid int) (span [4]float64, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	envelop := geo.Envelope()
	span[0] = envelop.MinX()
	span[1] = envelop.MaxX()
	span[2] = envelop.MinY()
	span[3] = envelop.MaxY()
	return
}
