package hydrolib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/hydrolib/log"

	"github.com/google/uuid"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 水体分类阈值，单位与掩膜坐标系的线性单位一致（通常为米），不做单位换算
type ClassThresholds struct {
	RiverMinAxis  float64 // 主轴超此值且伸长率超RiverMinElong者为河流
	RiverMinElong float64
	LakeMinArea   float64 // 面积超此值且伸长率低于LakeMaxElong者为湖泊
	LakeMaxElong  float64
	CreekMaxArea  float64 // 面积低于此值且伸长率超CreekMinElong者为沟汊
	CreekMinElong float64
	PondMaxArea   float64 // 面积低于此值者为坑塘
}

var DefaultClassThresholds = ClassThresholds{
	RiverMinAxis:  8000,
	RiverMinElong: 3,
	LakeMinArea:   500000,
	LakeMaxElong:  2,
	CreekMaxArea:  20000,
	CreekMinElong: 2,
	PondMaxArea:   10000,
}

// 单个水体的几何指标
type waterMetrics struct {
	area       float64
	perimeter  float64
	elongation float64
	mainAxis   float64
}

type classRule struct {
	class string
	match func(t ClassThresholds, m waterMetrics) bool
}

// 分类规则依次匹配，先命中者生效；条件有重叠，次序不可调换
var classRules = []classRule{
	{CLASS_RIVER, func(t ClassThresholds, m waterMetrics) bool {
		return m.mainAxis > t.RiverMinAxis && m.elongation > t.RiverMinElong
	}},
	{CLASS_LAKE, func(t ClassThresholds, m waterMetrics) bool {
		return m.area > t.LakeMinArea && m.elongation < t.LakeMaxElong
	}},
	{CLASS_CREEK, func(t ClassThresholds, m waterMetrics) bool {
		return m.area < t.CreekMaxArea && m.elongation > t.CreekMinElong
	}},
	{CLASS_POND, func(t ClassThresholds, m waterMetrics) bool {
		return m.area < t.PondMaxArea
	}},
}

func classOf(t ClassThresholds, m waterMetrics) string {
	for _, r := range classRules {
		if r.match(t, m) {
			return r.class
		}
	}
	return CLASS_WATER
}

// 将二值掩膜Tif按连通域矢量化为面要素，DN字段记录源像元值（0与1的区域都会产出），
// 返回要素个数。eightConnected为true时按8连通追踪；默认4连通，避免对角相触的区域被并为一块
func (g *HydroToolbox) PolygonizeWaterMask(maskTif, outShp string, eightConnected bool) (cnt int, err error) {
	sds, err := gdal.Open(maskTif, gdal.ReadOnly)
	if err != nil {
		log.Error(g.logTag+"open mask tif failed", zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer sds.Close()
	if sds.RasterXSize() <= 0 || sds.RasterYSize() <= 0 {
		err = ErrEmptyMask
		return
	}
	band := sds.RasterBand(1)
	ds, layer, err := g.getShpDriverRef(outShp, gdal.CreateSpatialReference(sds.Projection()))
	if err != nil {
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	dn := gdal.CreateFieldDefinition(SHP_FIELD_DN, gdal.FT_Integer)
	if err = layer.CreateField(dn, false); err != nil {
		return
	}
	var options []string
	if eightConnected {
		options = append(options, EIGHT_CONNECTED_OPTION)
	}
	dnIdx := layer.Definition().FieldIndex(SHP_FIELD_DN)
	if err = band.Polygonize(gdal.RasterBand{}, layer, dnIdx, options, gdal.DummyProgress, nil); err != nil {
		log.Error(g.logTag+"polygonize failed", zap.Error(err))
		err = ErrPolygonizeFailed
		return
	}
	cnt, _ = layer.FeatureCount(false)
	log.Info(g.logTag+"mask polygonized", zap.String("mask", maskTif), zap.String("shp", outShp),
		zap.Int("features", cnt), zap.Bool("conn8", eightConnected))
	return
}

// 水体对象分类：按4连通矢量化掩膜，计算各连通水体的几何指标并按规则打类别标签，
// 结果按矢量化发现次序写入outShp（含DN、面积、周长、伸长率、主轴、类别字段），返回各类别计数。
// 掩膜无水体时输出空图层。可通过fb上报进度并协同取消，取消保留已写出的前缀结果，不视为错误
func (g *HydroToolbox) ClassifyWaterObjects(maskTif, outShp string, fb ...Feedback) (stats ClassCounts, err error) {
	f := pickFeedback(fb)
	tmpShp := filepath.Join(g.tmpDir, fmt.Sprintf(TMP_POLY_SHP, uuid.NewString()))
	defer g.removeShapefile(tmpShp)
	if _, err = g.PolygonizeWaterMask(maskTif, tmpShp, false); err != nil {
		return
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	pds, ok := driver.Open(tmpShp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer pds.Destroy()
	pLayer := pds.LayerByIndex(0)
	dnIdx := pLayer.Definition().FieldIndex(SHP_FIELD_DN)
	if dnIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, SHP_FIELD_DN)
		return
	}
	var (
		feature *gdal.Feature
		total   int
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	// 先数一遍DN==1的水体个数，供进度上报
	for {
		if feature = pLayer.NextFeature(); feature != nil {
			gc = append(gc, *feature)
			if feature.FieldAsInteger(dnIdx) == 1 {
				total++
			}
		} else {
			break
		}
	}
	log.Info(g.logTag+"water polygons to classify", zap.String("mask", maskTif), zap.Int("total", total))
	stats = ClassCounts{}
	ods, oLayer, err := g.getShpDriverRef(outShp, pLayer.SpatialReference())
	if err != nil {
		return
	}
	defer ods.Destroy() // 生成shp文件 + 释放资源
	if err = g.initWaterLayer(oLayer); err != nil {
		return
	}
	if total == 0 {
		return
	}
	pLayer.ResetReading()
	var (
		oDef     = oLayer.Definition()
		dnOIdx   = oDef.FieldIndex(SHP_FIELD_DN)
		areaIdx  = oDef.FieldIndex(SHP_FIELD_AREA)
		perimIdx = fieldIndexOf(oDef, SHP_FIELD_PERIM, SHP_FIELD_PERIM_DBF)
		elongIdx = oDef.FieldIndex(SHP_FIELD_ELONG)
		axisIdx  = oDef.FieldIndex(SHP_FIELD_AXIS)
		classIdx = oDef.FieldIndex(SHP_FIELD_CLASS)
		geo      gdal.Geometry
		boundary gdal.Geometry
		out      gdal.Feature
		rect     MBRect
		mok      bool
		m        waterMetrics
		cls      string
		done     int
		fid      int64
		e        error
	)
	for {
		if feature = pLayer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		if feature.FieldAsInteger(dnIdx) != 1 {
			continue
		}
		if f.Canceled() {
			log.Info(g.logTag+"classify canceled", zap.Int("done", done), zap.Int("total", total))
			break
		}
		geo = feature.Geometry()
		m.area = geo.Area()
		boundary = geo.Boundary()
		m.perimeter = boundary.Length()
		boundary.Destroy()
		if rect, mok = g.mbr.OrientedMBR(polygonRingPoints(geo)); mok {
			m.elongation = rect.Elongation()
			m.mainAxis = rect.MainAxis()
		} else { // 退化几何取兜底值
			m.elongation = 1
			m.mainAxis = 0
		}
		cls = classOf(g.thresholds, m)
		out = oDef.Create()
		gc = append(gc, out)
		if e = out.SetFID(fid); e != nil {
			log.Error(g.logTag+"err in set feature fid", zap.Error(e))
			continue
		}
		out.SetFieldInteger(dnOIdx, 1)
		out.SetFieldFloat64(areaIdx, m.area)
		out.SetFieldFloat64(perimIdx, m.perimeter)
		out.SetFieldFloat64(elongIdx, m.elongation)
		out.SetFieldFloat64(axisIdx, m.mainAxis)
		out.SetFieldString(classIdx, cls)
		if e = out.SetGeometry(geo); e != nil { // 几何仍归源要素所有，这里写入副本
			log.Error(g.logTag+"err in set geom of feature", zap.Error(e))
			continue
		}
		if e = oLayer.Create(out); e != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Error(e))
			continue
		}
		stats[cls]++
		done++
		fid++
		f.Progress(100 * done / total)
	}
	log.Info(g.logTag+"water objects classified", zap.String("shp", outShp),
		zap.Int("total", total), zap.Int("done", done), zap.Any("stats", stats))
	return
}

// 取出面要素全部外环顶点，供最小外接矩形求解（洞的顶点不影响凸包）
func polygonRingPoints(geo gdal.Geometry) (pts [][2]float64) {
	switch geo.Type() {
	case gdal.GT_Polygon:
		if geo.GeometryCount() == 0 {
			return
		}
		ring := geo.Geometry(0)
		np := ring.PointCount()
		pts = make([][2]float64, 0, np)
		var x, y float64
		for i := 0; i < np; i++ {
			x, y, _ = ring.Point(i)
			pts = append(pts, [2]float64{x, y})
		}
	case gdal.GT_MultiPolygon:
		for i, n := 0, geo.GeometryCount(); i < n; i++ {
			pts = append(pts, polygonRingPoints(geo.Geometry(i))...)
		}
	}
	return
}

// 删除shp及其sidecar文件
func (g *HydroToolbox) removeShapefile(shp string) {
	prefix := strings.TrimSuffix(shp, FILE_EXT_SHP)
	for _, ext := range []string{FILE_EXT_SHP, FILE_EXT_SHX, FILE_EXT_DBF, FILE_EXT_PRJ, FILE_EXT_CPG} {
		os.Remove(prefix + ext)
	}
}
