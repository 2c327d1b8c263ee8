package hydrolib

import (
	"fmt"
	"strings"

	"github.com/wgdzlh/hydrolib/log"
	"github.com/wgdzlh/hydrolib/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

func (g *HydroToolbox) parseShp(shp string, noTrans ...bool) (ret gdal.Geometry, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	var (
		layer    = ds.LayerByIndex(0)
		mayTrans = len(noTrans) == 0 || !noTrans[0]
		srid     int
		feature  *gdal.Feature
		e        error
		gc       []destroyable
	)
	if mayTrans {
		if srid, err = g.getSrid(layer.SpatialReference()); err != nil {
			return
		}
	}
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	ret = gdal.Create(gdal.GT_Polygon)
	for {
		if feature = layer.NextFeature(); feature != nil {
			gc = append(gc, *feature)
			gc = append(gc, ret)
			ret = ret.Union(feature.Geometry())
		} else {
			break
		}
	}
	if mayTrans && srid != UNIVERSAL_SRID {
		var tRef gdal.SpatialReference
		if tRef, err = g.getSridRef(UNIVERSAL_SRID); err == nil {
			if err = ret.TransformTo(tRef); err != nil {
				log.Error(g.logTag+"geo transform failed", zap.Error(e))
			}
		}
		if err != nil {
			gc = append(gc, ret)
		}
	}
	return
}

// 从水体shp转化生成geoJson文件，可通过dstSrid指定目标srid
func (g *HydroToolbox) WaterShpToGeoJSON(shp string, dstSrid ...int) (out string, err error) {
	log.Info(g.logTag+"start geojson of water shp", zap.String("shp", shp))
	sds, err := gdal.OpenEx(shp, gdal.OFVector, nil, nil, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		return
	}
	defer sds.Close()

	tSrid := GEOJSON_SRID
	if len(dstSrid) > 0 && dstSrid[0] > 0 {
		tSrid = dstSrid[0]
	}
	prefix := strings.TrimSuffix(shp, FILE_EXT_SHP)
	out = prefix + fmt.Sprintf("_%d"+FILE_EXT_JSON, tSrid)
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, []string{"-f", "GeoJSON", "-t_srs", fmt.Sprintf("epsg:%d", tSrid)})
	if err != nil {
		log.Error(g.logTag + "VectorTranslate failed")
		return
	}
	dds.Close() // 生成转换后的json文件
	log.Info(g.logTag+"end geojson of water shp", zap.String("shp", shp), zap.String("out", out))
	return
}

// 转换整个shp文件的坐标系
func (g *HydroToolbox) TransformShapefile(shp string, tSrid int) (out string, err error) {
	srid, err := g.GetSridOfShapefile(shp)
	if err != nil || srid == tSrid {
		out = shp
		return
	}
	sds, err := gdal.OpenEx(shp, gdal.OFVector, nil, nil, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		return
	}
	defer sds.Close()
	log.Info(g.logTag+"start transform shp", zap.String("shp", shp), zap.Int("srid", tSrid))
	prefix := strings.TrimSuffix(shp, FILE_EXT_SHP)
	out = prefix + fmt.Sprintf("_%d"+FILE_EXT_SHP, tSrid)
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, []string{"-t_srs", fmt.Sprintf("epsg:%d", tSrid), "-lco", ENCODING_OPTION})
	if err != nil {
		log.Error(g.logTag + "VectorTranslate failed")
		return
	}
	dds.Close() // 生成转换后的shp文件

	if e := sds.Driver().DeleteDataset(shp); e != nil {
		log.Info(g.logTag+"delete old shp failed", zap.Error(e))
	}
	log.Info(g.logTag+"end transform shp", zap.String("shp", out))
	return
}

// 转换整个shp文件的文本编码
func (g *HydroToolbox) EncodingShapefile(shp, cpg string, rmOld bool) (out string, err error) {
	if cpg == SHAPE_ENCODING || cpg == UTF8_ENC {
		out = shp
		return
	}
	// cpg为空，或者不为UTF-8的，都当作GBK编码处理
	sds, err := gdal.OpenEx(shp, gdal.OFVector, nil, []string{OO_ENCODING}, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		return
	}
	defer sds.Close()
	log.Info(g.logTag+"start encoding shp", zap.String("shp", shp), zap.String("cpg", cpg))
	prefix := strings.TrimSuffix(shp, FILE_EXT_SHP)
	out = prefix + fmt.Sprintf("_%s"+FILE_EXT_SHP, cpg)
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, []string{"-lco", ENCODING_OPTION})
	if err != nil {
		log.Error(g.logTag + "VectorTranslate failed")
		return
	}
	dds.Close() // 生成转换后的shp文件

	if rmOld {
		if e := sds.Driver().DeleteDataset(shp); e != nil {
			log.Info(g.logTag+"delete old shp failed", zap.Error(e))
		}
	}
	log.Info(g.logTag+"end encoding shp", zap.String("shp", out))
	return
}

// 解出zip包中的水体shp（及其附属文件）至tmpDir下的独立子目录，解压完成后源zip会被删除；
// 返回shp路径与其dbf编码是否为UTF-8，供EncodingShapefile、GetClassesInShapefile接续处理
func (g *HydroToolbox) ExtractWaterShpZip(zipFile string) (shp string, utf8 bool, err error) {
	dir, err := utils.GetUniqSubDir(g.tmpDir)
	if err != nil {
		log.Error(g.logTag+"create tmp dir failed", zap.Error(err))
		return
	}
	if shp, utf8, err = utils.GetShpInZip(zipFile, dir); err != nil {
		log.Error(g.logTag+"extract shp zip failed", zap.String("zip", zipFile), zap.Error(err))
		return
	}
	log.Info(g.logTag+"extracted water shp", zap.String("zip", zipFile), zap.String("shp", shp), zap.Bool("utf8", utf8))
	return
}

// 获取水体shp中出现过的类别集合，utf8标明dbf属性编码，为false时按GBK向UTF-8转码
func (g *HydroToolbox) GetClassesInShapefile(shp string, utf8 bool) (classes []string, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	classIdx := layer.Definition().FieldIndex(SHP_FIELD_CLASS)
	if classIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, SHP_FIELD_CLASS)
		return
	}
	var (
		classSet = map[string]struct{}{}
		feature  *gdal.Feature
		cls      string
		cnt      int
		e        error
		gc       []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature != nil {
			gc = append(gc, *feature)
			cls = feature.FieldAsString(classIdx)
			if cls == "" {
				err = fmt.Errorf(ErrColumnEmptyTemplate, SHP_FIELD_CLASS)
				return
			}
			if !utf8 {
				if cls, e = utils.GbkStrToUtf8(cls); e != nil {
					log.Error(g.logTag+"err in trans-encoding class", zap.Int64("fid", feature.FID()), zap.Error(e))
					continue
				}
			}
			classSet[cls] = struct{}{}
			cnt++
		} else {
			break
		}
	}
	for k := range classSet {
		classes = append(classes, k)
	}
	log.Info(g.logTag+"got classes from shp", zap.String("file", shp), zap.Any("classes", classes), zap.Int("cnt", cnt))
	return
}

// 从shp文件中解析出分类水体要素
func (g *HydroToolbox) ParseWaterShapefile(shp string) (ret []WaterFeature, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	def := layer.Definition()
	classIdx := def.FieldIndex(SHP_FIELD_CLASS)
	if classIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, SHP_FIELD_CLASS)
		return
	}
	var (
		areaIdx  = def.FieldIndex(SHP_FIELD_AREA)
		perimIdx = fieldIndexOf(def, SHP_FIELD_PERIM, SHP_FIELD_PERIM_DBF)
		elongIdx = def.FieldIndex(SHP_FIELD_ELONG)
		axisIdx  = def.FieldIndex(SHP_FIELD_AXIS)
	)
	n := 128
	if nf, _ := layer.FeatureCount(false); nf > 0 {
		n = nf
	}
	ret = make([]WaterFeature, 0, n)
	var (
		feature *gdal.Feature
		geo     gdal.Geometry
		wkb     []byte
		e       error
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		geo = feature.Geometry()
		if wkb, e = geo.ToWKB(); e != nil {
			log.Error(g.logTag+"err in wkb convert", zap.Int64("fid", feature.FID()), zap.Error(e))
			continue
		}
		wf := WaterFeature{
			Geom:  wkb,
			Class: feature.FieldAsString(classIdx),
		}
		if areaIdx >= 0 {
			wf.Area = feature.FieldAsFloat64(areaIdx)
		}
		if perimIdx >= 0 {
			wf.Perimeter = feature.FieldAsFloat64(perimIdx)
		}
		if elongIdx >= 0 {
			wf.Elongation = feature.FieldAsFloat64(elongIdx)
		}
		if axisIdx >= 0 {
			wf.MainAxis = feature.FieldAsFloat64(axisIdx)
		}
		ret = append(ret, wf)
	}
	log.Info(g.logTag+"parsed water shp", zap.String("shp", shp), zap.Int("cnt", len(ret)))
	return
}

// 更新shp文件中的水体类别，remap为旧类别到新类别的映射，未出现在remap中的类别保持不变；
// 可通过zone shp（两个shp坐标系要一致）圈定保留范围，范围外的要素将被删除
func (g *HydroToolbox) UpdateClassInShapefile(shp, zone string, remap map[string]string) (err error) {
	needUpdate := false
	for key, cls := range remap {
		if key != cls {
			needUpdate = true
			break
		}
	}
	if !needUpdate && zone == "" {
		return
	}
	log.Info(g.logTag+"update class in shp", zap.Any("remap", remap), zap.String("zoneShp", zone))
	mz := emptyGeometry
	if zone != "" {
		if mz, err = g.parseShp(zone, true); err != nil {
			return
		}
		defer mz.Destroy()
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 1)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	classIdx := layer.Definition().FieldIndex(SHP_FIELD_CLASS)
	if classIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, SHP_FIELD_CLASS)
		return
	}
	var (
		feature *gdal.Feature
		cls     string
		nc      string
		e       error
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature != nil {
			gc = append(gc, *feature)
			if mz != emptyGeometry && !mz.Contains(feature.Geometry()) {
				layer.Delete(feature.FID())
				continue
			}
			if !needUpdate {
				continue
			}
			cls = feature.FieldAsString(classIdx)
			if nc = remap[cls]; nc == "" || nc == cls {
				continue
			}
			feature.SetFieldString(classIdx, nc)
			if e = layer.SetFeature(*feature); e != nil {
				log.Error(g.logTag+"err in set feature of layer", zap.Error(e))
			}
		} else {
			return
		}
	}
}

func (g *HydroToolbox) getShpDriver(shp string, srid int) (ds gdal.DataSource, ref gdal.SpatialReference, layer gdal.Layer, err error) {
	log.Info(g.logTag+"output shp files", zap.String("shp", shp), zap.Int("srid", srid))
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	if ref, err = g.getSridRef(srid); err != nil {
		return
	}
	layer = ds.CreateLayer("", ref, gdal.GT_Unknown, []string{ENCODING_OPTION})
	return
}

// 同getShpDriver，但直接沿用给定坐标系
func (g *HydroToolbox) getShpDriverRef(shp string, ref gdal.SpatialReference) (ds gdal.DataSource, layer gdal.Layer, err error) {
	log.Info(g.logTag+"output shp files", zap.String("shp", shp))
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	layer = ds.CreateLayer("", ref, gdal.GT_Unknown, []string{ENCODING_OPTION})
	return
}

// 初始化水体图层字段：DN、面积、周长、伸长率、主轴及类别
func (g *HydroToolbox) initWaterLayer(layer gdal.Layer) (err error) {
	dn := gdal.CreateFieldDefinition(SHP_FIELD_DN, gdal.FT_Integer)
	if err = layer.CreateField(dn, false); err != nil {
		return
	}
	for _, name := range []string{SHP_FIELD_AREA, SHP_FIELD_PERIM, SHP_FIELD_ELONG, SHP_FIELD_AXIS} {
		fd := gdal.CreateFieldDefinition(name, gdal.FT_Real)
		if err = layer.CreateField(fd, false); err != nil {
			return
		}
	}
	cls := gdal.CreateFieldDefinition(SHP_FIELD_CLASS, gdal.FT_String)
	cls.SetWidth(32)
	err = layer.CreateField(cls, false)
	return
}

// dbf字段名超长时会被截断，按原名查不到时再按截断名查
func fieldIndexOf(def gdal.FeatureDefinition, name, altName string) (idx int) {
	if idx = def.FieldIndex(name); idx < 0 && altName != "" {
		idx = def.FieldIndex(altName)
	}
	return
}

// 将分类水体要素写入shp，srid为要素WKB的坐标系
func (g *HydroToolbox) WriteWaterShapefile(shp string, srid int, feats ...WaterFeature) (err error) {
	ds, ref, layer, err := g.getShpDriver(shp, srid)
	if err != nil {
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	if err = g.initWaterLayer(layer); err != nil {
		return
	}
	var (
		def      = layer.Definition()
		dnIdx    = def.FieldIndex(SHP_FIELD_DN)
		areaIdx  = def.FieldIndex(SHP_FIELD_AREA)
		perimIdx = fieldIndexOf(def, SHP_FIELD_PERIM, SHP_FIELD_PERIM_DBF)
		elongIdx = def.FieldIndex(SHP_FIELD_ELONG)
		axisIdx  = def.FieldIndex(SHP_FIELD_AXIS)
		classIdx = def.FieldIndex(SHP_FIELD_CLASS)
		feature  gdal.Feature
		geo      gdal.Geometry
		cnt      int
		e        error
		gc       = make([]destroyable, len(feats))
	)
	for i, vec := range feats {
		feature = def.Create()
		gc[i] = feature
		if e = feature.SetFID(int64(i)); e != nil {
			log.Error(g.logTag+"err in set feature fid", zap.Error(e))
			continue
		}
		feature.SetFieldInteger(dnIdx, 1)
		feature.SetFieldFloat64(areaIdx, vec.Area)
		feature.SetFieldFloat64(perimIdx, vec.Perimeter)
		feature.SetFieldFloat64(elongIdx, vec.Elongation)
		feature.SetFieldFloat64(axisIdx, vec.MainAxis)
		feature.SetFieldString(classIdx, vec.Class)
		if geo, e = g.parseWKB(vec.Geom, ref); e != nil {
			continue
		}
		if e = feature.SetGeometryDirectly(geo); e != nil {
			log.Error(g.logTag+"err in set geom of feature", zap.Error(e))
			continue
		}
		if e = layer.Create(feature); e != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Error(e))
			continue
		}
		cnt++
	}
	for _, v := range gc {
		v.Destroy()
	}
	log.Info(g.logTag+"water shp created", zap.String("shp", shp), zap.Int("total", len(feats)), zap.Int("valid", cnt))
	return
}

// 汇集水体shp中全部面要素，合并为单个MultiPolygon（只有一个面时退为Polygon），并转换至4326；
// 输入应为分类结果或仅含水体要素的shp
func (g *HydroToolbox) getGeoFromWaterShp(shp string) (mergedGeo gdal.Geometry, srid, pCnt int, err error) {
	mergedGeo = gdal.Create(gdal.GT_MultiPolygon)
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	var (
		layer = ds.LayerByIndex(0)
		trans gdal.CoordinateTransform
	)
	sRef := layer.SpatialReference()
	srid, err = g.getSrid(sRef)
	if err != nil {
		return
	}
	var (
		feature *gdal.Feature
		geo     gdal.Geometry
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	needTrans := srid != UNIVERSAL_SRID
	if needTrans {
		var tRef gdal.SpatialReference
		if tRef, err = g.getSridRef(UNIVERSAL_SRID); err != nil {
			return
		}
		trans = gdal.CreateCoordinateTransform(sRef, tRef)
		gc = append(gc, trans)
	}
	for {
		if feature = layer.NextFeature(); feature != nil {
			gc = append(gc, *feature)
			geo = feature.StealGeometry()
			if needTrans {
				if err = geo.Transform(trans); err != nil {
					return
				}
			}
			switch geo.Type() {
			case gdal.GT_Polygon:
				if err = mergedGeo.AddGeometryDirectly(geo); err != nil {
					return
				}
				continue
			case gdal.GT_MultiPolygon:
				for i, pn := 0, geo.GeometryCount(); i < pn; i++ {
					if err = mergedGeo.AddGeometryDirectly(geo.Geometry(0)); err != nil {
						return
					}
					if err = geo.RemoveGeometry(0, false); err != nil {
						return
					}
				}
			}
			geo.Destroy()
		} else {
			break
		}
	}
	pCnt = mergedGeo.GeometryCount()
	if pCnt == 1 {
		geo = mergedGeo.Geometry(0)
		mergedGeo.RemoveGeometry(0, false)
		mergedGeo.Destroy()
		mergedGeo = geo
	}
	return
}

// 将水体shp转为单个WKT（srid=4326）
func (g *HydroToolbox) GetWktOfWaterShp(shp string) (ret string, err error) {
	log.Info(g.logTag+"start water shp wkt trans", zap.String("shp", shp))
	mg, srid, pCnt, err := g.getGeoFromWaterShp(shp)
	if pCnt > 0 {
		ret, err = mg.ToWKT()
	}
	mg.Destroy()
	log.Info(g.logTag+"got wkt from water shp", zap.String("shp", shp), zap.Int("srid", srid), zap.Int("cnt", pCnt), zap.Error(err))
	return
}

// 将水体shp转为单个WKB（srid=4326）
func (g *HydroToolbox) GetWkbOfWaterShp(shp string) (ret GdalGeo, err error) {
	log.Info(g.logTag+"start water shp wkb trans", zap.String("shp", shp))
	mg, srid, pCnt, err := g.getGeoFromWaterShp(shp)
	if pCnt > 0 {
		ret, err = mg.ToWKB()
	}
	mg.Destroy()
	log.Info(g.logTag+"got wkb from water shp", zap.String("shp", shp), zap.Int("srid", srid), zap.Int("cnt", pCnt), zap.Error(err))
	return
}
