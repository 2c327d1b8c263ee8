package hydrolib

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wgdzlh/hydrolib/log"
	"github.com/wgdzlh/hydrolib/utils"

	gdal "github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	gdal.RegisterAll()
}

// 单波段指数栅格及其地理参数
type indexRaster struct {
	buf       []float64
	width     int
	height    int
	gt        [6]float64
	proj      string
	nodata    float64
	hasNodata bool
}

// 读取指数Tif首波段（任意数值类型统一转为float64），并带出地理变换、投影与nodata
func (g *HydroToolbox) readIndexRaster(tif string) (ri *indexRaster, err error) {
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer sds.Close()
	tifBands := sds.Bands()
	if len(tifBands) == 0 {
		log.Error(g.logTag+"tif has no band", zap.String("tif", tif))
		err = ErrWrongTif
		return
	}
	band := tifBands[0]
	bandStruct := band.Structure()
	ri = &indexRaster{
		width:  bandStruct.SizeX,
		height: bandStruct.SizeY,
	}
	if ri.gt, err = sds.GeoTransform(); err != nil {
		log.Error(g.logTag+"tif has no geo transform", zap.Error(err))
		err = ErrWrongTif
		return
	}
	ri.proj = sds.Projection()
	ri.nodata, ri.hasNodata = band.NoData()
	log.Info(g.logTag+"read index tif", zap.String("tif", tif), zap.Int("dt", int(bandStruct.DataType)),
		zap.Int("width", ri.width), zap.Int("height", ri.height), zap.Bool("hasNodata", ri.hasNodata))
	ri.buf = make([]float64, ri.width*ri.height)
	if err = band.IO(gdal.IORead, 0, 0, ri.buf, ri.width, ri.height); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.Error(err))
		err = ErrTifReadFailed
	}
	return
}

// 将二值掩膜写出为Byte型GTiff，地理参数沿用源栅格，nodata=0；中途失败则删除残留的输出文件
func (g *HydroToolbox) writeMaskRaster(out string, mask []byte, ri *indexRaster) (err error) {
	ds, err := gdal.Create(gdal.GTiff, out, 1, gdal.Byte, ri.width, ri.height)
	if err != nil {
		log.Error(g.logTag+"create mask tif failed", zap.Error(err))
		err = ErrGdalDriverCreate
		return
	}
	defer func() {
		if ds != nil {
			ds.Close()
		}
		if err != nil {
			os.Remove(out)
		}
	}()
	if err = ds.SetGeoTransform(ri.gt); err != nil {
		log.Error(g.logTag+"set mask geo transform failed", zap.Error(err))
		err = ErrTifWriteFailed
		return
	}
	if err = ds.SetProjection(ri.proj); err != nil {
		log.Error(g.logTag+"set mask projection failed", zap.Error(err))
		err = ErrTifWriteFailed
		return
	}
	band := ds.Bands()[0]
	if err = band.SetNoData(0); err != nil {
		log.Error(g.logTag+"set mask nodata failed", zap.Error(err))
		err = ErrTifWriteFailed
		return
	}
	if err = band.IO(gdal.IOWrite, 0, 0, mask, ri.width, ri.height); err != nil {
		log.Error(g.logTag+"write mask band failed", zap.Error(err))
		err = ErrTifWriteFailed
		return
	}
	e := ds.Close()
	ds = nil
	if e != nil {
		log.Error(g.logTag+"close mask tif failed", zap.Error(e))
		err = ErrTifWriteFailed
	}
	return
}

// 按目标区域WKT（srid=4326）剪切指数栅格，常用于分割前截取感兴趣区
func (g *HydroToolbox) ClipRasterToZone(tif, zoneWkt, out string) (err error) {
	ref, err := g.getSridRef(UNIVERSAL_SRID)
	if err != nil {
		return
	}
	zone, err := g.parseWKT(zoneWkt, ref)
	if err != nil {
		return
	}
	geoJson := utils.S2B(zone.ToJSON())
	zone.Destroy()
	tmpGeoJson := filepath.Join(g.tmpDir, fmt.Sprintf(TMP_GEOJSON, uuid.NewString()))
	if err = os.WriteFile(tmpGeoJson, geoJson, os.ModePerm); err != nil {
		return
	}
	defer os.Remove(tmpGeoJson)
	sds, err := gdal.Open(tif, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer sds.Close()
	log.Info(g.logTag+"clip raster to zone", zap.String("tif", tif), zap.String("out", out))
	ods, err := gdal.Warp(out, []*gdal.Dataset{sds}, []string{"-cutline", tmpGeoJson, "-crop_to_cutline", "-overwrite", "-co", "compress=lzw"})
	if err != nil {
		log.Error(g.logTag+"failed to clip raster", zap.Error(err))
		return
	}
	ods.Close()
	return
}

// 将分类结果shp中的水体面要素按参考掩膜的格网烧回Byte栅格（1为水体，0为背景兼nodata），
// 可用于核对矢量化结果是否无损
func (g *HydroToolbox) RasterizeWaterMask(shp, refTif, out string) (err error) {
	rds, err := gdal.Open(refTif, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open ref tif failed", zap.Error(err))
		err = ErrInvalidTif
		return
	}
	tifBands := rds.Bands()
	if len(tifBands) == 0 {
		rds.Close()
		err = ErrWrongTif
		return
	}
	bandStruct := tifBands[0].Structure()
	w, h := bandStruct.SizeX, bandStruct.SizeY
	gt, err := rds.GeoTransform()
	rds.Close()
	if err != nil {
		log.Error(g.logTag+"ref tif has no geo transform", zap.Error(err))
		err = ErrWrongTif
		return
	}
	span := RasterSpan(gt, w, h)
	vds, err := gdal.Open(shp, gdal.VectorOnly())
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		err = ErrGdalDriverOpen
		return
	}
	defer vds.Close()
	log.Info(g.logTag+"rasterize water shp", zap.String("shp", shp), zap.Int("width", w), zap.Int("height", h))
	ods, err := vds.Rasterize(out, []string{
		"-a", SHP_FIELD_DN,
		"-ot", "Byte",
		"-init", "0",
		"-a_nodata", "0",
		"-ts", strconv.Itoa(w), strconv.Itoa(h),
		"-te", formatCoord(span[0]), formatCoord(span[2]), formatCoord(span[1]), formatCoord(span[3]),
	})
	if err != nil {
		log.Error(g.logTag+"failed to rasterize shp", zap.Error(err))
		return
	}
	ods.Close()
	return
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
