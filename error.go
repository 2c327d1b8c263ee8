package hydrolib

import "errors"

var (
	ErrGdalDriverCreate = errors.New("gdal driver create err")
	ErrGdalDriverOpen   = errors.New("gdal driver open err")
	ErrGdalEmptyShp     = errors.New("gdal shp is empty")
	ErrVoidSrid         = errors.New("gdal shp with void srid")
	ErrGdalWrongGeoType = errors.New("gdal wrong geo type")
	ErrGdalWrongGeoJSON = errors.New("gdal wrong GeoJSON")
	ErrInvalidWKT       = errors.New("invalid WKT")
	ErrInvalidTif       = errors.New("invalid tif")
	ErrWrongTif         = errors.New("wrong tif")
	ErrTifReadFailed    = errors.New("tif read failed")
	ErrTifWriteFailed   = errors.New("tif write failed")
	ErrNoValidSamples   = errors.New("no valid samples in tif")
	ErrFlatRaster       = errors.New("tif valid samples are constant")
	ErrEmptyMask        = errors.New("water mask is empty")
	ErrPolygonizeFailed = errors.New("polygonize failed")
)
