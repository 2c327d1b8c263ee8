package hydrolib

const (
	FILE_EXT_SHP  = ".shp"
	FILE_EXT_SHX  = ".shx"
	FILE_EXT_DBF  = ".dbf"
	FILE_EXT_PRJ  = ".prj"
	FILE_EXT_CPG  = ".cpg"
	FILE_EXT_JSON = ".json"

	SHAPE_ENCODING  = "UTF-8"
	UTF8_ENC        = "UTF8"
	ZH_ENC          = "GBK"
	SHP_DRIVER_NAME = "ESRI Shapefile"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING
	OO_ENCODING     = "ENCODING=" + ZH_ENC
	UNIVERSAL_SRID  = 4326
	GEOJSON_SRID    = 4326
	WKT_ALG_SRID    = 3857

	ErrColumnMissingTemplate = `shp文件中缺失【%s】字段`
	ErrColumnEmptyTemplate   = `shp文件要素中【%s】字段为空`

	// 灰度级数（大津法在8位直方图上求阈值）
	GRAY_LEVELS = 256

	SHP_FIELD_DN    = "DN"
	SHP_FIELD_AREA  = "area_m2"
	SHP_FIELD_PERIM = "perimeter_m"
	// ESRI Shapefile字段名超过10字符会被截断，读取时需同时尝试截断名
	SHP_FIELD_PERIM_DBF = "perimeter_"
	SHP_FIELD_ELONG     = "elongation"
	SHP_FIELD_AXIS      = "main_axis"
	SHP_FIELD_CLASS     = "class"

	CLASS_RIVER = "River"
	CLASS_LAKE  = "Lake"
	CLASS_CREEK = "Creek"
	CLASS_POND  = "Pond"
	CLASS_WATER = "Water"

	MergeBufferDistance = 0.005
	MergeBufferMeter    = 0.00001
	MergeBufferSegs     = 24
	CoverageThreshold   = 0.9999

	SimplifyT = 1.0

	// GDALPolygonize连通性选项，默认为4连通
	EIGHT_CONNECTED_OPTION = "8CONNECTED=8"

	TMP_POLY_SHP = "poly_%s.shp"
	TMP_GEOJSON  = "geo_%s.json"
)
