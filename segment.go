package hydrolib

import (
	"fmt"
	"math"

	"github.com/wgdzlh/hydrolib/log"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// 大津法阈值分割单波段指数Tif，生成同尺寸同地理参数的二值水体掩膜（1为水体，0为背景兼nodata），
// 返回换算回原始量纲的分割阈值。样本全为nodata/NaN时返回ErrNoValidSamples，
// 有效样本恒定无法分割时返回ErrFlatRaster
func (g *HydroToolbox) OtsuWaterMask(tif, out string, fb ...Feedback) (threshold float64, err error) {
	f := pickFeedback(fb)
	ri, err := g.readIndexRaster(tif)
	if err != nil {
		return
	}
	valid := make([]float64, 0, len(ri.buf))
	for _, v := range ri.buf {
		if (ri.hasNodata && v == ri.nodata) || math.IsNaN(v) {
			continue
		}
		valid = append(valid, v)
	}
	if len(valid) == 0 {
		log.Error(g.logTag+"no valid samples in tif", zap.String("tif", tif))
		err = ErrNoValidSamples
		return
	}
	lo, hi := floats.Min(valid), floats.Max(valid)
	if lo == hi {
		log.Error(g.logTag+"tif valid samples are constant", zap.String("tif", tif), zap.Float64("value", lo))
		err = ErrFlatRaster
		return
	}
	hist := grayHistogram(valid, lo, hi)
	level := otsuThreshold(hist)
	threshold = lo + float64(level)/(GRAY_LEVELS-1)*(hi-lo)
	log.Info(g.logTag+"otsu threshold", zap.String("tif", tif), zap.Int("level", level),
		zap.Float64("threshold", threshold), zap.Float64("lo", lo), zap.Float64("hi", hi),
		zap.Int("valid", len(valid)))
	f.Info(fmt.Sprintf("otsu threshold: %f", threshold))
	mask := binarize(ri.buf, threshold, ri.nodata, ri.hasNodata)
	if err = g.writeMaskRaster(out, mask, ri); err != nil {
		return
	}
	log.Info(g.logTag+"water mask created", zap.String("out", out),
		zap.Int("width", ri.width), zap.Int("height", ri.height))
	return
}
