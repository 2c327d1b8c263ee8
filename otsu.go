package hydrolib

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// 将有效样本线性缩放到[0,255]并统计灰度直方图，lo/hi为样本最小/最大值且lo<hi
func grayHistogram(samples []float64, lo, hi float64) (hist [GRAY_LEVELS]float64) {
	scale := float64(GRAY_LEVELS-1) / (hi - lo)
	for _, v := range samples {
		hist[int(math.Round((v-lo)*scale))]++
	}
	return
}

// 大津法求灰度直方图的最佳分割点：遍历256个候选分割点t，
// 以{灰度<t}和{灰度>=t}两类的类间方差最大者为最佳，同分取最小t
func otsuThreshold(hist [GRAY_LEVELS]float64) (t int) {
	var (
		cum      [GRAY_LEVELS]float64
		cumMean  [GRAY_LEVELS]float64
		weighted [GRAY_LEVELS]float64
	)
	for i, h := range hist {
		weighted[i] = float64(i) * h
	}
	floats.CumSum(cum[:], hist[:])
	floats.CumSum(cumMean[:], weighted[:])
	var (
		total  = cum[GRAY_LEVELS-1]
		sum    = cumMean[GRAY_LEVELS-1]
		maxVar float64
	)
	for k := 1; k < GRAY_LEVELS; k++ {
		wB := cum[k-1]
		wF := total - wB
		if wB == 0 || wF == 0 {
			continue
		}
		mB := cumMean[k-1] / wB
		mF := (sum - cumMean[k-1]) / wF
		v := wB * wF * (mB - mF) * (mB - mF)
		if v > maxVar { // 严格大于，保证同分时保留最小分割点
			maxVar = v
			t = k
		}
	}
	return
}

// 按阈值将原始样本二值化，再将nodata像元清零（顺序不可颠倒）；NaN比较恒为false，落入0
func binarize(buf []float64, threshold, nodata float64, hasNodata bool) (mask []byte) {
	mask = make([]byte, len(buf))
	for i, v := range buf {
		if v >= threshold {
			mask[i] = 1
		}
	}
	if hasNodata {
		for i, v := range buf {
			if v == nodata {
				mask[i] = 0
			}
		}
	}
	return
}
