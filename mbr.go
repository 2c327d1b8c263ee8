package hydrolib

import (
	"math"
	"sort"
)

// 有向最小外接矩形求解能力。分类逻辑仅依赖此接口，默认实现为纯Go凸包+旋转卡壳，
// 调用方可注入其他实现（如基于GEOS的求解器）
type MBRSolver interface {
	OrientedMBR(pts [][2]float64) (rect MBRect, ok bool)
}

// 有向最小外接矩形，四角点依次相邻
type MBRect struct {
	Corners [4][2]float64
}

// 相邻两边边长
func (r MBRect) SideLengths() (a, b float64) {
	a = pointDist(r.Corners[0], r.Corners[1])
	b = pointDist(r.Corners[1], r.Corners[2])
	return
}

// 主轴长度（长边）
func (r MBRect) MainAxis() float64 {
	a, b := r.SideLengths()
	return math.Max(a, b)
}

// 伸长率（长边/短边），短边为0时按1计
func (r MBRect) Elongation() float64 {
	a, b := r.SideLengths()
	w, h := math.Min(a, b), math.Max(a, b)
	if w == 0 {
		return 1
	}
	return h / w
}

type caliperSolver struct{}

// 旋转卡壳求最小面积外接矩形：最小矩形必有一边与凸包某边共线
func (caliperSolver) OrientedMBR(pts [][2]float64) (rect MBRect, ok bool) {
	hull := convexHull(pts)
	n := len(hull)
	if n < 3 {
		return
	}
	minArea := math.Inf(1)
	for i := 0; i < n; i++ {
		p, q := hull[i], hull[(i+1)%n]
		ex, ey := q[0]-p[0], q[1]-p[1]
		el := math.Hypot(ex, ey)
		if el == 0 {
			continue
		}
		ux, uy := ex/el, ey/el
		vx, vy := -uy, ux
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, h := range hull {
			pu := h[0]*ux + h[1]*uy
			pv := h[0]*vx + h[1]*vy
			minU = math.Min(minU, pu)
			maxU = math.Max(maxU, pu)
			minV = math.Min(minV, pv)
			maxV = math.Max(maxV, pv)
		}
		area := (maxU - minU) * (maxV - minV)
		if area < minArea {
			minArea = area
			rect.Corners = [4][2]float64{
				{ux*minU + vx*minV, uy*minU + vy*minV},
				{ux*maxU + vx*minV, uy*maxU + vy*minV},
				{ux*maxU + vx*maxV, uy*maxU + vy*maxV},
				{ux*minU + vx*maxV, uy*minU + vy*maxV},
			}
			ok = true
		}
	}
	return
}

// Andrew单调链求凸包，返回逆时针顶点序列（首尾不重复）；
// 不足三个独立顶点（含全共线）时返回nil
func convexHull(pts [][2]float64) (hull [][2]float64) {
	if len(pts) < 3 {
		return
	}
	ps := make([][2]float64, len(pts))
	copy(ps, pts)
	sort.Slice(ps, func(i, j int) bool {
		if ps[i][0] != ps[j][0] {
			return ps[i][0] < ps[j][0]
		}
		return ps[i][1] < ps[j][1]
	})
	uniq := ps[:1]
	for _, p := range ps[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return
	}
	var lower, upper [][2]float64
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	hull = append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		hull = nil
	}
	return
}

func cross(o, a, b [2]float64) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func pointDist(a, b [2]float64) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}
