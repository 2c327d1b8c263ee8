package hydrolib

import "encoding/json"

type AnyJson = json.RawMessage

type GdalGeo = []byte

// 水体要素
type WaterFeature struct {
	Geom       GdalGeo // 水体的矢量面WKB
	Area       float64 // 面积（平方米）
	Perimeter  float64 // 周长（米）
	Elongation float64 // 伸长率（最小外接矩形长边/短边）
	MainAxis   float64 // 主轴长度（最小外接矩形长边）
	Class      string  // 类别标签
}

// 各类别水体计数
type ClassCounts = map[string]int

// 目标区域矢量
type WaterZone struct {
	Id   int
	Geom GdalGeo
}

// 任务反馈接口，由调用方实现，用于进度上报、消息透出与协同取消
type Feedback interface {
	Progress(percent int)
	Info(msg string)
	Canceled() bool
}

type nopFeedback struct{}

func (nopFeedback) Progress(int) {}

func (nopFeedback) Info(string) {}

func (nopFeedback) Canceled() bool { return false }

func pickFeedback(fb []Feedback) Feedback {
	if len(fb) > 0 && fb[0] != nil {
		return fb[0]
	}
	return nopFeedback{}
}
