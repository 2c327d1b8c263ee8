package hydrolib

import "testing"

func TestClassOf(t *testing.T) {
	cases := []struct {
		name string
		m    waterMetrics
		want string
	}{
		{"river", waterMetrics{area: 1e6, elongation: 5, mainAxis: 9000}, CLASS_RIVER},
		{"lake", waterMetrics{area: 600000, elongation: 1.5, mainAxis: 500}, CLASS_LAKE},
		{"creek", waterMetrics{area: 15000, elongation: 3, mainAxis: 200}, CLASS_CREEK},
		{"pond", waterMetrics{area: 5000, elongation: 1.2, mainAxis: 50}, CLASS_POND},
		{"water", waterMetrics{area: 30000, elongation: 1.5, mainAxis: 100}, CLASS_WATER},
		// 规则顺序优先：同时满足河流与沟汊、坑塘条件时取河流
		{"order", waterMetrics{area: 5000, elongation: 5, mainAxis: 9000}, CLASS_RIVER},
		// 阈值为严格比较，临界值不命中
		{"boundary-river", waterMetrics{area: 9999, elongation: 2, mainAxis: 8000}, CLASS_POND},
		{"boundary-lake", waterMetrics{area: 500000, elongation: 1, mainAxis: 100}, CLASS_WATER},
	}
	for _, c := range cases {
		if got := classOf(DefaultClassThresholds, c.m); got != c.want {
			t.Errorf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestClassOfCustomThresholds(t *testing.T) {
	ct := DefaultClassThresholds
	ct.PondMaxArea = 100
	m := waterMetrics{area: 5000, elongation: 1.2, mainAxis: 50}
	if got := classOf(ct, m); got != CLASS_WATER {
		t.Fatalf("got %s, want %s", got, CLASS_WATER)
	}
}
