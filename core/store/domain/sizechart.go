package domain

import "strconv"

const SizeNotApplicable = "N/A"

var sizeChart = func() []string {
	chart := []string{SizeNotApplicable, "One size fits all", "XS", "S", "M", "L", "XL", "XXL", "XXXL"}
	for n := 20; n <= 60; n++ {
		chart = append(chart, strconv.Itoa(n))
	}
	return chart
}()

var sizeIndex = func() map[string]struct{} {
	m := make(map[string]struct{}, len(sizeChart))
	for _, s := range sizeChart {
		m[s] = struct{}{}
	}
	return m
}()

// SizeChart returns the accepted size values in display order.
func SizeChart() []string {
	out := make([]string, len(sizeChart))
	copy(out, sizeChart)
	return out
}

func ValidSize(v string) bool {
	_, ok := sizeIndex[v]
	return ok
}
