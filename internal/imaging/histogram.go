package imaging

import "math"

// Histogram counts 8-bit samples into 256 bins.
func Histogram(samples []uint8) [256]int {
	var hist [256]int
	for _, v := range samples {
		hist[v]++
	}
	return hist
}

// Entropy returns the Shannon entropy of the histogram in bits.
func Entropy(hist [256]int) float64 {
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 0
	}
	var e float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		e -= p * math.Log2(p)
	}
	return e
}
