package raster

import "math"

// smooth applies a Gaussian blur of the given sigma to a w*h row major
// field. NaN samples neither receive nor contribute weight; the kernel is
// renormalized over the remaining neighbors.
func smooth(z []float64, w, h int, sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, radius+1)
	for i := range kernel {
		kernel[i] = math.Exp(-float64(i*i) / (2 * sigma * sigma))
	}

	out := make([]float64, len(z))
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			i := r*w + c
			if math.IsNaN(z[i]) {
				out[i] = z[i]
				continue
			}
			var sum, weight float64
			for dr := -radius; dr <= radius; dr++ {
				rr := r + dr
				if rr < 0 || rr >= h {
					continue
				}
				for dc := -radius; dc <= radius; dc++ {
					cc := c + dc
					if cc < 0 || cc >= w {
						continue
					}
					v := z[rr*w+cc]
					if math.IsNaN(v) {
						continue
					}
					k := kernel[abs(dr)] * kernel[abs(dc)]
					sum += k * v
					weight += k
				}
			}
			out[i] = sum / weight
		}
	}
	return out
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
