package preprocess

// defaultThreshold is used when no split of the histogram separates two classes,
// e.g. a uniformly colored image.
const defaultThreshold = 128

// OtsuThreshold picks the gray level that maximizes the between-class variance
// of hist. Only a strictly larger variance replaces the current best, so the
// lowest threshold wins ties.
func OtsuThreshold(hist [256]int, total int) uint8 {
	var sum float64
	for t, n := range hist {
		sum += float64(t * n)
	}

	var (
		sumB        float64
		wB          int
		maxVariance float64
		threshold   = defaultThreshold
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF <= 0 {
			break
		}
		sumB += float64(t * hist[t])

		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		variance := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)

		if variance > maxVariance {
			maxVariance = variance
			threshold = t
		}
	}
	return uint8(threshold)
}
