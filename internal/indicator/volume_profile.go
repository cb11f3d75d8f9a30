package indicator

const (
	profileBuckets   = 10
	valueAreaPercent = 0.70
)

// computeVolumeProfile 把窗口内成交量按收盘价分到等宽价格桶里：
// POC 为累计量最高的桶；价值区间从 POC 向两侧贪心扩张，直到覆盖
// 70% 的总量，返回覆盖桶的上下边界。
func computeVolumeProfile(closes, volumes []float64) VolumeProfile {
	if len(closes) == 0 || len(closes) != len(volumes) {
		return VolumeProfile{}
	}
	lo, hi := closes[0], closes[0]
	var total float64
	for i, p := range closes {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
		total += volumes[i]
	}
	if hi == lo || total <= 0 {
		return VolumeProfile{}
	}

	width := (hi - lo) / profileBuckets
	buckets := make([]float64, profileBuckets)
	for i, p := range closes {
		idx := int((p - lo) / width)
		if idx >= profileBuckets {
			idx = profileBuckets - 1
		}
		buckets[idx] += volumes[i]
	}

	poc := 0
	for i, v := range buckets {
		if v > buckets[poc] {
			poc = i
		}
	}

	covered := buckets[poc]
	loIdx, hiIdx := poc, poc
	for covered < total*valueAreaPercent {
		// 优先吞并量更大的相邻桶，保持区间连续。
		var below, above float64
		if loIdx > 0 {
			below = buckets[loIdx-1]
		}
		if hiIdx < profileBuckets-1 {
			above = buckets[hiIdx+1]
		}
		switch {
		case loIdx == 0 && hiIdx == profileBuckets-1:
			covered = total
		case loIdx > 0 && (hiIdx == profileBuckets-1 || below >= above):
			loIdx--
			covered += below
		default:
			hiIdx++
			covered += above
		}
	}

	mid := func(i int) float64 { return lo + width*(float64(i)+0.5) }
	return VolumeProfile{
		PointOfControl: defined(mid(poc)),
		ValueAreaHigh:  defined(lo + width*float64(hiIdx+1)),
		ValueAreaLow:   defined(lo + width*float64(loIdx)),
	}
}
