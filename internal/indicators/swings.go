package indicators

import "github.com/tradestack/regime/models"

// SwingPoints returns the indexes of swing highs and swing lows in the bar
// sequence. A bar is a swing high when its high exceeds the highs of the
// `strength` bars on each side, and symmetrically for swing lows.
func SwingPoints(bars []models.Bar, strength int) (highs, lows []int) {
	for i := strength; i < len(bars)-strength; i++ {
		isHigh, isLow := true, true
		for j := i - strength; j <= i+strength; j++ {
			if j == i {
				continue
			}
			if bars[j].High > bars[i].High {
				isHigh = false
			}
			if bars[j].Low < bars[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, i)
		}
		if isLow {
			lows = append(lows, i)
		}
	}
	return highs, lows
}

// priceActionChunks segments the lookback when too few swing points exist,
// which happens in persistent one-way moves where no bar is a local extreme.
const priceActionChunks = 4

// PriceAction scores the swing structure of the sequence. Direction is UP
// when a majority of consecutive swing-high and swing-low pairs step higher,
// DOWN when they step lower, FLAT otherwise. Strength is the fraction of
// consecutive pairs agreeing with the winning direction.
func PriceAction(bars []models.Bar, strength int) (models.PriceActionTrend, float64, error) {
	if len(bars) < 2*priceActionChunks {
		return models.PriceActionFlat, 0, models.ErrInsufficientData
	}

	highIdx, lowIdx := SwingPoints(bars, strength)
	if len(highIdx) < 2 || len(lowIdx) < 2 {
		// One-way moves have no interior extremes; compare segment extremes
		// instead so a clean trend still reads as one.
		highIdx, lowIdx = chunkExtremes(bars)
	}

	var higher, lower, total int
	for i := 1; i < len(highIdx); i++ {
		total++
		a, b := bars[highIdx[i-1]].High, bars[highIdx[i]].High
		if b > a {
			higher++
		} else if b < a {
			lower++
		}
	}
	for i := 1; i < len(lowIdx); i++ {
		total++
		a, b := bars[lowIdx[i-1]].Low, bars[lowIdx[i]].Low
		if b > a {
			higher++
		} else if b < a {
			lower++
		}
	}
	if total == 0 {
		return models.PriceActionFlat, 0, models.ErrInsufficientData
	}

	switch {
	case higher*2 > total:
		return models.PriceActionUp, float64(higher) / float64(total), nil
	case lower*2 > total:
		return models.PriceActionDown, float64(lower) / float64(total), nil
	default:
		frac := float64(maxInt(higher, lower)) / float64(total)
		return models.PriceActionFlat, frac, nil
	}
}

// chunkExtremes splits the sequence into equal segments and returns the
// index of each segment's highest high and lowest low.
func chunkExtremes(bars []models.Bar) (highs, lows []int) {
	size := len(bars) / priceActionChunks
	for c := 0; c < priceActionChunks; c++ {
		start := c * size
		end := start + size
		if c == priceActionChunks-1 {
			end = len(bars)
		}
		hi, lo := start, start
		for i := start + 1; i < end; i++ {
			if bars[i].High > bars[hi].High {
				hi = i
			}
			if bars[i].Low < bars[lo].Low {
				lo = i
			}
		}
		highs = append(highs, hi)
		lows = append(lows, lo)
	}
	return highs, lows
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
