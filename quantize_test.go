package vstorage

import "testing"

func TestQuantizeRoundTrip(t *testing.T) {
	for _, levels := range []uint8{2, 4, 8, 16} {
		for v := uint8(0); v < levels; v++ {
			got := dequantize(quantize(v, levels), levels)
			if got != v {
				t.Errorf("levels=%d v=%d: dequantize(quantize(v))=%d", levels, v, got)
			}
		}
	}
}

func TestQuantizeNoiseTolerance(t *testing.T) {
	for _, levels := range []uint8{2, 4, 8, 16} {
		// Adjacent quantized values are at least 255/(levels-1) (integer
		// division) apart, so a symmetric window of 2*tolerance+1 pixel
		// values around each one fits without overlapping its neighbour.
		tolerance := (255/(int(levels)-1) - 1) / 2
		for v := uint8(0); v < levels; v++ {
			q := int(quantize(v, levels))
			for n := -tolerance; n <= tolerance; n++ {
				p := q + n
				if p < 0 {
					p = 0
				}
				if p > 255 {
					p = 255
				}
				got := dequantize(uint8(p), levels)
				if got != v {
					t.Errorf("levels=%d v=%d n=%d p=%d: dequantize=%d, want %d", levels, v, n, p, got, v)
				}
			}
		}
	}
}

func TestDequantizeClampsTopLevel(t *testing.T) {
	if got := dequantize(255, 4); got != 3 {
		t.Errorf("dequantize(255, 4) = %d, want 3", got)
	}
}
