package vstorage

import (
	"image"
	"image/color"
	"sort"
)

// paintBlock fills every physical pixel of the block_size x block_size
// square at logical coordinates (lx, ly) with the same already-quantized
// RGB triple.
func paintBlock(img *image.RGBA, lx, ly, blockSize int, r, g, b uint8) {
	px := lx * blockSize
	py := ly * blockSize
	c := color.RGBA{R: r, G: g, B: b, A: 255}
	for dy := 0; dy < blockSize; dy++ {
		for dx := 0; dx < blockSize; dx++ {
			img.SetRGBA(px+dx, py+dy, c)
		}
	}
}

// readBlock reads the block_size x block_size square at logical coordinates
// (lx, ly), takes the per-channel median across its physical pixels (robust
// to the ringing and chroma smearing lossy compression introduces at block
// edges), and dequantizes each median back to a level in [0, levels).
func readBlock(img *image.RGBA, lx, ly, blockSize int, levels uint8) (r, g, b uint8) {
	px := lx * blockSize
	py := ly * blockSize
	n := blockSize * blockSize
	rs := make([]uint8, 0, n)
	gs := make([]uint8, 0, n)
	bs := make([]uint8, 0, n)
	for dy := 0; dy < blockSize; dy++ {
		for dx := 0; dx < blockSize; dx++ {
			c := img.RGBAAt(px+dx, py+dy)
			rs = append(rs, c.R)
			gs = append(gs, c.G)
			bs = append(bs, c.B)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })
	sort.Slice(gs, func(i, j int) bool { return gs[i] < gs[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	mid := n / 2
	return dequantize(rs[mid], levels), dequantize(gs[mid], levels), dequantize(bs[mid], levels)
}
