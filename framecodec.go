package vstorage

import (
	"image"
	"math/bits"

	"github.com/vstorageio/vstorage/internal/bitpack"
)

// EncodeFrameImage paints headerBytes into the first HeaderRows logical
// rows and rsData into the remaining rows of a new FrameWidth x FrameHeight
// RGBA image. Either source is read through a fresh bitpack.Reader, which
// zero-pads once exhausted, so both sources may be shorter than their
// nominal area.
func EncodeFrameImage(headerBytes, rsData []byte, cfg FrameConfig) *image.RGBA {
	lw := cfg.LogicalWidth()
	lh := cfg.LogicalHeight()
	bpc := uint8(cfg.BitsPerChannel())
	bs := int(cfg.BlockSize)
	levels := cfg.Levels

	img := image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))

	headerReader := bitpack.NewReader(headerBytes)
	for ly := 0; ly < HeaderRows; ly++ {
		for lx := 0; lx < lw; lx++ {
			r := headerReader.ReadBits(bpc)
			g := headerReader.ReadBits(bpc)
			b := headerReader.ReadBits(bpc)
			paintBlock(img, lx, ly, bs, quantize(r, levels), quantize(g, levels), quantize(b, levels))
		}
	}

	dataReader := bitpack.NewReader(rsData)
	for ly := HeaderRows; ly < lh; ly++ {
		for lx := 0; lx < lw; lx++ {
			r := dataReader.ReadBits(bpc)
			g := dataReader.ReadBits(bpc)
			b := dataReader.ReadBits(bpc)
			paintBlock(img, lx, ly, bs, quantize(r, levels), quantize(g, levels), quantize(b, levels))
		}
	}

	return img
}

// DecodeHeaderArea reads only the first HeaderRows logical rows of img
// under the candidate (blockSize, levels) and returns the bit-packed byte
// buffer (at least HeaderSize*HeaderCopies bytes for any valid config).
func DecodeHeaderArea(img *image.RGBA, blockSize, levels uint8) []byte {
	lw := img.Bounds().Dx() / int(blockSize)
	bpc := uint8(bits.TrailingZeros8(levels))
	bs := int(blockSize)

	w := bitpack.NewWriter()
	for ly := 0; ly < HeaderRows; ly++ {
		for lx := 0; lx < lw; lx++ {
			r, g, b := readBlock(img, lx, ly, bs, levels)
			w.WriteBits(r, bpc)
			w.WriteBits(g, bpc)
			w.WriteBits(b, bpc)
		}
	}
	return w.Finish()
}

// DecodeDataArea reads the logical rows after HeaderRows from img under
// cfg, returning cfg.DataAreaBytes() bytes (the Finish() ceil and
// DataAreaBytes() agree because every valid config's data-area bit count is
// a whole number of bytes).
func DecodeDataArea(img *image.RGBA, cfg FrameConfig) []byte {
	lw := cfg.LogicalWidth()
	lh := cfg.LogicalHeight()
	bpc := uint8(cfg.BitsPerChannel())
	bs := int(cfg.BlockSize)
	levels := cfg.Levels

	w := bitpack.NewWriter()
	for ly := HeaderRows; ly < lh; ly++ {
		for lx := 0; lx < lw; lx++ {
			r, g, b := readBlock(img, lx, ly, bs, levels)
			w.WriteBits(r, bpc)
			w.WriteBits(g, bpc)
			w.WriteBits(b, bpc)
		}
	}
	return w.Finish()
}
