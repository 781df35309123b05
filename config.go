package vstorage

import "math/bits"

// Frame geometry constants. The muxer boundary contract (see [Muxer]) fixes
// these for the whole video; they are never encoded per-frame.
const (
	FrameWidth  = 3840
	FrameHeight = 2160

	// HeaderRows is the number of logical rows reserved for the
	// triple-redundant frame header at the top of every frame.
	HeaderRows = 2

	// ProtocolVersion is the only wire version this package understands.
	ProtocolVersion = 1
)

// FrameConfig holds the fixed, whole-video parameters that determine a
// frame's logical geometry and per-frame raw capacity. It is computed once
// on encode and auto-detected once on decode; every frame in a video shares
// the same FrameConfig (invariant I6 in the wire format).
type FrameConfig struct {
	BlockSize uint8 // logical pixel edge length, in physical pixels
	Levels    uint8 // quantization steps per channel
	EccLen    uint8 // Reed-Solomon parity bytes per 255-byte block
	FPS       uint32
	CRF       uint8
}

// NewFrameConfig validates block_size, levels, and ecc_len against the
// invariants in the wire format (I1-I3) and returns a ready-to-use
// FrameConfig. FPS and CRF are informational muxer hints only; any value is
// accepted (see the Open Questions in the design notes).
func NewFrameConfig(blockSize, levels, eccLen uint8, fps uint32, crf uint8) (FrameConfig, error) {
	if blockSize == 0 {
		return FrameConfig{}, newErr(KindConfig, "block_size must be > 0")
	}
	if FrameWidth%int(blockSize) != 0 || FrameHeight%int(blockSize) != 0 {
		return FrameConfig{}, newErr(KindConfig, "block_size %d must evenly divide %dx%d", blockSize, FrameWidth, FrameHeight)
	}
	if levels < 2 || bits.OnesCount8(levels) != 1 {
		return FrameConfig{}, newErr(KindConfig, "levels %d must be a power of two and >= 2", levels)
	}
	if eccLen == 0 || eccLen >= 255 {
		return FrameConfig{}, newErr(KindConfig, "ecc_len %d must be in 1..254", eccLen)
	}
	cfg := FrameConfig{BlockSize: blockSize, Levels: levels, EccLen: eccLen, FPS: fps, CRF: crf}
	headerAreaBytes := cfg.LogicalWidth() * HeaderRows * cfg.BitsPerPixel() / 8
	headerNeeded := HeaderSize * HeaderCopies
	if headerAreaBytes < headerNeeded {
		return FrameConfig{}, newErr(KindConfig, "block_size %d, levels %d yield a %d-byte header area, too small for the %d-byte triple header", blockSize, levels, headerAreaBytes, headerNeeded)
	}
	return cfg, nil
}

// LogicalWidth is the number of logical pixels (block_size x block_size
// physical squares) across one frame.
func (c FrameConfig) LogicalWidth() int { return FrameWidth / int(c.BlockSize) }

// LogicalHeight is the number of logical pixel rows in one frame.
func (c FrameConfig) LogicalHeight() int { return FrameHeight / int(c.BlockSize) }

// BitsPerChannel is log2(Levels): the number of bits each of R, G, B
// contributes per logical pixel.
func (c FrameConfig) BitsPerChannel() int { return bits.TrailingZeros8(c.Levels) }

// BitsPerPixel is three channels' worth of BitsPerChannel.
func (c FrameConfig) BitsPerPixel() int { return 3 * c.BitsPerChannel() }

// DataAreaPixels is the number of logical pixels available for payload,
// excluding the HeaderRows reserved at the top of the frame.
func (c FrameConfig) DataAreaPixels() int {
	return c.LogicalWidth() * (c.LogicalHeight() - HeaderRows)
}

// DataAreaBytes is the number of whole bytes the data area can hold.
func (c FrameConfig) DataAreaBytes() int {
	return c.DataAreaPixels() * c.BitsPerPixel() / 8
}

// RSDataLen is the number of data bytes per 255-byte Reed-Solomon block
// (255 - EccLen).
func (c FrameConfig) RSDataLen() int { return 255 - int(c.EccLen) }

// MaxRSBlocksPerFrame is the number of complete 255-byte RS blocks that fit
// in the data area.
func (c FrameConfig) MaxRSBlocksPerFrame() int { return c.DataAreaBytes() / 255 }

// MaxRawPerFrame is max_raw: the number of pre-RS payload bytes a single
// frame can carry.
func (c FrameConfig) MaxRawPerFrame() int {
	return c.MaxRSBlocksPerFrame() * c.RSDataLen()
}

// blockSizeCandidates and levelsCandidates enumerate the auto-detect search
// space for decode, in the order the design notes require: block_size
// ascending, then levels ascending.
var (
	blockSizeCandidates = []uint8{1, 2, 4, 8, 16}
	levelsCandidates    = []uint8{2, 4, 8, 16}
)
