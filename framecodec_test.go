package vstorage

import (
	"bytes"
	"testing"
)

func TestFrameCodecRoundTripClean(t *testing.T) {
	cfg, err := NewFrameConfig(4, 4, 32, 30, 18)
	if err != nil {
		t.Fatalf("NewFrameConfig: %v", err)
	}

	h := sampleHeader()
	h.BlockSize = cfg.BlockSize
	h.Levels = cfg.Levels
	headerBytes := EncodeHeaderTriple(h)

	rsData := make([]byte, cfg.DataAreaBytes())
	for i := range rsData {
		rsData[i] = byte(i * 37)
	}

	img := EncodeFrameImage(headerBytes, rsData, cfg)

	gotHeaderBytes := DecodeHeaderArea(img, cfg.BlockSize, cfg.Levels)
	if !bytes.HasPrefix(gotHeaderBytes, headerBytes) {
		t.Fatalf("decoded header area does not begin with encoded header bytes")
	}
	gotHeader, err := DecodeHeaderTriple(gotHeaderBytes)
	if err != nil {
		t.Fatalf("DecodeHeaderTriple: %v", err)
	}
	if gotHeader != h {
		t.Errorf("decoded header = %+v, want %+v", gotHeader, h)
	}

	gotData := DecodeDataArea(img, cfg)
	if !bytes.Equal(gotData, rsData) {
		t.Fatalf("decoded data area does not match encoded rsData")
	}
}

func TestFrameCodecZeroPadsShortSources(t *testing.T) {
	cfg, err := NewFrameConfig(8, 2, 32, 30, 18)
	if err != nil {
		t.Fatalf("NewFrameConfig: %v", err)
	}
	img := EncodeFrameImage([]byte{0xaa}, []byte{0xbb}, cfg)
	gotHeader := DecodeHeaderArea(img, cfg.BlockSize, cfg.Levels)
	if gotHeader[0] != 0xaa {
		t.Errorf("first header byte = %#x, want 0xaa", gotHeader[0])
	}
	for _, b := range gotHeader[1:] {
		if b != 0 {
			t.Errorf("expected zero padding after exhausted header source, got %#x", b)
			break
		}
	}
}

func TestBlockPainterMedianToleratesNoise(t *testing.T) {
	cfg, err := NewFrameConfig(8, 4, 32, 30, 18)
	if err != nil {
		t.Fatalf("NewFrameConfig: %v", err)
	}
	rsData := make([]byte, cfg.DataAreaBytes())
	for i := range rsData {
		rsData[i] = byte(i * 53)
	}
	img := EncodeFrameImage(make([]byte, 270), rsData, cfg)

	// Perturb every (7,11)-step pixel, matching the end-to-end noise
	// scenario: the block median must still recover the painted level.
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 11 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 7 {
			c := img.RGBAAt(x, y)
			c.R = clampAdd(c.R, 10)
			c.G = clampAdd(c.G, -8)
			c.B = clampAdd(c.B, 5)
			img.SetRGBA(x, y, c)
		}
	}

	got := DecodeDataArea(img, cfg)
	if !bytes.Equal(got, rsData) {
		t.Fatalf("decoded data area diverged under bounded per-pixel noise")
	}
}

func clampAdd(v uint8, delta int) uint8 {
	n := int(v) + delta
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
