package vstorage

import "testing"

func TestNewFrameConfigRejectsInvalidBlockSize(t *testing.T) {
	if _, err := NewFrameConfig(7, 4, 32, 30, 18); err == nil {
		t.Fatal("expected error for block_size not dividing frame dimensions")
	}
	if _, err := NewFrameConfig(0, 4, 32, 30, 18); err == nil {
		t.Fatal("expected error for zero block_size")
	}
}

func TestNewFrameConfigRejectsInvalidLevels(t *testing.T) {
	if _, err := NewFrameConfig(2, 3, 32, 30, 18); err == nil {
		t.Fatal("expected error for non-power-of-two levels")
	}
	if _, err := NewFrameConfig(2, 1, 32, 30, 18); err == nil {
		t.Fatal("expected error for levels < 2")
	}
}

func TestNewFrameConfigRejectsInvalidEccLen(t *testing.T) {
	if _, err := NewFrameConfig(2, 4, 0, 30, 18); err == nil {
		t.Fatal("expected error for ecc_len = 0")
	}
	if _, err := NewFrameConfig(2, 4, 255, 30, 18); err == nil {
		t.Fatal("expected error for ecc_len = 255")
	}
}

func TestNewFrameConfigRejectsHeaderAreaTooSmall(t *testing.T) {
	// block_size=16, levels=2 yields a 180-byte header area, smaller than
	// the 270-byte triple header, so the config would encode an
	// undecodable video.
	if _, err := NewFrameConfig(16, 2, 32, 30, 18); err == nil {
		t.Fatal("expected error for a header area smaller than the triple header")
	}
}

func TestFrameConfigGeometry(t *testing.T) {
	cfg, err := NewFrameConfig(2, 4, 32, 30, 18)
	if err != nil {
		t.Fatalf("NewFrameConfig: %v", err)
	}
	if cfg.LogicalWidth() != 1920 {
		t.Errorf("LogicalWidth() = %d, want 1920", cfg.LogicalWidth())
	}
	if cfg.LogicalHeight() != 1080 {
		t.Errorf("LogicalHeight() = %d, want 1080", cfg.LogicalHeight())
	}
	if cfg.BitsPerChannel() != 2 {
		t.Errorf("BitsPerChannel() = %d, want 2", cfg.BitsPerChannel())
	}
	if cfg.BitsPerPixel() != 6 {
		t.Errorf("BitsPerPixel() = %d, want 6", cfg.BitsPerPixel())
	}
	if cfg.RSDataLen() != 223 {
		t.Errorf("RSDataLen() = %d, want 223", cfg.RSDataLen())
	}
	if cfg.MaxRawPerFrame() <= 0 {
		t.Errorf("MaxRawPerFrame() = %d, want > 0", cfg.MaxRawPerFrame())
	}
}
