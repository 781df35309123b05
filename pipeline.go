package vstorage

import (
	"context"
	"crypto/sha256"
	"image"
	"io"
	"os"
	"runtime"
	"sync"
)

// EncodeOptions configures a single Encode invocation.
type EncodeOptions struct {
	// Password, if non-empty, seals the payload with AES-256-GCM before it
	// is split into frames. Empty means store the payload unencrypted.
	Password string
	// Workers bounds how many frames are painted concurrently. <= 0 means
	// runtime.NumCPU().
	Workers int
}

// Encode reads all of in, optionally encrypts it, splits it into
// capacity-bounded frame slices, Reed-Solomon encodes and paints each into
// a 4K image, and hands the ordered image sequence to mux.
//
// Frames are painted concurrently across a bounded worker pool; only the
// final hand-off to mux requires frame-number order, which is guaranteed by
// the frame_%06d.png naming convention regardless of paint completion
// order.
func Encode(ctx context.Context, in io.Reader, cfg FrameConfig, opts EncodeOptions, mux Muxer, outputPath string) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return wrapErr(KindIo, err, "read input")
	}

	var payload []byte
	var nonce [12]byte
	var salt [16]byte
	if opts.Password != "" {
		payload, nonce, salt, err = encryptPayload(data, opts.Password)
		if err != nil {
			return err
		}
	} else {
		payload = data
	}

	maxRaw := cfg.MaxRawPerFrame()
	if maxRaw == 0 {
		return newErr(KindConfig, "frame configuration has zero per-frame capacity")
	}
	numFrames := ceilDiv(len(payload), maxRaw)
	if numFrames == 0 {
		numFrames = 1
	}

	tmpDir, err := os.MkdirTemp("", "vstorage-encode-*")
	if err != nil {
		return wrapErr(KindIo, err, "create temp directory")
	}
	defer os.RemoveAll(tmpDir)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numFrames {
		workers = numFrames
	}

	fileSize := uint64(len(data))
	sem := make(chan struct{}, workers)
	errCh := make(chan error, numFrames)
	var wg sync.WaitGroup

	for i := 0; i < numFrames; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			start := i * maxRaw
			end := start + maxRaw
			if end > len(payload) {
				end = len(payload)
			}
			slice := payload[start:end]

			rsEncoded, err := eccEncode(slice, cfg.EccLen)
			if err != nil {
				errCh <- err
				return
			}
			header := FrameHeader{
				Version:     ProtocolVersion,
				FrameNumber: uint32(i),
				TotalFrames: uint32(numFrames),
				BlockSize:   cfg.BlockSize,
				Levels:      cfg.Levels,
				FileSize:    fileSize,
				DataLength:  uint32(len(slice)),
				EccLen:      cfg.EccLen,
				RSDataLen:   uint16(cfg.RSDataLen()),
				Nonce:       nonce,
				Salt:        salt,
				DataSHA256:  sha256.Sum256(rsEncoded),
			}
			headerBytes := EncodeHeaderTriple(header)
			img := EncodeFrameImage(headerBytes, rsEncoded, cfg)
			if err := writeFramePNG(tmpDir, i, img); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}

	return mux.Mux(ctx, tmpDir, numFrames, cfg, outputPath)
}

// DecodeOptions configures a single Decode invocation.
type DecodeOptions struct {
	// Password is required when the input was encrypted and ignored
	// otherwise.
	Password string
}

// Decode demuxes inputPath into an image sequence, auto-detects the frame
// configuration from the first frame, reassembles and Reed-Solomon decodes
// every frame's payload, optionally decrypts it, and writes the original
// file bytes to out.
func Decode(ctx context.Context, inputPath string, opts DecodeOptions, mux Muxer, out io.Writer) error {
	tmpDir, err := os.MkdirTemp("", "vstorage-decode-*")
	if err != nil {
		return wrapErr(KindIo, err, "create temp directory")
	}
	defer os.RemoveAll(tmpDir)

	frameCount, err := mux.Demux(ctx, inputPath, tmpDir)
	if err != nil {
		return err
	}
	if frameCount == 0 {
		return newErr(KindMuxer, "no frames extracted from input")
	}

	paths, err := listFramePaths(tmpDir)
	if err != nil {
		return err
	}

	first, err := readFramePNGPath(paths[0])
	if err != nil {
		return err
	}

	cfg, header, err := detectFrameConfig(first)
	if err != nil {
		return err
	}

	// Extra demuxed frames beyond total_frames are ignored (the muxer may
	// pad); a short sequence is left to fail naturally below, either as a
	// missing frame file or as an Ecc insufficient-data error.
	totalFrames := int(header.TotalFrames)
	maxRaw := cfg.MaxRawPerFrame()

	var payload []byte
	for i := 0; i < totalFrames; i++ {
		img := first
		if i != 0 {
			if i >= len(paths) {
				return newErr(KindIo, "frame %d missing: only %d frames extracted", i, len(paths))
			}
			img, err = readFramePNGPath(paths[i])
			if err != nil {
				return err
			}
		}

		dataLength := maxRaw
		headerBytes := DecodeHeaderArea(img, cfg.BlockSize, cfg.Levels)
		if h, herr := DecodeHeaderTriple(headerBytes); herr == nil {
			dataLength = int(h.DataLength)
		}

		dataBytes := DecodeDataArea(img, cfg)
		slice, err := eccDecode(dataBytes, cfg.EccLen, dataLength)
		if err != nil {
			return err
		}
		payload = append(payload, slice...)
	}

	var plaintext []byte
	if !isZeroSentinel(header.Nonce, header.Salt) {
		if opts.Password == "" {
			return newErr(KindCrypto, "input is encrypted; a password is required")
		}
		plaintext, err = decryptPayload(payload, opts.Password, header.Nonce, header.Salt)
		if err != nil {
			return err
		}
	} else {
		plaintext = payload
	}

	if uint64(len(plaintext)) < header.FileSize {
		return newErr(KindIo, "decoded payload shorter than recorded file size")
	}
	plaintext = plaintext[:header.FileSize]

	if _, err := out.Write(plaintext); err != nil {
		return wrapErr(KindIo, err, "write output")
	}
	return nil
}

// Inspect demuxes inputPath and auto-detects and reports its frame
// configuration and header from the first frame, without decoding any
// payload.
func Inspect(ctx context.Context, inputPath string, mux Muxer) (FrameConfig, FrameHeader, error) {
	tmpDir, err := os.MkdirTemp("", "vstorage-inspect-*")
	if err != nil {
		return FrameConfig{}, FrameHeader{}, wrapErr(KindIo, err, "create temp directory")
	}
	defer os.RemoveAll(tmpDir)

	frameCount, err := mux.Demux(ctx, inputPath, tmpDir)
	if err != nil {
		return FrameConfig{}, FrameHeader{}, err
	}
	if frameCount == 0 {
		return FrameConfig{}, FrameHeader{}, newErr(KindMuxer, "no frames extracted from input")
	}

	paths, err := listFramePaths(tmpDir)
	if err != nil {
		return FrameConfig{}, FrameHeader{}, err
	}
	first, err := readFramePNGPath(paths[0])
	if err != nil {
		return FrameConfig{}, FrameHeader{}, err
	}
	return detectFrameConfig(first)
}

// detectFrameConfig searches block_size ascending, then levels ascending,
// for the first candidate whose decoded header agrees with the candidate
// parameters it was decoded under.
func detectFrameConfig(first *image.RGBA) (FrameConfig, FrameHeader, error) {
	for _, bs := range blockSizeCandidates {
		if FrameWidth%int(bs) != 0 || FrameHeight%int(bs) != 0 {
			continue
		}
		for _, lv := range levelsCandidates {
			headerBytes := DecodeHeaderArea(first, bs, lv)
			h, err := DecodeHeaderTriple(headerBytes)
			if err != nil {
				continue
			}
			if h.BlockSize != bs || h.Levels != lv {
				continue
			}
			cfg, err := NewFrameConfig(bs, lv, h.EccLen, 0, 0)
			if err != nil {
				continue
			}
			return cfg, h, nil
		}
	}
	return FrameConfig{}, FrameHeader{}, newErr(KindHeader, "could not detect frame configuration")
}

func ceilDiv(a, b int) int {
	if a == 0 {
		return 0
	}
	return (a + b - 1) / b
}
