package vstorage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// Muxer turns an ordered sequence of FrameWidth x FrameHeight RGB images
// into a video container and back. It is the one external collaborator the
// core pipeline depends on: frames painted with sufficient quantization
// margin must survive a Mux/Demux round trip with per-pixel deviation
// bounded, everything past that is the Reed-Solomon stage's job to absorb.
// Tests substitute a fake in-memory implementation; production code uses
// FFmpegMuxer.
type Muxer interface {
	// Mux reads frameCount PNGs named frame_%06d.png from frameDir and
	// writes outputPath.
	Mux(ctx context.Context, frameDir string, frameCount int, cfg FrameConfig, outputPath string) error
	// Demux extracts frames from inputPath as numbered PNGs into frameDir
	// and returns how many frames it wrote.
	Demux(ctx context.Context, inputPath, frameDir string) (int, error)
}

// framePattern is the numbered-PNG naming convention both ends of the
// Muxer boundary agree on.
const framePattern = "frame_%06d.png"

// FFmpegMuxer shells out to an ffmpeg binary on PATH using the recommended
// encode envelope from the design notes: full-range yuv444p H.264 at the
// configured CRF, tuned for still images, so a median-of-block decode
// recovers the original quantization level with probability 1 within that
// envelope.
type FFmpegMuxer struct {
	// Bin overrides the ffmpeg executable name/path. Empty means "ffmpeg".
	Bin string
}

func (m FFmpegMuxer) bin() string {
	if m.Bin != "" {
		return m.Bin
	}
	return "ffmpeg"
}

// CheckAvailable verifies the ffmpeg binary runs on this machine.
func (m FFmpegMuxer) CheckAvailable(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, m.bin(), "-version")
	if err := cmd.Run(); err != nil {
		return wrapErr(KindMuxer, err, "ffmpeg not found; install ffmpeg and ensure it is on PATH")
	}
	return nil
}

// muxArgs builds the ffmpeg argument list for pngs_to_mp4-style muxing.
// Pure and unexported so it can be checked without invoking ffmpeg.
func muxArgs(frameDir string, frameCount int, cfg FrameConfig, outputPath string) []string {
	pattern := filepath.Join(frameDir, framePattern)
	return []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", cfg.FPS),
		"-i", pattern,
		"-frames:v", fmt.Sprintf("%d", frameCount),
		"-c:v", "libx264",
		"-pix_fmt", "yuv444p",
		"-color_range", "pc",
		"-crf", fmt.Sprintf("%d", cfg.CRF),
		"-tune", "stillimage",
		"-preset", "medium",
		outputPath,
	}
}

// demuxArgs builds the ffmpeg argument list for mp4_to_pngs-style demuxing.
// -start_number 0 pins the image2 muxer's own output numbering to match
// writeFramePNG's convention; listFramePaths still resolves frames by
// sorted position rather than by parsing the number back out, since that
// convention is only a hint ffmpeg is free to ignore.
func demuxArgs(inputPath, frameDir string) []string {
	pattern := filepath.Join(frameDir, framePattern)
	return []string{
		"-i", inputPath,
		"-pix_fmt", "rgb24",
		"-color_range", "pc",
		"-start_number", "0",
		pattern,
	}
}

func (m FFmpegMuxer) Mux(ctx context.Context, frameDir string, frameCount int, cfg FrameConfig, outputPath string) error {
	if err := m.CheckAvailable(ctx); err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.bin(), muxArgs(frameDir, frameCount, cfg, outputPath)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapErr(KindMuxer, err, "ffmpeg mux failed: %s", stderr.String())
	}
	return nil
}

func (m FFmpegMuxer) Demux(ctx context.Context, inputPath, frameDir string) (int, error) {
	if err := m.CheckAvailable(ctx); err != nil {
		return 0, err
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.bin(), demuxArgs(inputPath, frameDir)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, wrapErr(KindMuxer, err, "ffmpeg demux failed: %s", stderr.String())
	}
	return countFrames(frameDir)
}

func countFrames(frameDir string) (int, error) {
	paths, err := listFramePaths(frameDir)
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

// listFramePaths returns every frame file under dir in ascending order.
// ffmpeg's image2 muxer numbers its own output (commonly starting at 1
// rather than 0), so the read side never assumes a particular starting
// index: frame_%06d.png's fixed-width zero padding makes a lexicographic
// sort equivalent to a numeric one, and callers index into this list by
// position rather than by the numbers embedded in the filenames.
func listFramePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrapErr(KindIo, err, "read frame directory %s", dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// writeFramePNG encodes img as frame_%06d.png under dir.
func writeFramePNG(dir string, index int, img *image.RGBA) error {
	path := filepath.Join(dir, fmt.Sprintf(framePattern, index))
	f, err := os.Create(path)
	if err != nil {
		return wrapErr(KindIo, err, "create frame file %s", path)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return wrapErr(KindIo, err, "encode frame PNG %s", path)
	}
	return nil
}

// readFramePNGPath reads path as an RGBA image.
func readFramePNGPath(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(KindIo, err, "open frame file %s", path)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, wrapErr(KindIo, err, "decode frame PNG %s", path)
	}
	rgba, ok := img.(*image.RGBA)
	if ok {
		return rgba, nil
	}
	bounds := img.Bounds()
	converted := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			converted.Set(x, y, img.At(x, y))
		}
	}
	return converted, nil
}
