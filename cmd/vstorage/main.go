// Command vstorage stores an arbitrary file as a playable video, or
// recovers one from such a video.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vstorageio/vstorage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(ctx, os.Args[2:])
	case "decode":
		err = runDecode(ctx, os.Args[2:])
	case "info":
		err = runInfo(ctx, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vstorage: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "vstorage: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vstorage <command> [flags]

commands:
  encode   pack a file into a video
  decode   recover a file from a video
  info     print detected frame configuration from a video`)
}

// exitCode maps a *vstorage.Error's Kind to a distinct process exit code so
// scripts can branch on failure class without parsing the message.
func exitCode(err error) int {
	var verr *vstorage.Error
	if !errors.As(err, &verr) {
		return 1
	}
	switch verr.Kind {
	case vstorage.KindConfig:
		return 10
	case vstorage.KindCrypto:
		return 11
	case vstorage.KindEcc:
		return 12
	case vstorage.KindHeader:
		return 13
	case vstorage.KindMuxer:
		return 14
	case vstorage.KindIo:
		return 15
	default:
		return 1
	}
}

func runEncode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	input := fs.String("in", "", "input file path (required)")
	output := fs.String("out", "", "output video path (required)")
	password := fs.String("password", "", "password; empty disables encryption")
	blockSize := fs.Uint("block-size", 2, "logical pixel edge length (1,2,4,8,16)")
	levels := fs.Uint("levels", 4, "quantization levels (2,4,8,16)")
	eccLen := fs.Uint("ecc-len", 32, "Reed-Solomon parity bytes per 255-byte block")
	fps := fs.Uint("fps", 30, "muxer framerate hint")
	crf := fs.Uint("crf", 18, "muxer H.264 CRF hint")
	workers := fs.Int("workers", 0, "parallel frame workers; 0 means all CPUs")
	ffmpegBin := fs.String("ffmpeg", "", "ffmpeg binary path; empty means \"ffmpeg\" on PATH")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *output == "" {
		return fmt.Errorf("encode: -in and -out are required")
	}

	cfg, err := vstorage.NewFrameConfig(uint8(*blockSize), uint8(*levels), uint8(*eccLen), uint32(*fps), uint8(*crf))
	if err != nil {
		return err
	}

	in, err := os.Open(*input)
	if err != nil {
		return fmt.Errorf("encode: open input: %w", err)
	}
	defer in.Close()

	opts := vstorage.EncodeOptions{Password: *password, Workers: *workers}
	mux := vstorage.FFmpegMuxer{Bin: *ffmpegBin}

	fmt.Fprintf(os.Stderr, "vstorage: encoding %s -> %s (block_size=%d levels=%d ecc_len=%d)\n",
		*input, *output, *blockSize, *levels, *eccLen)
	return vstorage.Encode(ctx, in, cfg, opts, mux, *output)
}

func runDecode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	input := fs.String("in", "", "input video path (required)")
	output := fs.String("out", "", "output file path (required)")
	password := fs.String("password", "", "password; required if the video was encrypted")
	ffmpegBin := fs.String("ffmpeg", "", "ffmpeg binary path; empty means \"ffmpeg\" on PATH")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *output == "" {
		return fmt.Errorf("decode: -in and -out are required")
	}

	out, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("decode: create output: %w", err)
	}
	defer out.Close()

	mux := vstorage.FFmpegMuxer{Bin: *ffmpegBin}
	opts := vstorage.DecodeOptions{Password: *password}

	fmt.Fprintf(os.Stderr, "vstorage: decoding %s -> %s\n", *input, *output)
	if err := vstorage.Decode(ctx, *input, opts, mux, out); err != nil {
		out.Close()
		os.Remove(*output)
		return err
	}
	return nil
}

func runInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	input := fs.String("in", "", "input video path (required)")
	ffmpegBin := fs.String("ffmpeg", "", "ffmpeg binary path; empty means \"ffmpeg\" on PATH")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("info: -in is required")
	}

	mux := vstorage.FFmpegMuxer{Bin: *ffmpegBin}
	cfg, header, err := vstorage.Inspect(ctx, *input, mux)
	if err != nil {
		return err
	}

	fmt.Printf("block_size:   %d\n", cfg.BlockSize)
	fmt.Printf("levels:       %d\n", cfg.Levels)
	fmt.Printf("ecc_len:      %d\n", cfg.EccLen)
	fmt.Printf("file_size:    %d\n", header.FileSize)
	fmt.Printf("total_frames: %d\n", header.TotalFrames)
	fmt.Printf("encrypted:    %t\n", header.Nonce != [12]byte{} || header.Salt != [16]byte{})
	return nil
}
