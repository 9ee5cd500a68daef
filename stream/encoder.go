package stream

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Encoder pipes PNG frames into an external ffmpeg process.
type Encoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	output string
	closed bool
}

// EncoderArgs returns the ffmpeg arguments for encoding a PNG stream on
// stdin to output.
func EncoderArgs(fps int, output string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "image2pipe",
		"-framerate", strconv.Itoa(fps),
		"-c:v", "png",
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		output,
	}
}

// NewEncoder starts ffmpeg. binary may be a name looked up on PATH.
func NewEncoder(ctx context.Context, binary string, fps int, output string) (*Encoder, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: binary %q not found: %w", binary, err)
	}

	e := &Encoder{output: output}
	e.cmd = exec.CommandContext(ctx, path, EncoderArgs(fps, output)...) //nolint:gosec
	e.cmd.Stderr = &e.stderr
	if e.stdin, err = e.cmd.StdinPipe(); err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}
	return e, nil
}

// WriteFrame streams one frame to ffmpeg.
func (e *Encoder) WriteFrame(f *Frame) error {
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(e.stdin, f.Image); err != nil {
		return fmt.Errorf("ffmpeg encode %s: %w", e.output, err)
	}
	return nil
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode %s: %w: %s", e.output, err, strings.TrimSpace(e.stderr.String()))
	}
	return nil
}
