package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// DefaultTimeout bounds a single ffmpeg invocation
const DefaultTimeout = 300 * time.Second

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// Timeout returns the per-invocation deadline
func (f *FFmpeg) Timeout() time.Duration {
	return f.timeout
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}

	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}

	return nil
}

// Cut re-encodes [Start, Start+Duration) of Input into Output.
// The returned error is a *ProcessingError carrying the process output.
func (f *FFmpeg) Cut(ctx context.Context, opts CutOptions) error {
	if opts.Duration <= 0 || opts.Start < 0 {
		return NewProcessingError("cut", opts.Input,
			fmt.Errorf("%w: start=%.3f duration=%.3f", ErrInvalidRange, opts.Start, opts.Duration), "")
	}

	_, err := f.run(ctx, "cut", opts.Input, f.ffmpegPath, BuildCutArgs(opts)...)
	return err
}

// BuildCutArgs returns the ffmpeg argument list for a cut
func BuildCutArgs(opts CutOptions) []string {
	defaults := DefaultCutOptions()
	if opts.VideoCodec == "" {
		opts.VideoCodec = defaults.VideoCodec
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = defaults.AudioCodec
	}

	return []string{
		"-y",
		"-ss", fmtSeconds(opts.Start),
		"-i", opts.Input,
		"-t", fmtSeconds(opts.Duration),
		"-c:v", opts.VideoCodec,
		"-c:a", opts.AudioCodec,
		"-avoid_negative_ts", "make_zero",
		opts.Output,
	}
}

// run executes a binary under the configured timeout and returns its combined output
func (f *FFmpeg) run(ctx context.Context, operation, file, bin string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	// Children that inherit the output pipe must not hold Wait past the kill
	cmd.WaitDelay = 2 * time.Second
	out, err := cmd.CombinedOutput()
	if err == nil {
		return out, nil
	}

	// The parent context being cancelled is not a timeout of ours
	if ctx.Err() != nil {
		return out, NewProcessingError(operation, file, ctx.Err(), string(out))
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return out, NewProcessingError(operation, file,
			fmt.Errorf("%w after %s", ErrProcessingTimeout, f.timeout), string(out))
	}
	return out, NewProcessingError(operation, file, err, string(out))
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
