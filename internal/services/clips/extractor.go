package clips

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/pkg/ffmpeg"
)

// Extractor cuts a time window of a media file into a standalone clip
type Extractor interface {
	Extract(ctx context.Context, params ExtractParams) (*ExtractResult, error)
}

// ExtractParams contains parameters for clip extraction
type ExtractParams struct {
	Input  string  // Resolved local media path
	Output string  // Destination file; parent directories are created
	Start  float64 // Window start in seconds
	End    float64 // Window end in seconds
}

// ExtractResult contains the results of clip extraction
type ExtractResult struct {
	OutputFile      string  `json:"output_file"`
	SizeBytes       int64   `json:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// FFmpegExtractor implements Extractor using ffmpeg
type FFmpegExtractor struct {
	ff  *ffmpeg.FFmpeg
	log *logrus.Entry
}

// NewFFmpegExtractor creates an extractor over ff
func NewFFmpegExtractor(ff *ffmpeg.FFmpeg) *FFmpegExtractor {
	return &FFmpegExtractor{
		ff:  ff,
		log: logging.Component("extractor"),
	}
}

// Extract re-encodes [Start, End] of Input into Output. Failures and timeouts
// come back as *TranscodeError; a partial output file is removed.
func (e *FFmpegExtractor) Extract(ctx context.Context, params ExtractParams) (*ExtractResult, error) {
	duration := params.End - params.Start
	if duration <= 0 || params.Start < 0 {
		return nil, &TranscodeError{
			Input: params.Input,
			Err:   fmt.Errorf("%w: start=%.3f end=%.3f", ffmpeg.ErrInvalidRange, params.Start, params.End),
		}
	}

	if err := os.MkdirAll(filepath.Dir(params.Output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	opts := ffmpeg.DefaultCutOptions()
	opts.Input = params.Input
	opts.Output = params.Output
	opts.Start = params.Start
	opts.Duration = duration

	e.log.WithFields(logrus.Fields{
		"input":    params.Input,
		"output":   params.Output,
		"start":    params.Start,
		"duration": duration,
	}).Debug("cutting clip")

	if err := e.ff.Cut(ctx, opts); err != nil {
		_ = os.Remove(params.Output)
		return nil, toTranscodeError(params.Input, err)
	}

	info, err := os.Stat(params.Output)
	if err != nil {
		return nil, &TranscodeError{Input: params.Input, Err: fmt.Errorf("no output written: %w", err)}
	}

	result := &ExtractResult{
		OutputFile:      params.Output,
		SizeBytes:       info.Size(),
		DurationSeconds: duration,
	}
	if probed, err := e.ff.ProbeDuration(ctx, params.Output); err == nil && probed > 0 {
		result.DurationSeconds = probed
	} else if err != nil {
		e.log.WithError(err).WithField("output", params.Output).Debug("ffprobe unavailable, using requested duration")
	}

	return result, nil
}

func toTranscodeError(input string, err error) *TranscodeError {
	te := &TranscodeError{Input: input, Err: err}
	var pe *ffmpeg.ProcessingError
	if errors.As(err, &pe) {
		te.Err = pe.Err
		te.Output = pe.Output
		te.TimedOut = pe.TimedOut()
	}
	return te
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
