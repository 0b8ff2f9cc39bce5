package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes an executable shell script standing in for ffmpeg/ffprobe
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-bin")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestNew(t *testing.T) {
	f := New("", "", 0)
	assert.Equal(t, "ffmpeg", f.ffmpegPath)
	assert.Equal(t, "ffprobe", f.ffprobePath)
	assert.Equal(t, DefaultTimeout, f.Timeout())

	f = New("/opt/ffmpeg", "/opt/ffprobe", 30*time.Second)
	assert.Equal(t, "/opt/ffmpeg", f.ffmpegPath)
	assert.Equal(t, 30*time.Second, f.Timeout())
}

func TestBuildCutArgs(t *testing.T) {
	args := BuildCutArgs(CutOptions{
		Input:    "/media/show.mkv",
		Output:   "/clips/out.mp4",
		Start:    8,
		Duration: 5.5,
	})

	assert.Equal(t, []string{
		"-y",
		"-ss", "8.000",
		"-i", "/media/show.mkv",
		"-t", "5.500",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-avoid_negative_ts", "make_zero",
		"/clips/out.mp4",
	}, args)
}

func TestCut(t *testing.T) {
	t.Run("success writes output", func(t *testing.T) {
		bin := fakeBinary(t, `for last; do :; done; echo clip > "$last"`)
		f := New(bin, "ffprobe", 5*time.Second)
		out := filepath.Join(t.TempDir(), "clip.mp4")

		err := f.Cut(context.Background(), CutOptions{Input: "in.mkv", Output: out, Start: 1, Duration: 2})
		require.NoError(t, err)
		assert.FileExists(t, out)
	})

	t.Run("non-zero exit captures output", func(t *testing.T) {
		bin := fakeBinary(t, `echo "in.mkv: No such file or directory" >&2; exit 1`)
		f := New(bin, "ffprobe", 5*time.Second)

		err := f.Cut(context.Background(), CutOptions{Input: "in.mkv", Output: "out.mp4", Duration: 2})
		require.Error(t, err)

		var procErr *ProcessingError
		require.True(t, errors.As(err, &procErr))
		assert.Equal(t, "cut", procErr.Operation)
		assert.Contains(t, procErr.Output, "No such file or directory")
		assert.False(t, procErr.TimedOut())
	})

	t.Run("timeout is reported", func(t *testing.T) {
		bin := fakeBinary(t, `exec sleep 10`)
		f := New(bin, "ffprobe", 100*time.Millisecond)

		start := time.Now()
		err := f.Cut(context.Background(), CutOptions{Input: "in.mkv", Output: "out.mp4", Duration: 2})
		require.Error(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)

		var procErr *ProcessingError
		require.True(t, errors.As(err, &procErr))
		assert.True(t, procErr.TimedOut())
		assert.ErrorIs(t, err, ErrProcessingTimeout)
	})

	t.Run("invalid range never runs ffmpeg", func(t *testing.T) {
		f := New("/nonexistent/ffmpeg", "ffprobe", time.Second)
		err := f.Cut(context.Background(), CutOptions{Input: "in.mkv", Output: "out.mp4", Start: 3, Duration: 0})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestGetMetadata(t *testing.T) {
	probe := map[string]any{
		"format": map[string]any{"duration": "1325.44", "size": "734003200", "format_name": "matroska,webm"},
		"streams": []map[string]any{
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
			{"codec_type": "audio", "codec_name": "ac3"},
		},
	}
	payload, err := json.Marshal(probe)
	require.NoError(t, err)

	bin := fakeBinary(t, "cat <<'JSON'\n"+string(payload)+"\nJSON")
	f := New("ffmpeg", bin, 5*time.Second)

	metadata, err := f.GetMetadata(context.Background(), "show.mkv")
	require.NoError(t, err)
	assert.InDelta(t, 1325.44, metadata.Duration, 0.001)
	assert.Equal(t, int64(734003200), metadata.Size)
	assert.Equal(t, "h264", metadata.VideoCodec)
	assert.Equal(t, "ac3", metadata.AudioCodec)
	assert.Equal(t, 1920, metadata.Width)

	duration, err := f.ProbeDuration(context.Background(), "show.mkv")
	require.NoError(t, err)
	assert.InDelta(t, 1325.44, duration, 0.001)
}

func TestParseMetadata_NoDuration(t *testing.T) {
	_, err := parseMetadata(&ffprobeOutput{}, "empty.mp4")
	assert.ErrorIs(t, err, ErrNoDuration)
}

// Integration test - only runs if ffmpeg/ffprobe are available
func TestValidateBinaries(t *testing.T) {
	f := New("ffmpeg", "ffprobe", 30*time.Second)
	if err := f.ValidateBinaries(); err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}
}

func TestValidateBinaries_Missing(t *testing.T) {
	f := New("/nonexistent/ffmpeg", "/nonexistent/ffprobe", time.Second)
	assert.ErrorIs(t, f.ValidateBinaries(), ErrFFmpegNotFound)
}
