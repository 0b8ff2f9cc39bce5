package ffmpeg

import (
	"context"
	"encoding/json"
	"strconv"
)

// ffprobeOutput represents the JSON structure returned by ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// GetMetadata extracts metadata from a media file using ffprobe
func (f *FFmpeg) GetMetadata(ctx context.Context, filePath string) (*MediaMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-show_format",
		"-show_streams",
		"-of", "json",
		filePath,
	}

	out, err := f.run(ctx, "probe", filePath, f.ffprobePath, args...)
	if err != nil {
		return nil, err
	}

	var output ffprobeOutput
	if err := json.Unmarshal(out, &output); err != nil {
		return nil, NewProcessingError("probe_parsing", filePath, err, "")
	}

	return parseMetadata(&output, filePath)
}

// ProbeDuration returns the duration of a media file in seconds
func (f *FFmpeg) ProbeDuration(ctx context.Context, filePath string) (float64, error) {
	metadata, err := f.GetMetadata(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return metadata.Duration, nil
}

// parseMetadata converts ffprobe output to MediaMetadata
func parseMetadata(output *ffprobeOutput, filePath string) (*MediaMetadata, error) {
	metadata := &MediaMetadata{Format: output.Format.FormatName}

	if output.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(output.Format.Duration, 64); err == nil {
			metadata.Duration = duration
		}
	}

	if output.Format.Size != "" {
		if size, err := strconv.ParseInt(output.Format.Size, 10, 64); err == nil {
			metadata.Size = size
		}
	}

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			if metadata.VideoCodec == "" {
				metadata.VideoCodec = stream.CodecName
				metadata.Width = stream.Width
				metadata.Height = stream.Height
			}
		case "audio":
			if metadata.AudioCodec == "" {
				metadata.AudioCodec = stream.CodecName
			}
		}

		// Use stream duration if format duration is not available
		if metadata.Duration == 0 && stream.Duration != "" {
			if duration, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
				metadata.Duration = duration
			}
		}
	}

	if metadata.Duration == 0 {
		return nil, NewProcessingError("probe_validation", filePath, ErrNoDuration, "")
	}

	return metadata, nil
}
