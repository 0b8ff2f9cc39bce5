package ffmpeg

// MediaMetadata represents metadata extracted from a video file
type MediaMetadata struct {
	Duration   float64 `json:"duration"` // Duration in seconds
	Size       int64   `json:"size"`     // File size in bytes
	Format     string  `json:"format"`   // Container format (mov,mp4,m4a,...)
	VideoCodec string  `json:"video_codec"`
	AudioCodec string  `json:"audio_codec"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// CutOptions describes a single clip cut
type CutOptions struct {
	Input      string  // Source media path
	Output     string  // Destination path; parent directory must exist
	Start      float64 // Window start in seconds
	Duration   float64 // Window length in seconds
	VideoCodec string  // Defaults to libx264
	AudioCodec string  // Defaults to aac
}

// DefaultCutOptions returns the codec settings used for clip output
func DefaultCutOptions() CutOptions {
	return CutOptions{
		VideoCodec: "libx264",
		AudioCodec: "aac",
	}
}
