package deps

import "os/exec"

const ffmpegName = "ffmpeg"

// ResolveFFmpeg returns the ffmpeg binary the Drapto library will execute.
// Drapto resolves "ffmpeg" from PATH; the bare name is returned when it is
// missing so the caller reports it by name.
func ResolveFFmpeg() string {
	if path, err := exec.LookPath(ffmpegName); err == nil {
		return path
	}
	return ffmpegName
}
