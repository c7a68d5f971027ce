package speech

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// AudioDuration measures encoded audio with ffprobe (данные идут через stdin).
func AudioDuration(ctx context.Context, data []byte) (float64, error) {
	if len(data) == 0 {
		return 0, errors.New("empty audio")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(data)

	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	return parseDuration(out)
}

func parseDuration(out []byte) (float64, error) {
	s := strings.TrimSpace(string(out))
	if s == "" || s == "N/A" {
		return 0, errors.New("duration not reported")
	}
	return strconv.ParseFloat(s, 64)
}
