package avio

import (
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// preferredProResEncoder picks prores_videotoolbox on a macOS host with
// hardware support, falling back to the software prores_ks encoder
// everywhere else.
var (
	cachedEncoder string
	encoderOnce   sync.Once
)

func preferredProResEncoder() string {
	encoderOnce.Do(func() {
		cachedEncoder = detectProResEncoder()
	})
	return cachedEncoder
}

func detectProResEncoder() string {
	if runtime.GOOS != "darwin" {
		return "prores_ks"
	}
	if isEncoderAvailable("prores_videotoolbox", getAvailableEncoders()) {
		return "prores_videotoolbox"
	}
	return "prores_ks"
}

// getAvailableEncoders lists the video encoders this ffmpeg build
// supports, parsed from "ffmpeg -encoders" output.
func getAvailableEncoders() map[string]bool {
	cmd := exec.Command("ffmpeg", "-hide_banner", "-encoders")
	output, err := cmd.CombinedOutput()
	encoders := make(map[string]bool)
	if err != nil {
		return encoders
	}

	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "V") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			encoders[parts[1]] = true
		}
	}
	return encoders
}

func isEncoderAvailable(name string, available map[string]bool) bool {
	return available[name]
}
