// Package avio is the concrete ffprobe/ffmpeg backed collaborator behind
// the Reader/Writer/Pool contracts internal/track declares. Nothing in
// internal/field, internal/track, internal/movie or internal/batch
// imports this package's dependency, os/exec — they see only the
// interfaces those packages declare.
package avio

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/reelcrew/deinterlace/internal/track"
)

// probeStream is one ffprobe stream entry, trimmed to the fields
// TrackIntrospection (C5) and the movie orchestrator need.
type probeStream struct {
	Index          int    `json:"index"`
	CodecType      string `json:"codec_type"`
	CodecName      string `json:"codec_name"`
	CodecTagString string `json:"codec_tag_string"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	FieldOrder     string `json:"field_order"`
	AvgFrameRate   string `json:"avg_frame_rate"`
	TimeBase       string `json:"time_base"`
	DurationTS     string `json:"duration_ts"`
	Duration       string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// ProbedTrack bundles a track's introspected descriptor with the ffprobe
// stream index it came from, so the movie adapter can build the right
// per-track Reader/Writer and final-mux -map arguments.
type ProbedTrack struct {
	StreamIndex int
	Descriptor  track.FormatDescriptor
}

// ProbeTracks runs ffprobe once over path and classifies every stream
// into a track kind: video, audio, timecode, or other.
func ProbeTracks(ctx context.Context, path string) ([]ProbedTrack, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_format", "-show_streams",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %q: %w", path, err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output for %q: %w", path, err)
	}

	tracks := make([]ProbedTrack, 0, len(parsed.Streams))
	for _, s := range parsed.Streams {
		tracks = append(tracks, ProbedTrack{
			StreamIndex: s.Index,
			Descriptor:  toDescriptor(s),
		})
	}
	return tracks, nil
}

func toDescriptor(s probeStream) track.FormatDescriptor {
	kind := classifyKind(s.CodecType)
	d := track.FormatDescriptor{
		Kind:        kind,
		Width:       s.Width,
		Height:      s.Height,
		CodecFourCC: strings.TrimSpace(s.CodecTagString),
		IsDVNTSC:    s.CodecName == "dvvideo" && strings.TrimSpace(s.CodecTagString) == "dvc",
	}
	if kind != track.KindVideo {
		return d
	}

	// ffprobe reports progressive/interlaced via field_order; a non-empty
	// value other than "progressive"/"unknown" means two fields per frame.
	switch s.FieldOrder {
	case "", "progressive", "unknown":
		d.FieldCount = 1
	default:
		d.FieldCount = 2
	}
	d.FieldDetail = fieldOrderToDetail(s.FieldOrder)
	d.NominalFrameRate = parseRate(s.AvgFrameRate)
	d.NaturalTimeScale = parseTimeScale(s.TimeBase)
	d.EndTime = parseEndTime(s)
	return d
}

func classifyKind(codecType string) track.Kind {
	switch codecType {
	case "video":
		return track.KindVideo
	case "audio":
		return track.KindAudio
	case "data", "timecode":
		return track.KindTimecode
	default:
		return track.KindOther
	}
}

// fieldOrderToDetail maps ffprobe's field_order vocabulary to the
// TemporalTopFirst/SpatialFirstLineEarly vocabulary TopFieldFirst (C5)
// understands.
func fieldOrderToDetail(order string) string {
	switch order {
	case "tt", "tb":
		return "TemporalTopFirst"
	case "bt", "bb":
		return "TemporalBottomFirst"
	default:
		return ""
	}
}

func parseRate(rate string) float64 {
	parts := strings.Split(rate, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseTimeScale(timeBase string) int64 {
	parts := strings.Split(timeBase, "/")
	if len(parts) != 2 {
		return 0
	}
	den, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0
	}
	return den
}

func parseEndTime(s probeStream) track.PTS {
	if s.Duration != "" {
		if seconds, err := strconv.ParseFloat(s.Duration, 64); err == nil {
			den := int64(math.Round(1e6))
			return track.PTS{Num: int64(math.Round(seconds * 1e6)), Den: den}
		}
	}
	return track.PTS{Num: 1, Den: 1}
}
