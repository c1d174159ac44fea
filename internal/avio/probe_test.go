package avio

import (
	"testing"

	"github.com/reelcrew/deinterlace/internal/track"
	"github.com/stretchr/testify/assert"
)

func TestToDescriptor_InterlacedVideo(t *testing.T) {
	s := probeStream{
		Index:          0,
		CodecType:      "video",
		CodecTagString: "apcn",
		Width:          1920,
		Height:         1080,
		FieldOrder:     "tt",
		AvgFrameRate:   "30000/1001",
		TimeBase:       "1/30000",
		Duration:       "10.5",
	}
	d := toDescriptor(s)

	assert.Equal(t, track.KindVideo, d.Kind)
	assert.Equal(t, 1920, d.Width)
	assert.Equal(t, 1080, d.Height)
	assert.Equal(t, 2, d.FieldCount)
	assert.Equal(t, "TemporalTopFirst", d.FieldDetail)
	assert.InDelta(t, 29.97, d.NominalFrameRate, 0.01)
	assert.Equal(t, int64(30000), d.NaturalTimeScale)
}

func TestToDescriptor_ProgressiveVideo(t *testing.T) {
	s := probeStream{
		CodecType:  "video",
		FieldOrder: "progressive",
		Width:      1280,
		Height:     720,
	}
	d := toDescriptor(s)
	assert.Equal(t, 1, d.FieldCount)
	assert.False(t, track.HasFields(d))
}

func TestToDescriptor_AudioTrack(t *testing.T) {
	s := probeStream{CodecType: "audio"}
	d := toDescriptor(s)
	assert.Equal(t, track.KindAudio, d.Kind)
	assert.Equal(t, 0, d.Width)
}

func TestClassifyKind(t *testing.T) {
	assert.Equal(t, track.KindVideo, classifyKind("video"))
	assert.Equal(t, track.KindAudio, classifyKind("audio"))
	assert.Equal(t, track.KindTimecode, classifyKind("data"))
	assert.Equal(t, track.KindOther, classifyKind("subtitle"))
}

func TestParseRate(t *testing.T) {
	assert.InDelta(t, 29.97, parseRate("30000/1001"), 0.01)
	assert.Equal(t, float64(0), parseRate("not-a-rate"))
	assert.Equal(t, float64(0), parseRate("1/0"))
}

func TestParseTimeScale(t *testing.T) {
	assert.Equal(t, int64(30000), parseTimeScale("1/30000"))
	assert.Equal(t, int64(0), parseTimeScale("bogus"))
}

func TestFieldOrderToDetail(t *testing.T) {
	assert.Equal(t, "TemporalTopFirst", fieldOrderToDetail("tt"))
	assert.Equal(t, "TemporalBottomFirst", fieldOrderToDetail("bb"))
	assert.Equal(t, "", fieldOrderToDetail("progressive"))
}
