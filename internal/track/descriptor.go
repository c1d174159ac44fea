// Package track implements track classification and the per-track pump
// state machine: given a track's format descriptor, decide how it should
// be processed, and drain it through that processing mode against a
// writer.
package track

// Kind classifies a track by its general media type.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindTimecode Kind = "timecode"
	KindOther    Kind = "other"
)

// proResFourCCs is the set of ProRes 422 family codec tags.
var proResFourCCs = map[string]bool{
	"apcn": true, "apch": true, "apcs": true,
	"apco": true, "ap4h": true, "ap4x": true,
}

// FormatDescriptor is the opaque-to-callers set of facts about a track that
// TrackIntrospection (C5) reduces to the derived flags below. It is
// populated by whatever demuxer/prober the Media I/O Adapter uses; nothing
// in this package or field/ reaches into a container format directly.
type FormatDescriptor struct {
	Kind Kind

	// Video-only.
	Width, Height int
	CodecFourCC   string
	IsDVNTSC      bool

	// Interlace hints, as reported by the container (may be absent or
	// wrong — see IsDVNTSC override below).
	FieldCount  int
	FieldDetail string

	NominalFrameRate float64 // frames per second
	NaturalTimeScale int64
	EndTime          PTS
}

// HasFields reports whether a track carries two temporally distinct fields
// per frame. DV-NTSC is always interlaced even when the container's field
// count lies about it.
func HasFields(d FormatDescriptor) bool {
	if d.Kind != KindVideo {
		return false
	}
	return d.FieldCount == 2 || d.IsDVNTSC
}

// TopFieldFirst reports whether the top (even-line) field is the
// temporally earlier one.
func TopFieldFirst(d FormatDescriptor) bool {
	return d.FieldDetail == "TemporalTopFirst" || d.FieldDetail == "SpatialFirstLineEarly"
}

// FieldDuration returns the temporal offset from a frame's PTS to its
// second field's PTS, and whether the nominal frame rate fell into one of
// the two recognized NTSC-family buckets.
func FieldDuration(d FormatDescriptor) (PTS, bool) {
	if !HasFields(d) {
		return PTS{}, false
	}
	switch {
	case d.NominalFrameRate > 29.95 && d.NominalFrameRate < 30.0:
		return PTS{Num: 1001, Den: 60000}, true
	case d.NominalFrameRate > 59.90 && d.NominalFrameRate < 60.0:
		return PTS{Num: 1001, Den: 120000}, true
	default:
		return PTS{}, false
	}
}

// IsAnyProRes reports whether the track's codec four-char-code names a
// ProRes 422 family codec.
func IsAnyProRes(d FormatDescriptor) bool {
	return proResFourCCs[d.CodecFourCC]
}

// Mode is the tagged variant selecting how a track pipeline processes
// samples.
type Mode int

const (
	// DeinterlaceAndRecompress runs samples through the field deinterlacer
	// and re-encodes to ProRes 422. Only valid for video-with-fields.
	DeinterlaceAndRecompress Mode = iota
	// RecompressOnly would re-encode non-ProRes progressive video to
	// ProRes 422. Classified but currently aliased to PassThrough — see
	// SelectMode.
	RecompressOnly
	// PassThrough writes samples to the writer verbatim.
	PassThrough
)

func (m Mode) String() string {
	switch m {
	case DeinterlaceAndRecompress:
		return "deinterlace-and-recompress"
	case RecompressOnly:
		return "recompress-only"
	case PassThrough:
		return "pass-through"
	default:
		return "unknown"
	}
}

// SelectMode classifies a track's descriptor into a processing mode.
//
// RecompressOnly is deliberately routed through the same pump as
// PassThrough: the recompress encode path is not implemented yet, so
// classification stays honest (callers can see the real mode) without
// pretending execution covers it — see DESIGN.md's Open Question entry.
func SelectMode(d FormatDescriptor) Mode {
	if d.Kind != KindVideo {
		return PassThrough
	}
	if HasFields(d) {
		return DeinterlaceAndRecompress
	}
	if IsAnyProRes(d) {
		return PassThrough
	}
	return RecompressOnly
}

// pumpsAsPassThrough reports whether mode m currently drains samples
// verbatim rather than through the deinterlacer. RecompressOnly is
// aliased here per SelectMode's doc comment.
func pumpsAsPassThrough(m Mode) bool {
	return m == PassThrough || m == RecompressOnly
}
