package avio

import (
	"github.com/reelcrew/deinterlace/internal/field"
	"github.com/reelcrew/deinterlace/internal/track"
)

// passThroughReader/passThroughWriter model a non-field track (audio,
// timecode, already-progressive video, or a recompress-only track aliased
// to pass-through) as a single opaque sample. The real copy happens once,
// in the movie's final -c copy remux (movie.go): per-track work finishes,
// then one assembly command stitches everything together. The Pipeline
// still runs its ordinary per-track loop (one NextSample, one Append,
// then EOF) so every track — fielded or not — goes through the same
// join-group lifecycle and reports real progress.
type passThroughReader struct {
	delivered bool
}

func newPassThroughReader() *passThroughReader {
	return &passThroughReader{}
}

func (r *passThroughReader) NextSample() (track.Sample, bool, error) {
	if r.delivered {
		return track.Sample{}, false, nil
	}
	r.delivered = true
	return track.Sample{PTS: track.PTS{Num: 1, Den: 1}}, true, nil
}

func (r *passThroughReader) NextPixelBuffer() (*field.Buffer, track.PTS, bool, error) {
	return nil, track.PTS{}, false, nil
}

func (r *passThroughReader) Cancel() {}

type passThroughWriter struct{}

func newPassThroughWriter() *passThroughWriter { return &passThroughWriter{} }

func (w *passThroughWriter) IsReadyForMoreMediaData() bool { return true }
func (w *passThroughWriter) Append(track.Sample) error     { return nil }
func (w *passThroughWriter) AppendPixelBuffer(*field.Buffer, track.PTS) error {
	return nil
}
func (w *passThroughWriter) MarkAsFinished() {}
func (w *passThroughWriter) Pool() field.Pool { return nil }
