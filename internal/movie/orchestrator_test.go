package movie

import (
	"errors"
	"testing"
	"time"

	"github.com/reelcrew/deinterlace/internal/field"
	"github.com/reelcrew/deinterlace/internal/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	scale      int64
	finished   bool
	cancelled  bool
	startErr   error
}

func (s *fakeSink) SetMovieTimeScale(scale int64) { s.scale = scale }
func (s *fakeSink) StartWriting() error            { return s.startErr }
func (s *fakeSink) StartSession() error            { return nil }
func (s *fakeSink) FinishWriting() error           { s.finished = true; return nil }
func (s *fakeSink) CancelWriting()                 { s.cancelled = true }

type fakeSource struct {
	sources      []TrackSource
	loadErr      error
	readingDone  bool
	cancelCalled bool
}

func (s *fakeSource) LoadTracks() ([]TrackSource, error) { return s.sources, s.loadErr }
func (s *fakeSource) StartReading() error                { s.readingDone = true; return nil }
func (s *fakeSource) CancelReading()                     { s.cancelCalled = true }

// stubReader/stubWriter implement track.Reader/track.Writer for a single
// audio-like pass-through track that yields n samples then EOF.
type stubReader struct {
	n, i int
}

func (r *stubReader) NextSample() (track.Sample, bool, error) {
	if r.i >= r.n {
		return track.Sample{}, false, nil
	}
	r.i++
	return track.Sample{PTS: track.PTS{Num: int64(r.i), Den: 1}}, true, nil
}
func (r *stubReader) NextPixelBuffer() (*field.Buffer, track.PTS, bool, error) {
	return nil, track.PTS{}, false, nil
}
func (r *stubReader) Cancel() {}

type stubWriter struct {
	finished bool
	count    int
}

func (w *stubWriter) IsReadyForMoreMediaData() bool { return !w.finished }
func (w *stubWriter) Append(track.Sample) error     { w.count++; return nil }
func (w *stubWriter) AppendPixelBuffer(*field.Buffer, track.PTS) error {
	return errors.New("not a video track")
}
func (w *stubWriter) MarkAsFinished()  { w.finished = true }
func (w *stubWriter) Pool() field.Pool { return nil }

func TestOrchestrator_EmptyTracksFailsMovie(t *testing.T) {
	src := &fakeSource{sources: nil}
	sink := &fakeSink{}
	o := New(src, sink)

	err := o.Start()

	require.Error(t, err)
	assert.True(t, o.Status.HasCompleted())
	assert.False(t, o.Status.Success())
}

func TestOrchestrator_MixedTracksCompletesSuccessfully(t *testing.T) {
	audioWriter := &stubWriter{}
	tcWriter := &stubWriter{}
	src := &fakeSource{sources: []TrackSource{
		{Descriptor: track.FormatDescriptor{Kind: track.KindAudio}, Reader: &stubReader{n: 3}, Writer: audioWriter},
		{Descriptor: track.FormatDescriptor{Kind: track.KindTimecode}, Reader: &stubReader{n: 1}, Writer: tcWriter},
	}}
	sink := &fakeSink{}
	o := New(src, sink)

	err := o.Start()

	require.NoError(t, err)
	assert.True(t, o.Status.HasCompleted())
	assert.True(t, o.Status.Success())
	assert.Equal(t, 1.0, o.Progress())
	assert.EqualValues(t, SafeMovieTimeScale, sink.scale)
	assert.True(t, sink.finished)
	assert.True(t, src.cancelCalled)
	assert.Equal(t, 3, audioWriter.count)
	assert.Equal(t, 1, tcWriter.count)
}

func TestOrchestrator_SecondStartIsNoOp(t *testing.T) {
	src := &fakeSource{sources: []TrackSource{
		{Descriptor: track.FormatDescriptor{Kind: track.KindAudio}, Reader: &stubReader{n: 1}, Writer: &stubWriter{}},
	}}
	sink := &fakeSink{}
	o := New(src, sink)

	require.NoError(t, o.Start())
	require.NoError(t, o.Start())
}

func TestOrchestrator_Cancel(t *testing.T) {
	src := &fakeSource{sources: []TrackSource{
		{Descriptor: track.FormatDescriptor{Kind: track.KindAudio}, Reader: &stubReader{n: 1_000_000}, Writer: &stubWriter{}},
	}}
	sink := &fakeSink{}
	o := New(src, sink)

	go func() {
		time.Sleep(time.Millisecond)
		o.Cancel()
	}()
	err := o.Start()

	require.NoError(t, err)
	assert.True(t, o.Status.HasCompleted())
	assert.False(t, o.Status.Success())
	assert.True(t, sink.cancelled)
}

func TestOrchestrator_SkipsTrackMissingDescriptorKind(t *testing.T) {
	src := &fakeSource{sources: []TrackSource{
		{Descriptor: track.FormatDescriptor{}, Reader: &stubReader{}, Writer: &stubWriter{}},
		{Descriptor: track.FormatDescriptor{Kind: track.KindAudio}, Reader: &stubReader{n: 1}, Writer: &stubWriter{}},
	}}
	sink := &fakeSink{}
	o := New(src, sink)

	require.NoError(t, o.Start())
	assert.True(t, o.Status.Success())
}
