package track

import (
	"io"
	"testing"

	"github.com/reelcrew/deinterlace/internal/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVideoReader produces n interlaced frames at a fixed frame duration,
// for exercising the deinterlace pump without any real demuxer.
type fakeVideoReader struct {
	pool     field.Pool
	n        int
	i        int
	frameDur PTS
}

func (r *fakeVideoReader) NextSample() (Sample, bool, error) { return Sample{}, false, nil }

func (r *fakeVideoReader) NextPixelBuffer() (*field.Buffer, PTS, bool, error) {
	if r.i >= r.n {
		return nil, PTS{}, false, nil
	}
	buf := r.pool.Get()
	for y := 0; y < buf.Height; y++ {
		row := buf.Row(y)
		for x := range row {
			row[x] = byte(r.i)
		}
	}
	pts := PTS{Num: int64(r.i) * r.frameDur.Num, Den: r.frameDur.Den}
	r.i++
	return buf, pts, true, nil
}

func (r *fakeVideoReader) Cancel() { r.n = r.i }

type appendedFrame struct {
	pts PTS
}

type fakeWriter struct {
	pool      field.Pool
	appended  []appendedFrame
	samples   []Sample
	finished  bool
	failAfter int // fail the Nth append (1-indexed), 0 = never
}

func (w *fakeWriter) IsReadyForMoreMediaData() bool { return !w.finished }

func (w *fakeWriter) Append(s Sample) error {
	w.samples = append(w.samples, s)
	return nil
}

func (w *fakeWriter) AppendPixelBuffer(buf *field.Buffer, pts PTS) error {
	if w.failAfter != 0 && len(w.appended)+1 == w.failAfter {
		return io.ErrClosedPipe
	}
	w.appended = append(w.appended, appendedFrame{pts: pts})
	return nil
}

func (w *fakeWriter) MarkAsFinished() { w.finished = true }

func (w *fakeWriter) Pool() field.Pool { return w.pool }

func TestPipeline_ThreeFrameBFFClip(t *testing.T) {
	const width, height = 2, 2
	pool := field.NewPool(width, height)
	frameDur := PTS{Num: 1001, Den: 60000} // 2 * fieldDuration
	reader := &fakeVideoReader{pool: pool, n: 3, frameDur: frameDur}
	writer := &fakeWriter{}

	desc := FormatDescriptor{
		Kind:             KindVideo,
		Width:            width,
		Height:           height,
		FieldCount:       2,
		FieldDetail:      "TemporalBottomFirst",
		NominalFrameRate: 59.94,
		EndTime:          PTS{Num: 10, Den: 1},
	}
	p := Setup(desc, reader, writer)
	require.Equal(t, DeinterlaceAndRecompress, p.Mode)
	p.PostWriterStart()

	p.Run()

	require.False(t, p.Failed())
	require.Len(t, writer.appended, 6)

	want := []PTS{
		{Num: 0, Den: 1},
		{Num: 1001, Den: 120000},
		{Num: 1001, Den: 60000},
		PTS{Num: 1001, Den: 120000}.Add(PTS{Num: 1001, Den: 60000}),
		{Num: 2 * 1001, Den: 60000},
		PTS{Num: 2 * 1001, Den: 60000}.Add(PTS{Num: 1001, Den: 120000}),
	}
	for i, f := range writer.appended {
		assert.Truef(t, f.pts.Equal(want[i]), "frame %d: got %+v want %+v", i, f.pts, want[i])
	}
	assert.EqualValues(t, 6, p.FramesWritten())
}

func TestPipeline_Cancellation(t *testing.T) {
	const width, height = 2, 2
	pool := field.NewPool(width, height)
	reader := &fakeVideoReader{pool: pool, n: 1000, frameDur: PTS{Num: 1, Den: 30}}
	writer := &fakeWriter{}
	desc := FormatDescriptor{
		Kind: KindVideo, Width: width, Height: height,
		FieldCount: 2, NominalFrameRate: 29.97, EndTime: PTS{Num: 1000, Den: 30},
	}
	p := Setup(desc, reader, writer)
	p.PostWriterStart()

	go p.Cancel()
	p.Run()

	assert.True(t, writer.finished)
}

func TestPipeline_PassThroughUntilEOF(t *testing.T) {
	samples := []Sample{{PTS: PTS{Num: 0, Den: 1}}, {PTS: PTS{Num: 1, Den: 1}}}
	reader := &fakeAudioReader{samples: samples}
	writer := &fakeWriter{}
	desc := FormatDescriptor{Kind: KindAudio}
	p := Setup(desc, reader, writer)
	require.Equal(t, PassThrough, p.Mode)

	p.Run()

	assert.True(t, writer.finished)
	assert.Len(t, writer.samples, 2)
	assert.Equal(t, 1.0, p.Progress())
}

type fakeAudioReader struct {
	samples []Sample
	i       int
}

func (r *fakeAudioReader) NextSample() (Sample, bool, error) {
	if r.i >= len(r.samples) {
		return Sample{}, false, nil
	}
	s := r.samples[r.i]
	r.i++
	return s, true, nil
}
func (r *fakeAudioReader) NextPixelBuffer() (*field.Buffer, PTS, bool, error) {
	return nil, PTS{}, false, nil
}
func (r *fakeAudioReader) Cancel() {}
