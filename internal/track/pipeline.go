package track

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/reelcrew/deinterlace/internal/field"
)

// Sample is an opaque, container-format-agnostic sample buffer with its
// presentation timestamp. Reader/Writer trade these for pass-through and
// recompress-only tracks; video-with-fields tracks trade pixel buffers
// instead (see Reader.NextPixelBuffer).
type Sample struct {
	PTS  PTS
	Data []byte
}

// Reader is the narrow per-track read side of the container demuxer
// collaborator: an opaque sample iterator, plus — for video-with-fields
// tracks — a pixel buffer accessor.
type Reader interface {
	// NextSample returns the next opaque sample, or ok=false at EOF.
	NextSample() (sample Sample, ok bool, err error)
	// NextPixelBuffer returns the next interlaced frame as an uncompressed
	// pixel buffer with its PTS, or ok=false at EOF.
	NextPixelBuffer() (buf *field.Buffer, pts PTS, ok bool, err error)
	// Cancel stops the reader; subsequent calls return ok=false.
	Cancel()
}

// Writer is the narrow per-track write side of the container muxer
// collaborator.
type Writer interface {
	IsReadyForMoreMediaData() bool
	Append(sample Sample) error
	AppendPixelBuffer(buf *field.Buffer, pts PTS) error
	MarkAsFinished()
	// Pool returns the writer's own pixel-buffer pool, or nil if the
	// writer does not expose one — a writer may only gain a pool once
	// StartWriting has run.
	Pool() field.Pool
}

// pendingFrame is the second progressive frame produced from an
// interlaced sample, held until the writer requests more data.
type pendingFrame struct {
	buf *field.Buffer
	pts PTS
}

// Pipeline is the per-track state machine: pull samples from a Reader,
// transform them according to Mode, push them to a Writer.
type Pipeline struct {
	Mode Mode

	reader Reader
	writer Writer
	pool   field.Pool

	topFieldFirst bool
	fieldDuration PTS
	endTime       PTS

	pending *pendingFrame

	framesWritten int64
	progressBits  uint64 // atomic, stores math.Float64bits
	cancelled     int32  // atomic bool
	failed        int32  // atomic bool
}

// Setup builds a Pipeline for one track. For DeinterlaceAndRecompress it
// also constructs a fallback pool sized to the track's geometry, used
// until PostWriterStart possibly replaces it with the writer's own pool.
func Setup(desc FormatDescriptor, reader Reader, writer Writer) *Pipeline {
	mode := SelectMode(desc)
	p := &Pipeline{
		Mode:   mode,
		reader: reader,
		writer: writer,
	}
	if mode == DeinterlaceAndRecompress {
		p.topFieldFirst = TopFieldFirst(desc)
		if fd, ok := FieldDuration(desc); ok {
			p.fieldDuration = fd
		}
		p.endTime = desc.EndTime
		p.pool = field.NewPool(desc.Width, desc.Height)
	}
	return p
}

// PostWriterStart binds the writer's own pixel-buffer pool if it exposes
// one post-startWriting; otherwise the locally-created fallback pool from
// Setup is kept.
func (p *Pipeline) PostWriterStart() {
	if p.Mode != DeinterlaceAndRecompress {
		return
	}
	if wp := p.writer.Pool(); wp != nil {
		p.pool = wp
	}
}

// Progress returns the pipeline's current progress in [0,1].
func (p *Pipeline) Progress() float64 {
	return math.Float64frombits(atomic.LoadUint64(&p.progressBits))
}

func (p *Pipeline) setProgress(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	atomic.StoreUint64(&p.progressBits, math.Float64bits(v))
}

// FramesWritten returns the number of samples/frames appended so far.
func (p *Pipeline) FramesWritten() int64 {
	return atomic.LoadInt64(&p.framesWritten)
}

// Failed reports whether the pump observed a reader/writer error.
func (p *Pipeline) Failed() bool {
	return atomic.LoadInt32(&p.failed) != 0
}

// Cancel sets the cancellation flag; the next pump iteration finishes the
// writer and returns.
func (p *Pipeline) Cancel() {
	atomic.StoreInt32(&p.cancelled, 1)
}

func (p *Pipeline) cancelled1() bool {
	return atomic.LoadInt32(&p.cancelled) != 0
}

// Run drains the reader through the writer until EOF, cancellation, or an
// error, then marks the writer finished. It is meant to be invoked on its
// own goroutine by the orchestrator, inside the join group.
func (p *Pipeline) Run() {
	if pumpsAsPassThrough(p.Mode) {
		p.pumpPassThrough()
		return
	}
	p.pumpDeinterlace()
}

func (p *Pipeline) pumpDeinterlace() {
	for {
		if p.cancelled1() {
			p.writer.MarkAsFinished()
			return
		}
		if !p.writer.IsReadyForMoreMediaData() {
			time.Sleep(time.Millisecond)
			continue
		}

		if p.pending != nil {
			if err := p.writer.AppendPixelBuffer(p.pending.buf, p.pending.pts); err != nil {
				atomic.StoreInt32(&p.failed, 1)
				p.writer.MarkAsFinished()
				return
			}
			p.pending = nil
			atomic.AddInt64(&p.framesWritten, 1)
			continue
		}

		buf, srcPTS, ok, err := p.reader.NextPixelBuffer()
		if err != nil {
			atomic.StoreInt32(&p.failed, 1)
			p.writer.MarkAsFinished()
			return
		}
		if !ok {
			p.writer.MarkAsFinished()
			return
		}

		a, b := field.MakeProgressivePair(buf, p.topFieldFirst, p.pool)
		if err := p.writer.AppendPixelBuffer(a, srcPTS); err != nil {
			atomic.StoreInt32(&p.failed, 1)
			p.writer.MarkAsFinished()
			return
		}
		p.pending = &pendingFrame{buf: b, pts: srcPTS.Add(p.fieldDuration)}
		atomic.AddInt64(&p.framesWritten, 1)

		if p.endTime.Num != 0 {
			p.setProgress(srcPTS.Seconds() / p.endTime.Seconds())
		}
	}
}

func (p *Pipeline) pumpPassThrough() {
	for {
		if p.cancelled1() {
			p.writer.MarkAsFinished()
			return
		}
		if !p.writer.IsReadyForMoreMediaData() {
			time.Sleep(time.Millisecond)
			continue
		}

		sample, ok, err := p.reader.NextSample()
		if err != nil {
			atomic.StoreInt32(&p.failed, 1)
			p.writer.MarkAsFinished()
			return
		}
		if !ok {
			p.setProgress(1.0)
			p.writer.MarkAsFinished()
			return
		}
		if err := p.writer.Append(sample); err != nil {
			atomic.StoreInt32(&p.failed, 1)
			p.writer.MarkAsFinished()
			return
		}
		atomic.AddInt64(&p.framesWritten, 1)
	}
}
