package movie

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/reelcrew/deinterlace/internal/track"
)

// SafeMovieTimeScale is large enough to express every natural track
// timescale this system is likely to see without loss.
const SafeMovieTimeScale = 120000

// TrackSource bundles one track's descriptor with its per-track reader and
// writer endpoints, as produced by Source.LoadTracks.
type TrackSource struct {
	Descriptor track.FormatDescriptor
	Reader     track.Reader
	Writer     track.Writer
}

// Source is the movie-level read side of the demuxer collaborator.
type Source interface {
	LoadTracks() ([]TrackSource, error)
	StartReading() error
	CancelReading()
}

// Sink is the movie-level write side of the muxer collaborator.
type Sink interface {
	SetMovieTimeScale(scale int64)
	StartWriting() error
	StartSession() error
	// FinishWriting flushes and closes the output; it may block.
	FinishWriting() error
	CancelWriting()
}

// Orchestrator builds the set of track pipelines for one movie, runs them
// concurrently against one writer, tracks progress, and reports
// completion/failure/cancellation.
type Orchestrator struct {
	Status *Status

	source Source
	sink   Sink

	startOnce sync.Once
	started   bool

	mu        sync.Mutex
	pipelines []*track.Pipeline
	cancelled int32
}

// New builds an Orchestrator for one movie job.
func New(source Source, sink Sink) *Orchestrator {
	return &Orchestrator{Status: &Status{}, source: source, sink: sink}
}

// Start loads tracks, wires up pipelines, and runs them to completion. A
// second call on an already-started movie is a no-op.
func (o *Orchestrator) Start() error {
	var err error
	o.startOnce.Do(func() {
		o.mu.Lock()
		o.started = true
		o.mu.Unlock()
		err = o.run()
	})
	return err
}

func (o *Orchestrator) run() error {
	o.Status.markStarted()

	sources, loadErr := o.source.LoadTracks()
	if loadErr != nil || len(sources) == 0 {
		o.Status.markCompleted(false)
		if loadErr != nil {
			return fmt.Errorf("movie setup failed: %w", loadErr)
		}
		return fmt.Errorf("movie setup failed: no tracks")
	}

	o.sink.SetMovieTimeScale(SafeMovieTimeScale)

	pipelines := make([]*track.Pipeline, 0, len(sources))
	for _, ts := range sources {
		if ts.Descriptor.Kind == "" {
			// Track classification failure: lacks a format descriptor.
			continue
		}
		pipelines = append(pipelines, track.Setup(ts.Descriptor, ts.Reader, ts.Writer))
	}

	if err := o.source.StartReading(); err != nil {
		o.Status.markCompleted(false)
		return fmt.Errorf("movie setup failed: %w", err)
	}
	if err := o.sink.StartWriting(); err != nil {
		o.Status.markCompleted(false)
		return fmt.Errorf("movie setup failed: %w", err)
	}
	if err := o.sink.StartSession(); err != nil {
		o.Status.markCompleted(false)
		return fmt.Errorf("movie setup failed: %w", err)
	}

	for _, p := range pipelines {
		p.PostWriterStart()
	}

	o.mu.Lock()
	o.pipelines = pipelines
	alreadyCancelled := atomic.LoadInt32(&o.cancelled) != 0
	o.mu.Unlock()
	// A cancel that arrived before pipelines existed (e.g. during
	// LoadTracks) must still reach them before they start pumping.
	if alreadyCancelled {
		for _, p := range pipelines {
			p.Cancel()
		}
	}

	var jg joinGroup
	done := make(chan struct{})
	jg.onDone = func() {
		o.finish()
		close(done)
	}

	for _, p := range pipelines {
		jg.add()
		go func(p *track.Pipeline) {
			defer jg.leave()
			p.Run()
		}(p)
	}
	<-done

	return nil
}

// finish runs the join-group completion: cancel the writer if the movie
// was cancelled, otherwise finish it and cancel the reader.
func (o *Orchestrator) finish() {
	cancelled := atomic.LoadInt32(&o.cancelled) != 0

	anyFailed := false
	o.mu.Lock()
	for _, p := range o.pipelines {
		if p.Failed() {
			anyFailed = true
		}
	}
	o.mu.Unlock()

	if cancelled {
		o.sink.CancelWriting()
	} else {
		_ = o.sink.FinishWriting()
		o.source.CancelReading()
	}

	o.Status.markCompleted(!cancelled && !anyFailed)
}

// Cancel propagates cancellation to every track pipeline.
func (o *Orchestrator) Cancel() {
	atomic.StoreInt32(&o.cancelled, 1)
	o.mu.Lock()
	pipelines := append([]*track.Pipeline(nil), o.pipelines...)
	o.mu.Unlock()
	for _, p := range pipelines {
		p.Cancel()
	}
}

// Progress recomputes the mean of the pipelines' progress, records it on
// Status (which only ever moves forward), and returns Status's view —
// 1.0 once the movie has completed.
func (o *Orchestrator) Progress() float64 {
	o.mu.Lock()
	pipelines := o.pipelines
	o.mu.Unlock()
	if len(pipelines) > 0 {
		var sum float64
		for _, p := range pipelines {
			sum += p.Progress()
		}
		o.Status.setProgress(sum / float64(len(pipelines)))
	}
	return o.Status.Progress()
}
