package avio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/reelcrew/deinterlace/internal/field"
	"github.com/reelcrew/deinterlace/internal/track"
	"github.com/rs/zerolog"
)

// uyvyPixFmt is the packed 4:2:2 pixel format the field-reconstruction
// kernel in internal/field is written against: two bytes per pixel, chroma
// subsampled horizontally only, so each line is a self-contained byte run.
const uyvyPixFmt = "uyvy422"

// videoFieldReader pulls one interlaced frame at a time off an ffmpeg
// rawvideo pipe, decoding packed UYVY 4:2:2 at the source frame rate.
type videoFieldReader struct {
	log zerolog.Logger

	cmd     *exec.Cmd
	stdout  io.ReadCloser
	buffered *bufio.Reader

	width, height int
	rowBytes      int
	frameIndex    int64
	fieldDuration track.PTS

	pool field.Pool

	cancelled int32
	mu        sync.Mutex
	started   bool
}

func newVideoFieldReader(ctx context.Context, log zerolog.Logger, inputPath string, streamIndex int, d track.FormatDescriptor, pool field.Pool) *videoFieldReader {
	fieldDur, _ := track.FieldDuration(d)
	return &videoFieldReader{
		log:           log.With().Str("component", "video-reader").Int("stream", streamIndex).Logger(),
		width:         d.Width,
		height:        d.Height,
		rowBytes:      d.Width * field.BytesPerPixel,
		fieldDuration: fieldDur,
		pool:          pool,
		cmd: exec.CommandContext(ctx, "ffmpeg",
			"-loglevel", "error",
			"-i", inputPath,
			"-map", fmt.Sprintf("0:%d", streamIndex),
			"-f", "rawvideo",
			"-pix_fmt", uyvyPixFmt,
			"-",
		),
	}
}

// Start launches the subprocess; called from Source.StartReading.
func (r *videoFieldReader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	stdout, err := r.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create reader stdout pipe: %w", err)
	}
	stderr, err := r.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create reader stderr pipe: %w", err)
	}
	r.stdout = stdout
	r.buffered = bufio.NewReaderSize(stdout, r.rowBytes*4)
	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg reader: %w", err)
	}
	r.started = true
	go r.drainStderr(stderr)
	return nil
}

func (r *videoFieldReader) drainStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		r.log.Debug().Str("ffmpeg", scanner.Text()).Msg("decoder stderr")
	}
}

func (r *videoFieldReader) NextSample() (track.Sample, bool, error) {
	return track.Sample{}, false, fmt.Errorf("video-with-fields track does not support sample iteration")
}

func (r *videoFieldReader) NextPixelBuffer() (*field.Buffer, track.PTS, bool, error) {
	if atomic.LoadInt32(&r.cancelled) != 0 {
		return nil, track.PTS{}, false, nil
	}

	buf := r.pool.Get()

	for y := 0; y < r.height; y++ {
		row := buf.Row(y)[:r.rowBytes]
		_, err := io.ReadFull(r.buffered, row)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			r.pool.Put(buf)
			return nil, track.PTS{}, false, nil
		}
		if err != nil {
			r.pool.Put(buf)
			return nil, track.PTS{}, false, fmt.Errorf("decoder read failed: %w", err)
		}
	}

	pts := track.PTS{Num: r.frameIndex * r.fieldDuration.Num * 2, Den: r.fieldDuration.Den}
	r.frameIndex++
	return buf, pts, true, nil
}

func (r *videoFieldReader) Cancel() {
	atomic.StoreInt32(&r.cancelled, 1)
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
}

func (r *videoFieldReader) wait() error {
	if !r.started {
		return nil
	}
	return r.cmd.Wait()
}

// videoFieldWriter encodes reconstructed progressive frames back to a
// temporary ProRes file via an ffmpeg rawvideo-stdin subprocess, at twice
// the source frame rate (one progressive frame per field).
type videoFieldWriter struct {
	log zerolog.Logger

	cmd   *exec.Cmd
	stdin io.WriteCloser

	width, height int
	rowBytes      int

	pool field.Pool

	mu       sync.Mutex
	started  bool
	finished bool
}

func newVideoFieldWriter(ctx context.Context, log zerolog.Logger, outputPath string, d track.FormatDescriptor, progressiveFPS float64) *videoFieldWriter {
	return &videoFieldWriter{
		log:      log.With().Str("component", "video-writer").Str("path", outputPath).Logger(),
		width:    d.Width,
		height:   d.Height,
		rowBytes: d.Width * field.BytesPerPixel,
		cmd: exec.CommandContext(ctx, "ffmpeg",
			"-loglevel", "warning",
			"-f", "rawvideo",
			"-pix_fmt", uyvyPixFmt,
			"-s", fmt.Sprintf("%dx%d", d.Width, d.Height),
			"-r", fmt.Sprintf("%.6f", progressiveFPS),
			"-i", "-",
			"-c:v", preferredProResEncoder(),
			"-profile:v", "2",
			"-y", outputPath,
		),
	}
}

func (w *videoFieldWriter) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create encoder stdin pipe: %w", err)
	}
	stderr, err := w.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create encoder stderr pipe: %w", err)
	}
	w.stdin = stdin
	if err := w.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg encoder: %w", err)
	}
	w.started = true
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			w.log.Debug().Str("ffmpeg", scanner.Text()).Msg("encoder stderr")
		}
	}()
	return nil
}

func (w *videoFieldWriter) IsReadyForMoreMediaData() bool { return true }

func (w *videoFieldWriter) Append(track.Sample) error {
	return fmt.Errorf("video-with-fields track does not support sample append")
}

func (w *videoFieldWriter) AppendPixelBuffer(buf *field.Buffer, _ track.PTS) error {
	defer func() {
		if w.pool != nil {
			w.pool.Put(buf)
		}
	}()
	for y := 0; y < w.height; y++ {
		if _, err := w.stdin.Write(buf.Row(y)[:w.rowBytes]); err != nil {
			return fmt.Errorf("encoder write failed: %w", err)
		}
	}
	return nil
}

func (w *videoFieldWriter) MarkAsFinished() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished || !w.started {
		return
	}
	w.finished = true
	_ = w.stdin.Close()
}

func (w *videoFieldWriter) Pool() field.Pool { return w.pool }

func (w *videoFieldWriter) wait() error {
	if !w.started {
		return nil
	}
	return w.cmd.Wait()
}

func (w *videoFieldWriter) kill() {
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
}
