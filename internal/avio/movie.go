package avio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/reelcrew/deinterlace/internal/field"
	"github.com/reelcrew/deinterlace/internal/movie"
	"github.com/reelcrew/deinterlace/internal/track"
	"github.com/rs/zerolog"
)

// Movie is the ffprobe/ffmpeg-backed Source and Sink for one input file:
// per-track subprocess work first, one assembly command last.
type Movie struct {
	log zerolog.Logger

	inputPath  string
	outputPath string
	tempDir    string

	ctx    context.Context
	cancel context.CancelFunc

	videoTempPath      string
	hasFieldTrack      bool
	passThroughStreams []int

	fieldReader *videoFieldReader
	fieldWriter *videoFieldWriter
}

// NewMovie builds the Source/Sink pair for one batch job.
func NewMovie(log zerolog.Logger, inputPath, outputPath, tempDir string) *Movie {
	ctx, cancel := context.WithCancel(context.Background())
	return &Movie{
		log:        log.With().Str("input", inputPath).Logger(),
		inputPath:  inputPath,
		outputPath: outputPath,
		tempDir:    tempDir,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// LoadTracks probes inputPath and builds one TrackSource per stream:
// video-with-fields tracks get the rawvideo pipe Reader/Writer pair,
// everything else gets the single-sample pass-through pair.
func (m *Movie) LoadTracks() ([]movie.TrackSource, error) {
	probed, err := ProbeTracks(m.ctx, m.inputPath)
	if err != nil {
		return nil, err
	}

	sources := make([]movie.TrackSource, 0, len(probed))
	for _, p := range probed {
		d := p.Descriptor
		mode := track.SelectMode(d)

		if mode == track.DeinterlaceAndRecompress {
			pool := field.NewPool(d.Width, d.Height)
			m.videoTempPath = filepath.Join(m.tempDir, "deinterlaced.mov")
			reader := newVideoFieldReader(m.ctx, m.log, m.inputPath, p.StreamIndex, d, pool)
			reader.pool = pool
			writer := newVideoFieldWriter(m.ctx, m.log, m.videoTempPath, d, d.NominalFrameRate*2)
			writer.pool = pool
			m.fieldReader = reader
			m.fieldWriter = writer
			m.hasFieldTrack = true
			sources = append(sources, movie.TrackSource{Descriptor: d, Reader: reader, Writer: writer})
			continue
		}

		m.passThroughStreams = append(m.passThroughStreams, p.StreamIndex)
		sources = append(sources, movie.TrackSource{
			Descriptor: d,
			Reader:     newPassThroughReader(),
			Writer:     newPassThroughWriter(),
		})
	}

	return sources, nil
}

func (m *Movie) StartReading() error {
	if m.fieldReader != nil {
		return m.fieldReader.Start()
	}
	return nil
}

func (m *Movie) CancelReading() {
	if m.fieldReader != nil {
		m.fieldReader.Cancel()
	}
}

func (m *Movie) SetMovieTimeScale(int64) {}

func (m *Movie) StartWriting() error {
	if m.fieldWriter != nil {
		return m.fieldWriter.Start()
	}
	return nil
}

func (m *Movie) StartSession() error { return nil }

// FinishWriting waits for the per-track video encode (if any) to finish,
// then runs the single final -c copy assembly.
func (m *Movie) FinishWriting() error {
	if m.fieldWriter != nil {
		if err := m.fieldWriter.wait(); err != nil {
			return fmt.Errorf("video encode failed: %w", err)
		}
	}
	if m.fieldReader != nil {
		_ = m.fieldReader.wait()
	}
	return m.assemble()
}

func (m *Movie) CancelWriting() {
	if m.fieldWriter != nil {
		m.fieldWriter.kill()
	}
	if m.fieldReader != nil {
		m.fieldReader.Cancel()
	}
	m.cancel()
	if m.videoTempPath != "" {
		_ = os.Remove(m.videoTempPath)
	}
}

// assemble runs the final remux: the deinterlaced temp video (if any)
// plus every pass-through stream from the original file, into outputPath.
func (m *Movie) assemble() error {
	if err := os.MkdirAll(filepath.Dir(m.outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{"-loglevel", "error", "-y"}

	mapArgs := make([]string, 0, len(m.passThroughStreams)*2+2)
	if m.hasFieldTrack {
		args = append(args, "-i", m.videoTempPath)
		mapArgs = append(mapArgs, "-map", "0:v:0")
	}

	inputIndex := 0
	if m.hasFieldTrack {
		inputIndex = 1
	}
	if len(m.passThroughStreams) > 0 {
		args = append(args, "-i", m.inputPath)
		for _, streamIdx := range m.passThroughStreams {
			mapArgs = append(mapArgs, "-map", fmt.Sprintf("%d:%d", inputIndex, streamIdx))
		}
	}

	args = append(args, mapArgs...)
	args = append(args, "-c", "copy", m.outputPath)

	cmd := exec.CommandContext(m.ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if m.hasFieldTrack && len(m.passThroughStreams) == 0 {
			m.log.Warn().Err(err).Str("ffmpeg_output", string(out)).
				Msg("final assembly failed, copying deinterlaced video without remux")
			return copyFileOrRename(m.log, m.videoTempPath, m.outputPath)
		}
		return fmt.Errorf("final assembly failed: %w (%s)", err, string(out))
	}
	if m.videoTempPath != "" {
		_ = os.Remove(m.videoTempPath)
	}
	return nil
}
