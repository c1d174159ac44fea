// Package batch implements the batch scheduler (C4): walking the input
// tree, admitting at most N movies concurrently, and aggregating progress.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reelcrew/deinterlace/internal/movie"
)

// movieExtensions is the set of movie container extensions this scanner
// recognizes.
var movieExtensions = map[string]bool{
	".mov": true, ".mp4": true, ".m4v": true, ".dv": true, ".avi": true,
	".mkv": true, ".mxf": true, ".m2ts": true, ".mts": true,
}

const deinterlacedSuffix = "_deinterlaced"

// Job is one movie to process: its input/output paths and the status of
// its (not-yet-constructed) orchestrator.
type Job struct {
	InputPath  string
	OutputPath string

	// Orchestrator is attached by the caller (via an OrchestratorFactory)
	// before Scheduler.Run is invoked.
	Orchestrator *movie.Orchestrator
}

// ScanInputs recursively enumerates movie files beneath inputRoot
// (skipping hidden entries), sorted by absolute path, and computes each
// job's output path by mirroring the subdirectory structure beneath
// outputRoot. outputRoot defaults to a sibling of inputRoot suffixed
// "_deinterlaced" when empty. Every movie's output filename is
// "<stem>.mov" regardless of input extension; intermediate output
// directories are created as needed.
func ScanInputs(inputRoot, outputRoot string) ([]*Job, error) {
	info, err := os.Stat(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("input folder not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path is not a directory: %s", inputRoot)
	}

	absInput, err := filepath.Abs(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input path: %w", err)
	}

	if outputRoot == "" {
		outputRoot = absInput + deinterlacedSuffix
	}
	absOutput, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(absInput, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := d.Name()
		if base != "." && strings.HasPrefix(base, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if movieExtensions[strings.ToLower(filepath.Ext(path))] {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			paths = append(paths, abs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan input folder: %w", err)
	}
	sort.Strings(paths)

	jobs := make([]*Job, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(absInput, p)
		if err != nil {
			return nil, fmt.Errorf("failed to compute relative path for %s: %w", p, err)
		}
		stem := strings.TrimSuffix(rel, filepath.Ext(rel))
		outPath := filepath.Join(absOutput, stem+".mov")
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory for %s: %w", outPath, err)
		}
		jobs = append(jobs, &Job{InputPath: p, OutputPath: outPath})
	}

	return jobs, nil
}
