// Command deinterlace batch-converts a folder of interlaced movies to
// progressive-scan ProRes, field-separating and vertically interpolating
// each interlaced video track while passing every other track through
// untouched. See SPEC_FULL.md for the full behavior.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/reelcrew/deinterlace/internal/avio"
	"github.com/reelcrew/deinterlace/internal/batch"
	"github.com/reelcrew/deinterlace/internal/config"
	"github.com/reelcrew/deinterlace/internal/logging"
	"github.com/reelcrew/deinterlace/internal/movie"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:      "deinterlace",
		Usage:     "batch-deinterlace a folder of movies to progressive ProRes",
		ArgsUsage: "<inputFolder> [<outputFolder>]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "concurrency", Usage: "max movies processed concurrently (0 = auto)"},
			&cli.StringFlag{Name: "log-level", Usage: "trace|debug|info|warn|error"},
			&cli.BoolFlag{Name: "log-json", Usage: "emit newline-delimited JSON logs instead of console formatting"},
		},
		Action: run,
		// Exit errors are returned from Run rather than exiting the
		// process; main reports them and sets the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("an input folder is required", 1)
	}
	inputFolder := c.Args().Get(0)
	outputFolder := c.Args().Get(1)

	cfg := config.Load()
	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-json") {
		cfg.LogJSON = c.Bool("log-json")
	}

	log := logging.New(cfg.LogLevel, cfg.LogJSON)

	jobs, err := batch.ScanInputs(inputFolder, outputFolder)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to scan input folder: %v", err), 1)
	}
	if len(jobs) == 0 {
		return cli.Exit(color.YellowString("No movie files found in %s", inputFolder), 1)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = avio.ConcurrencyFromCPUs()
	}
	log.Info().Int("jobs", len(jobs)).Int("concurrency", concurrency).Msg("starting batch")

	scheduler := batch.NewScheduler(jobs, concurrency)
	scheduler.AttachOrchestrators(func(job *batch.Job) error {
		tempDir, err := os.MkdirTemp(cfg.TempDir, "deinterlace-*")
		if err != nil {
			return err
		}
		m := avio.NewMovie(log, job.InputPath, job.OutputPath, tempDir)
		job.Orchestrator = movie.New(m, m)
		return nil
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		log.Warn().Msg("interrupt received, cancelling in-flight movies")
		scheduler.CancelAll()
		<-sigCh
		log.Error().Msg("second interrupt received, exiting immediately")
		os.Exit(130)
	}()

	bar := avio.NewBatchProgressBar(len(jobs))
	scheduler.Run(context.Background(), bar.Update)
	bar.Finish(resolveOutputRoot(inputFolder, outputFolder))

	return nil
}

func resolveOutputRoot(inputFolder, outputFolder string) string {
	if outputFolder != "" {
		return outputFolder
	}
	abs, err := filepath.Abs(inputFolder)
	if err != nil {
		return inputFolder + "_deinterlaced"
	}
	return abs + "_deinterlaced"
}
