package avio

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// copyFileOrRename recovers a deinterlaced temp file as the final output
// when the assembly remux itself failed: rename first (the common case,
// same filesystem), falling back to a streamed copy across filesystem
// boundaries. log carries the same input-path field assemble's own
// warning does, so both log lines for one failed movie correlate.
func copyFileOrRename(log zerolog.Logger, src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		log.Debug().Str("src", src).Str("dst", dst).Msg("recovered output via rename")
		return nil
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	n, err := io.Copy(destFile, sourceFile)
	if err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := destFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	log.Warn().Str("src", src).Str("dst", dst).Int64("bytes", n).
		Msg("recovered output via cross-filesystem copy, remux was skipped")
	return os.Remove(src)
}
