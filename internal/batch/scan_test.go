package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScanInputs_FindsMoviesRecursively(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mov"))
	touch(t, filepath.Join(root, "sub", "b.MP4"))
	touch(t, filepath.Join(root, "sub", "notes.txt"))
	touch(t, filepath.Join(root, ".hidden", "c.mov"))

	jobs, err := ScanInputs(root, "")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	var stems []string
	for _, j := range jobs {
		stems = append(stems, filepath.Base(j.OutputPath))
	}
	assert.ElementsMatch(t, []string{"a.mov", "b.mov"}, stems)
}

func TestScanInputs_DefaultOutputIsSiblingSuffixed(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mov"))

	jobs, err := ScanInputs(root, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	absRoot, _ := filepath.Abs(root)
	assert.Equal(t, absRoot+deinterlacedSuffix, filepath.Dir(jobs[0].OutputPath))
}

func TestScanInputs_MirrorsSubdirectoryStructure(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "reel1", "clip.mov"))
	out := t.TempDir()

	jobs, err := ScanInputs(root, out)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	absOut, _ := filepath.Abs(out)
	assert.Equal(t, filepath.Join(absOut, "reel1", "clip.mov"), jobs[0].OutputPath)
}

func TestScanInputs_EmptyInputCreatesNoOutputDir(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "nonexistent-output")

	jobs, err := ScanInputs(root, out)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestScanInputs_RejectsNonDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.mov")
	touch(t, file)

	_, err := ScanInputs(file, "")
	assert.Error(t, err)
}
