package sfile

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/relex/gotils/logger"
	"github.com/stretchr/testify/assert"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "a.dat"), []byte("1234567890"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "b.dat"), []byte("abc"), 0o644))

	cfg := &Config{Pattern: filepath.Join(dir, "*.dat"), ChunkSize: 4}
	assert.NoError(t, cfg.VerifyConfig())

	source, err := cfg.NewSource(logger.Root())
	assert.NoError(t, err)

	// files are read in sorted order, in chunkSize pieces with a short tail each
	collected := make([]string, 0, 4)
	for {
		chunk, rerr := source.NextChunk()
		if rerr == io.EOF {
			break
		}
		assert.NoError(t, rerr)
		collected = append(collected, string(chunk))
	}
	assert.Equal(t, []string{"1234", "5678", "90", "abc"}, collected)
	assert.NoError(t, source.Close())
	assert.NoError(t, source.Close()) // idempotent
}

func TestFileSourceDirectoryPattern(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "only.txt"), []byte("content"), 0o644))

	source, err := (&Config{Pattern: dir}).NewSource(logger.Root())
	assert.NoError(t, err)
	chunk, rerr := source.NextChunk()
	assert.NoError(t, rerr)
	assert.Equal(t, "content", string(chunk))
	_, eof := source.NextChunk()
	assert.ErrorIs(t, eof, io.EOF)
	assert.NoError(t, source.Close())
}

func TestFileSourceErrors(t *testing.T) {
	assert.Error(t, (&Config{}).VerifyConfig())

	_, err := (&Config{Pattern: filepath.Join(t.TempDir(), "absent-*.log")}).NewSource(logger.Root())
	assert.Error(t, err)
}
