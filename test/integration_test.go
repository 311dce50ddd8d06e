package test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/relex/bytesink/pump"
	"github.com/relex/bytesink/run"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/stretchr/testify/assert"
)

func TestPumpFileToFileDevice(t *testing.T) {
	tmpDir := t.TempDir()
	content := makeTestPayload(256 * 1024)
	inPath := filepath.Join(tmpDir, "in.bin")
	outPath := filepath.Join(tmpDir, "out.bin")
	assert.NoError(t, os.WriteFile(inPath, []byte(content), 0o644))

	loader, _ := pumpWithConfig(t, fmt.Sprintf(`
source:
  type: files
  pattern: %s
  chunkSize: 8KB
sink:
  highWaterMark: 32KB
device:
  type: file
  path: %s
`, inPath, outPath))

	written, readErr := os.ReadFile(outPath)
	assert.NoError(t, readErr)
	assert.Equal(t, content, string(written))

	creator := loader.MetricFactory
	assert.Equal(t, uint64(len(content)),
		creator.AddOrGetPrefix("sink_", nil, nil).AddOrGetCounter("flushed_bytes_total", "", nil, nil).Get())
	assert.Equal(t, uint64(0),
		creator.AddOrGetPrefix("sink_", nil, nil).AddOrGetCounter("flush_errors_total", "", nil, nil).Get())
}

func TestPumpFileToGzipDevice(t *testing.T) {
	tmpDir := t.TempDir()
	content := makeTestPayload(128 * 1024)
	inPath := filepath.Join(tmpDir, "in.bin")
	outPath := filepath.Join(tmpDir, "out.bin.gz")
	assert.NoError(t, os.WriteFile(inPath, []byte(content), 0o644))

	pumpWithConfig(t, fmt.Sprintf(`
source:
  type: files
  pattern: %s
  chunkSize: 4KB
sink:
  highWaterMark: 16KB
device:
  type: gzip
  level: fastest
  target:
    type: file
    path: %s
`, inPath, outPath))

	compressed, readErr := os.ReadFile(outPath)
	assert.NoError(t, readErr)
	gzReader, gzErr := gzip.NewReader(bytes.NewReader(compressed))
	assert.NoError(t, gzErr)
	decompressed := &bytes.Buffer{}
	_, copyErr := decompressed.ReadFrom(gzReader)
	assert.NoError(t, copyErr)
	assert.NoError(t, gzReader.Close())
	assert.Equal(t, content, decompressed.String())
}

func TestPumpSyntheticToSpoolDevice(t *testing.T) {
	spoolDir := filepath.Join(t.TempDir(), "spool")

	loader, _ := pumpWithConfig(t, fmt.Sprintf(`
source:
  type: synthetic
  count: 40
  size: 2KB
sink:
  highWaterMark: 16KB
device:
  type: spool
  id: integration
  dir: %s
`, spoolDir))

	// the spool device is record oriented: every flushed chunk becomes one segment
	entries, dirErr := os.ReadDir(spoolDir)
	assert.NoError(t, dirErr)
	assert.Equal(t, 40, len(entries))
	totalSize := int64(0)
	for _, entry := range entries {
		info, infoErr := entry.Info()
		assert.NoError(t, infoErr)
		totalSize += info.Size()
	}
	assert.Equal(t, int64(40*2048), totalSize)

	assert.Equal(t, uint64(40),
		loader.MetricFactory.AddOrGetPrefix("sink_", nil, nil).AddOrGetCounter("flushed_chunks_total", "", nil, nil).Get())
}

func TestPumpHighVolumeBoundedPending(t *testing.T) {
	loader, pmp := pumpWithConfig(t, `
source:
  type: synthetic
  count: 100000
  size: 8B
sink:
  highWaterMark: 16KB
device:
  type: "null"
`)

	// pending bytes may exceed the mark by at most the chunk accepted at the crossing
	assert.LessOrEqual(t, pmp.Sink().MaxPendingBytes(), int64(16*1024+8))

	creator := loader.MetricFactory
	assert.Equal(t, uint64(800000),
		creator.AddOrGetPrefix("sink_", nil, nil).AddOrGetCounter("flushed_bytes_total", "", nil, nil).Get())
	assert.Equal(t, uint64(100000),
		creator.AddOrGetPrefix("pump_", nil, nil).AddOrGetCounter("read_chunks_total", "", nil, nil).Get())
}

// pumpWithConfig runs a full pump from the given config document until the source ends,
// asserting a clean run
func pumpWithConfig(t *testing.T, confYML string) (*run.Loader, *pump.Pump) {
	t.Helper()
	confPath := filepath.Join(t.TempDir(), "config.yml")
	assert.NoError(t, os.WriteFile(confPath, []byte(confYML), 0o644))

	loader, confErr := run.NewLoaderFromConfigFile(confPath, metricPrefixFor(t))
	if !assert.NoError(t, confErr) {
		t.FailNow()
	}
	pmp, launchErr := loader.LaunchPump(logger.Root(), channels.NewSignalAwaitable())
	if !assert.NoError(t, launchErr) {
		t.FailNow()
	}
	assert.True(t, pmp.Stopped().Wait(30*time.Second))
	assert.NoError(t, pmp.Err())
	return loader, pmp
}

func metricPrefixFor(t *testing.T) string {
	return strings.ReplaceAll(t.Name(), "/", "_") + "_"
}

func makeTestPayload(size int) string {
	sb := strings.Builder{}
	sb.Grow(size + 64)
	for i := 0; sb.Len() < size; i++ {
		fmt.Fprintf(&sb, "record %09d of the integration payload\n", i)
	}
	return sb.String()[:size]
}
