package dfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relex/bytesink/base"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/stretchr/testify/assert"
)

func TestFileDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	cfg := &Config{Path: path}
	assert.NoError(t, cfg.VerifyConfig())

	device, err := cfg.NewDevice(logger.Root(), promreg.NewMetricFactory("testdfile_", nil, nil))
	assert.NoError(t, err)
	assert.True(t, base.AllowsCoalescing(device))

	for _, piece := range []string{"hello ", "world"} {
		n, werr := device.Write([]byte(piece))
		assert.NoError(t, werr)
		assert.Equal(t, len(piece), n)
	}
	assert.NoError(t, device.Close())

	content, rerr := os.ReadFile(path)
	assert.NoError(t, rerr)
	assert.Equal(t, "hello world", string(content))

	t.Run("append mode continues the file", func(tt *testing.T) {
		appender, aerr := (&Config{Path: path, Append: true}).NewDevice(logger.Root(),
			promreg.NewMetricFactory("testdfileappend_", nil, nil))
		assert.NoError(tt, aerr)
		_, werr := appender.Write([]byte("!"))
		assert.NoError(tt, werr)
		assert.NoError(tt, appender.Close())

		content, rerr := os.ReadFile(path)
		assert.NoError(tt, rerr)
		assert.Equal(tt, "hello world!", string(content))
	})

	t.Run("default mode truncates the file", func(tt *testing.T) {
		truncater, terr := (&Config{Path: path}).NewDevice(logger.Root(),
			promreg.NewMetricFactory("testdfiletrunc_", nil, nil))
		assert.NoError(tt, terr)
		_, werr := truncater.Write([]byte("fresh"))
		assert.NoError(tt, werr)
		assert.NoError(tt, truncater.Close())

		content, rerr := os.ReadFile(path)
		assert.NoError(tt, rerr)
		assert.Equal(tt, "fresh", string(content))
	})
}

func TestFileDeviceEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BYTESINK_TEST_OUT_DIR", dir)

	cfg := &Config{Path: "${BYTESINK_TEST_OUT_DIR}/env.log"}
	device, err := cfg.NewDevice(logger.Root(), promreg.NewMetricFactory("testdfileenv_", nil, nil))
	assert.NoError(t, err)
	_, werr := device.Write([]byte("expanded"))
	assert.NoError(t, werr)
	assert.NoError(t, device.Close())

	content, rerr := os.ReadFile(filepath.Join(dir, "env.log"))
	assert.NoError(t, rerr)
	assert.Equal(t, "expanded", string(content))
}

func TestFileDeviceConfigErrors(t *testing.T) {
	assert.Error(t, (&Config{}).VerifyConfig())

	_, err := (&Config{Path: filepath.Join(t.TempDir(), "no-such-dir", "out.log")}).NewDevice(
		logger.Root(), promreg.NewMetricFactory("testdfilebad_", nil, nil))
	assert.Error(t, err)
}
