package dmsgpack

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/device/dfile"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/stretchr/testify/assert"
	"github.com/vmihailenco/msgpack/v4"
)

func TestMsgpackDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.msgpack")
	cfg := &Config{
		Target: bconfig.DeviceConfigHolder{Value: &dfile.Config{Path: path}},
	}
	assert.NoError(t, cfg.VerifyConfig())

	device, err := cfg.NewDevice(logger.Root(), promreg.NewMetricFactory("testdmsgpack_", nil, nil))
	assert.NoError(t, err)
	// one write = one record; merging writes would collapse record boundaries
	assert.False(t, base.AllowsCoalescing(device))

	records := []string{"alpha", "beta record", "gamma!"}
	for _, record := range records {
		n, werr := device.Write([]byte(record))
		assert.NoError(t, werr)
		assert.Equal(t, len(record), n)
	}
	assert.NoError(t, device.Close())

	encoded, rerr := os.ReadFile(path)
	assert.NoError(t, rerr)
	decoder := msgpack.NewDecoder(bytes.NewReader(encoded))
	for i, record := range records {
		decoded, derr := decoder.DecodeBytes()
		assert.NoError(t, derr, i)
		assert.Equal(t, record, string(decoded), i)
	}
	_, eof := decoder.DecodeBytes()
	assert.ErrorIs(t, eof, io.EOF)
}

func TestMsgpackDeviceConfigErrors(t *testing.T) {
	assert.Error(t, (&Config{}).VerifyConfig())
}
