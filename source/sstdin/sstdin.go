// Package sstdin produces chunks by reading the standard input in fixed-size pieces
package sstdin

import (
	"io"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/logger"
)

// Config defines configuration for the stdin source
type Config struct {
	bconfig.Header `yaml:",inline"`
	ChunkSize      datasize.ByteSize `yaml:"chunkSize"` // read size per chunk; 0 = defs.DefaultSourceChunkBytes
}

// readerSource chunks an arbitrary reader; stdin itself stays open as the process owns it
type readerSource struct {
	logger    logger.Logger
	reader    io.Reader
	chunkSize int
	readBytes int64
}

// NewSource prepares chunked reading of os.Stdin
func (cfg *Config) NewSource(parentLogger logger.Logger) (base.ChunkSource, error) {
	chunkSize := int(cfg.ChunkSize.Bytes())
	if chunkSize == 0 {
		chunkSize = defs.DefaultSourceChunkBytes
	}
	return newReaderSource(parentLogger, os.Stdin, chunkSize), nil
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	return nil
}

func newReaderSource(parentLogger logger.Logger, reader io.Reader, chunkSize int) *readerSource {
	slogger := parentLogger.WithField(defs.LabelComponent, "StdinSource")
	slogger.Infof("reading chunks of %d bytes", chunkSize)
	return &readerSource{
		logger:    slogger,
		reader:    reader,
		chunkSize: chunkSize,
	}
}

func (source *readerSource) NextChunk() (base.Chunk, error) {
	for {
		chunk := make(base.Chunk, source.chunkSize)
		n, rerr := source.reader.Read(chunk)
		if n > 0 {
			source.readBytes += int64(n)
			return chunk[:n], nil
		}
		if rerr == nil {
			continue
		}
		return nil, rerr
	}
}

func (source *readerSource) Close() error {
	source.logger.Infof("closed: readBytes=%d", source.readBytes)
	return nil
}
