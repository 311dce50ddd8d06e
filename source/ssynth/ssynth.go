// Package ssynth generates synthetic chunks for benchmarks and load tests
package ssynth

import (
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/gotils/logger"
)

// Config defines configuration for the synthetic source
type Config struct {
	bconfig.Header `yaml:",inline"`
	Count          int               `yaml:"count"` // numbers of chunks to generate
	Size           datasize.ByteSize `yaml:"size"`  // size of each chunk
}

type synthSource struct {
	logger    logger.Logger
	count     int
	size      int
	nextIndex int
}

// NewSource creates a generator of Count chunks of Size bytes each
//
// Chunk contents cycle through 'a'..'z' by chunk index so the output is cheap to produce
// yet lets ordering mistakes show up in flushed bytes.
func (cfg *Config) NewSource(parentLogger logger.Logger) (base.ChunkSource, error) {
	slogger := parentLogger.WithField(defs.LabelComponent, "SyntheticSource")
	slogger.Infof("generating %d chunks of %d bytes", cfg.Count, cfg.Size.Bytes())
	return &synthSource{
		logger: slogger,
		count:  cfg.Count,
		size:   int(cfg.Size.Bytes()),
	}, nil
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	if cfg.Count <= 0 {
		return fmt.Errorf(".count must be positive")
	}
	if cfg.Size.Bytes() == 0 {
		return fmt.Errorf(".size must be positive")
	}
	return nil
}

func (source *synthSource) NextChunk() (base.Chunk, error) {
	if source.nextIndex >= source.count {
		return nil, io.EOF
	}
	chunk := make(base.Chunk, source.size)
	fill := byte('a' + source.nextIndex%26)
	for i := range chunk {
		chunk[i] = fill
	}
	source.nextIndex++
	return chunk, nil
}

func (source *synthSource) Close() error {
	source.logger.Infof("closed: generated=%d/%d", source.nextIndex, source.count)
	return nil
}
