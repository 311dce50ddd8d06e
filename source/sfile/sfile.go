// Package sfile produces chunks by reading local files in fixed-size pieces
package sfile

import (
	"fmt"
	"io"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/util"
	"github.com/relex/gotils/logger"
)

// Config defines configuration for the files source
type Config struct {
	bconfig.Header `yaml:",inline"`
	Pattern        string            `yaml:"pattern"`   // file path, wildcard pattern or directory, subject to environment variable expansion
	ChunkSize      datasize.ByteSize `yaml:"chunkSize"` // read size per chunk; 0 = defs.DefaultSourceChunkBytes
}

type fileSource struct {
	logger    logger.Logger
	paths     []string
	chunkSize int
	nextIndex int
	current   *os.File
	readBytes int64
	closeOnce util.RunOnce
}

// NewSource resolves the pattern to a sorted file list and prepares sequential reading
func (cfg *Config) NewSource(parentLogger logger.Logger) (base.ChunkSource, error) {
	pattern := os.ExpandEnv(cfg.Pattern)
	paths, lerr := util.ListFiles(pattern)
	if lerr != nil {
		return nil, fmt.Errorf("failed to list files for '%s': %w", pattern, lerr)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match '%s'", pattern)
	}

	chunkSize := int(cfg.ChunkSize.Bytes())
	if chunkSize == 0 {
		chunkSize = defs.DefaultSourceChunkBytes
	}

	slogger := parentLogger.WithField(defs.LabelComponent, "FileSource")
	slogger.Infof("matched %d files for '%s', chunkSize=%d", len(paths), pattern, chunkSize)

	source := &fileSource{
		logger:    slogger,
		paths:     paths,
		chunkSize: chunkSize,
	}
	source.closeOnce = util.NewRunOnce(source.closeCurrent)
	return source, nil
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	if len(cfg.Pattern) == 0 {
		return fmt.Errorf(".pattern is unspecified")
	}
	return nil
}

// NextChunk reads the next piece of up to chunkSize bytes, moving through the file list
// in order. Every chunk is freshly allocated as the sink takes ownership.
func (source *fileSource) NextChunk() (base.Chunk, error) {
	for {
		if source.current == nil {
			if source.nextIndex >= len(source.paths) {
				return nil, io.EOF
			}
			path := source.paths[source.nextIndex]
			source.nextIndex++
			file, oerr := os.Open(path)
			if oerr != nil {
				return nil, oerr
			}
			source.logger.Debugf("reading file: %s", path)
			source.current = file
		}

		chunk := make(base.Chunk, source.chunkSize)
		n, rerr := source.current.Read(chunk)
		if n > 0 {
			source.readBytes += int64(n)
			return chunk[:n], nil
		}
		switch {
		case rerr == nil:
			continue
		case rerr == io.EOF:
			if cerr := source.current.Close(); cerr != nil {
				source.logger.Warnf("error closing file: %s", cerr.Error())
			}
			source.current = nil
		default:
			return nil, rerr
		}
	}
}

func (source *fileSource) Close() error {
	source.closeOnce()
	return nil
}

func (source *fileSource) closeCurrent() {
	if source.current != nil {
		if cerr := source.current.Close(); cerr != nil {
			source.logger.Warnf("error closing file: %s", cerr.Error())
		}
		source.current = nil
	}
	source.logger.Infof("closed: files=%d/%d readBytes=%d", source.nextIndex, len(source.paths), source.readBytes)
}
