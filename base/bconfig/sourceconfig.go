package bconfig

import (
	"github.com/relex/bytesink/base"
	"github.com/relex/gotils/logger"
)

// SourceConfig provides an interface for the configuration of chunk sources
//
// All the implementations should support YAML unmarshalling with a leading "type" property
type SourceConfig interface {
	BaseConfig

	// NewSource opens a source ready to produce chunks
	NewSource(parentLogger logger.Logger) (base.ChunkSource, error)

	// VerifyConfig checks the configuration at loading stage, before anything is opened
	VerifyConfig() error
}

// SourceConfigHolder holds SourceConfig
type SourceConfigHolder = ConfigHolder[SourceConfig]

// SourceConfigCreatorTable defines the table of constructors for SourceConfig implementations
type SourceConfigCreatorTable = ConfigCreatorTable[SourceConfig]
