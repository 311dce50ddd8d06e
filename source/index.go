// Package source registers the list of all chunk source implementations
package source

import (
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/source/sfile"
	"github.com/relex/bytesink/source/sstdin"
	"github.com/relex/bytesink/source/ssynth"
)

func init() {
	bconfig.RegisterConfigConstructors(bconfig.SourceConfigCreatorTable{
		"files":     func() bconfig.SourceConfig { return &sfile.Config{} },
		"stdin":     func() bconfig.SourceConfig { return &sstdin.Config{} },
		"synthetic": func() bconfig.SourceConfig { return &ssynth.Config{} },
	})
}

// Register registers all source config types
func Register() {
	// trigger init()
}
