// Package device registers the list of all output device implementations
package device

import (
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/device/dfile"
	"github.com/relex/bytesink/device/dgzip"
	"github.com/relex/bytesink/device/dmsgpack"
	"github.com/relex/bytesink/device/dnull"
	"github.com/relex/bytesink/device/dspool"
	"github.com/relex/bytesink/device/dtcp"
)

func init() {
	bconfig.RegisterConfigConstructors(bconfig.DeviceConfigCreatorTable{
		"file":    func() bconfig.DeviceConfig { return &dfile.Config{} },
		"gzip":    func() bconfig.DeviceConfig { return &dgzip.Config{} },
		"msgpack": func() bconfig.DeviceConfig { return &dmsgpack.Config{} },
		"null":    func() bconfig.DeviceConfig { return &dnull.Config{} },
		"spool":   func() bconfig.DeviceConfig { return &dspool.Config{} },
		"tcp":     func() bconfig.DeviceConfig { return &dtcp.Config{} },
	})
}

// Register registers all device config types
func Register() {
	// trigger init()
}
