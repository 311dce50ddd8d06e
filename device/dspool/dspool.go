// Package dspool spools every chunk as the next numbered segment file in a directory
//
// Segments are written whole and never appended to, so each accepted write is one
// record on disk; the device does not permit write coalescing. The directory is tagged
// with the stream id via a user extended attribute and numbering resumes after the
// highest existing segment, making the spool safe to reopen.
package dspool

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/xattr"
	"github.com/relex/bytesink/base"
	"github.com/relex/bytesink/base/bconfig"
	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/util"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

const xattrSpoolID = "user.bytesinkSpoolID"

// segmentNumberDigits fixes zero-padded segment numbering so names sort lexically
const segmentNumberDigits = 9

// Config defines configuration for the spool device
type Config struct {
	bconfig.Header `yaml:",inline"`
	ID             string            `yaml:"id"`           // stream identity tagged on the spool directory
	Dir            string            `yaml:"dir"`          // spool directory, subject to environment variable expansion
	Prefix         string            `yaml:"prefix"`       // segment filename prefix, default "seg-"
	Suffix         string            `yaml:"suffix"`       // segment filename suffix, default ".dat"
	MaxSpoolSize   datasize.ByteSize `yaml:"maxSpoolSize"` // cap on the total size of segments; writes over the cap fail; 0 = unbounded
	Truncate       bool              `yaml:"truncate"`     // remove existing segments at open instead of resuming after them
}

type spoolDevice struct {
	logger       logger.Logger
	dir          *os.File
	prefix       string
	suffix       string
	maxSize      int64
	nextNumber   int
	usedBytes    int64
	writtenBytes promext.RWCounter
	segments     promext.RWCounter
	usedGauge    promext.RWGauge
}

// NewDevice creates or reopens the spool directory and prepares segment numbering
func (cfg *Config) NewDevice(parentLogger logger.Logger, metricCreator promreg.MetricCreator) (base.Device, error) {
	prefix, suffix := cfg.segmentAffixes()

	dirPath := os.ExpandEnv(cfg.Dir)
	if merr := os.MkdirAll(dirPath, 0o755); merr != nil {
		return nil, fmt.Errorf("failed to create spool dir '%s': %w", dirPath, merr)
	}

	dlogger := parentLogger.WithField(defs.LabelComponent, "SpoolDevice").WithField(defs.LabelName, dirPath)

	if err := tagSpoolDir(dlogger, dirPath, cfg.ID); err != nil {
		return nil, err
	}

	dir, oerr := os.Open(dirPath)
	if oerr != nil {
		return nil, fmt.Errorf("failed to open spool dir '%s': %w", dirPath, oerr)
	}

	scan, serr := scanSegments(dlogger, dir, prefix, suffix, cfg.Truncate)
	if serr != nil {
		_ = dir.Close()
		return nil, serr
	}
	dlogger.Infof("opened: nextSegment=%d usedBytes=%d", scan.nextNumber, scan.usedBytes)

	deviceMetricCreator := metricCreator.AddOrGetPrefix("device_", []string{"device"}, []string{"spool"})
	device := &spoolDevice{
		logger:       dlogger,
		dir:          dir,
		prefix:       prefix,
		suffix:       suffix,
		maxSize:      int64(cfg.MaxSpoolSize.Bytes()),
		nextNumber:   scan.nextNumber,
		usedBytes:    scan.usedBytes,
		writtenBytes: deviceMetricCreator.AddOrGetCounter("written_bytes_total", "Numbers of bytes written to the device", nil, nil),
		segments:     deviceMetricCreator.AddOrGetCounter("written_segments_total", "Numbers of segment files created", nil, nil),
		usedGauge:    deviceMetricCreator.AddOrGetGauge("spool_used_bytes", "Total size of segments in the spool dir", nil, nil),
	}
	device.usedGauge.Set(scan.usedBytes)
	return device, nil
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	if len(cfg.ID) == 0 {
		return fmt.Errorf(".id is unspecified")
	}
	if len(cfg.Dir) == 0 {
		return fmt.Errorf(".dir is unspecified")
	}
	prefix, suffix := cfg.segmentAffixes()
	if _, err := compileSegmentMatcher(prefix, suffix); err != nil {
		return fmt.Errorf(".prefix/.suffix: %w", err)
	}
	return nil
}

func (cfg *Config) segmentAffixes() (string, string) {
	prefix := cfg.Prefix
	if len(prefix) == 0 {
		prefix = "seg-"
	}
	suffix := cfg.Suffix
	if len(suffix) == 0 {
		suffix = ".dat"
	}
	return prefix, suffix
}

// tagSpoolDir marks the directory with the stream id, refusing a directory already
// claimed by a different stream. Filesystems without user xattr support are tolerated,
// losing only the reopen safety check.
func tagSpoolDir(dlogger logger.Logger, dirPath string, id string) error {
	existing, gerr := xattr.Get(dirPath, xattrSpoolID)
	if gerr == nil && len(existing) > 0 && util.StringFromBytes(existing) != id {
		return fmt.Errorf("spool dir '%s' belongs to stream '%s', not '%s'", dirPath, existing, id)
	}
	if xerr := xattr.Set(dirPath, xattrSpoolID, util.BytesFromString(id)); xerr != nil {
		dlogger.Warnf("error labelling id on spool dir: %s", xerr.Error())
	}
	return nil
}

func (device *spoolDevice) Write(p []byte) (int, error) {
	if device.maxSize > 0 && device.usedBytes+int64(len(p)) > device.maxSize {
		return 0, fmt.Errorf("spool size cap %d exceeded: used=%d incoming=%d", device.maxSize, device.usedBytes, len(p))
	}

	name := device.currentSegmentName()
	if werr := util.WriteFileAt(device.dir, name, p, 0o644); werr != nil {
		return 0, fmt.Errorf("failed to write segment '%s': %w", name, werr)
	}
	device.nextNumber++
	device.usedBytes += int64(len(p))

	device.writtenBytes.Add(uint64(len(p)))
	device.segments.Inc()
	device.usedGauge.Set(device.usedBytes)
	return len(p), nil
}

func (device *spoolDevice) Close() error {
	device.logger.Infof("closing: segments=%d usedBytes=%d", device.segments.Get(), device.usedBytes)
	return device.dir.Close()
}

func (device *spoolDevice) currentSegmentName() string {
	return fmt.Sprintf("%s%0*d%s", device.prefix, segmentNumberDigits, device.nextNumber, device.suffix)
}
