package dspool

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gobwas/glob"
	"github.com/relex/bytesink/defs"
	"github.com/relex/bytesink/util"
	"github.com/relex/gotils/logger"
	"golang.org/x/exp/slices"
)

type segmentScan struct {
	nextNumber int
	usedBytes  int64
}

func compileSegmentMatcher(prefix string, suffix string) (glob.Glob, error) {
	return glob.Compile(glob.QuoteMeta(prefix) + "*" + glob.QuoteMeta(suffix))
}

// scanSegments finds existing segment files to resume numbering after the highest one,
// or unlinks them all when truncating
func scanSegments(dlogger logger.Logger, dir *os.File, prefix string, suffix string, truncate bool) (segmentScan, error) {
	scan := segmentScan{nextNumber: 1}

	matcher, merr := compileSegmentMatcher(prefix, suffix)
	if merr != nil {
		return scan, fmt.Errorf("bad segment name pattern: %w", merr)
	}

	entryNames, rerr := dir.Readdirnames(0)
	if rerr != nil {
		return scan, fmt.Errorf("failed to scan spool dir: %w", rerr)
	}

	numbers := make([]int, 0, len(entryNames))
	for _, name := range entryNames {
		if !matcher.Match(name) {
			continue
		}
		number, perr := strconv.Atoi(name[len(prefix) : len(name)-len(suffix)])
		if perr != nil {
			dlogger.Warnf("ignore segment with unparsable number: '%s'", name)
			continue
		}

		if truncate {
			if uerr := util.UnlinkFileAt(dir, name); uerr != nil {
				return scan, fmt.Errorf("failed to unlink old segment '%s': %w", name, uerr)
			}
			continue
		}

		stat, serr := util.StatFileAt(dir, name)
		if serr != nil {
			return scan, fmt.Errorf("failed to stat segment '%s': %w", name, serr)
		}
		numbers = append(numbers, number)
		scan.usedBytes += stat.Size
	}

	if len(numbers) > defs.SpoolMaxSegmentsPerScan {
		return scan, fmt.Errorf("spool dir holds %d segments, over the limit %d", len(numbers), defs.SpoolMaxSegmentsPerScan)
	}
	if len(numbers) > 0 {
		slices.Sort(numbers)
		scan.nextNumber = numbers[len(numbers)-1] + 1
		dlogger.Infof("found %d existing segments, numbers %d..%d", len(numbers), numbers[0], numbers[len(numbers)-1])
	}
	return scan, nil
}
