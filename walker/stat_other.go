//go:build !linux && !darwin && !windows

package walker

import (
	"io/fs"
	"time"
)

// changeTime falls back to ModTime on platforms without a dedicated
// implementation above.
func changeTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
