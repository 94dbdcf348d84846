//go:build windows

package drives

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// All probes A:..Z: and returns every drive letter currently mounted.
func All() []string {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil
	}

	var out []string
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("%c:\\", 'A'+i))
	}
	return out
}

// SpaceFor reports total and free bytes for the volume holding path.
func SpaceFor(path string) (total, free uint64, err error) {
	var freeAvailToCaller, totalBytes, totalFree uint64
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(ptr, &freeAvailToCaller, &totalBytes, &totalFree); err != nil {
		return 0, 0, err
	}
	return totalBytes, totalFree, nil
}
