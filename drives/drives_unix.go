//go:build !windows

package drives

import "syscall"

// All returns the single POSIX root, "/" — there is no drive-letter concept
// to enumerate.
func All() []string {
	return []string{"/"}
}

// SpaceFor reports total and free bytes for the filesystem holding path.
func SpaceFor(path string) (total, free uint64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total = uint64(stat.Blocks) * uint64(stat.Bsize)
	free = uint64(stat.Bavail) * uint64(stat.Bsize)
	return total, free, nil
}
