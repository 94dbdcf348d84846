// Package drives enumerates scannable filesystem roots and reports their
// space usage. Grounded on xBen-Harveyx-GoSize's windows.GetDiskFreeSpaceEx
// use for the Windows side; Unix exposes a single root.
package drives

// Drive describes one scannable root and its space usage, in bytes.
type Drive struct {
	Root  string
	Total uint64
	Free  uint64
}
