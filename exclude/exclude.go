// Package exclude holds the static, case-insensitive exclusion policy that
// the walker consults before descending into a directory or accepting a
// file. The policy is authoritative over correctness: it is the only thing
// standing between a scan and touching system-critical paths.
package exclude

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Set is an immutable, case-insensitive exclusion policy: directory names,
// exact file names, and file extensions. All three are matched against a
// single path component, never against the full path — a user folder that
// happens to contain an excluded word as a substring is not affected.
type Set struct {
	dirNames   map[string]struct{}
	fileNames  map[string]struct{}
	extensions map[string]struct{}
}

// Default is the built-in policy. It is safe for concurrent use; it is
// never mutated after package init.
var Default = New(defaultDirNames, defaultFileNames, defaultExtensions)

// New builds a Set from explicit slices, lower-casing every entry. Exported
// so callers can extend the default policy (e.g. a host-specific deny list)
// without forking the package.
func New(dirNames, fileNames, extensions []string) Set {
	return Set{
		dirNames:   toSet(dirNames),
		fileNames:  toSet(fileNames),
		extensions: toSet(extensions),
	}
}

func toSet(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[strings.ToLower(it)] = struct{}{}
	}
	return m
}

// IsDirNameSafe reports whether a single directory path component (not a
// full path) may be descended into.
func (s Set) IsDirNameSafe(name string) bool {
	_, excluded := s.dirNames[strings.ToLower(name)]
	return !excluded
}

// IsFileSafe reports whether a file's last path component and extension
// both clear the policy.
func (s Set) IsFileSafe(name, extension string) bool {
	if _, excluded := s.fileNames[strings.ToLower(name)]; excluded {
		return false
	}
	if _, excluded := s.extensions[strings.ToLower(extension)]; excluded {
		return false
	}
	return true
}

// Describe returns a deterministic, sorted human-readable listing of the
// policy.
func (s Set) Describe() (dirs, files, exts []string) {
	dirs = keysOf(s.dirNames)
	files = keysOf(s.fileNames)
	exts = keysOf(s.extensions)
	return
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// defaultDirNames mirrors spec.md §4.1 plus the POSIX system directories
// carried from original_source/config.py so the policy is sane on
// non-Windows hosts too (the original GUI only ever shipped for Windows).
var defaultDirNames = []string{
	// Windows system roots
	"windows", "system32", "syswow64", "winnt",
	// Program install roots
	"program files", "program files (x86)", "programdata",
	// Per-user application data
	"appdata",
	// Recovery and metadata
	"$recycle.bin", "system volume information", "recovery",
	"boot", "windows.old", "perflogs", "$windows.~bt", "$windows.~ws",
	// Source-control working directories
	".git", ".svn", ".hg", "node_modules", "__pycache__",
	// POSIX system directories
	"system", "library", "bin", "sbin", "usr", "dev", "proc", "sys",
	"var", "tmp", "etc", "opt", "root",
}

// defaultFileNames mirrors spec.md §4.1.
var defaultFileNames = []string{
	"pagefile.sys", "hiberfil.sys", "swapfile.sys",
	"$mft", "$mftmirr", "$logfile", "$volume", "$bitmap", "$boot",
	"$badclus", "$secure", "$upcase", "$extend", "$attrdef",
	"desktop.ini", "thumbs.db", "iconcache.db",
}

// defaultExtensions mirrors spec.md §4.1.
var defaultExtensions = []string{
	".sys", ".drv",
}
