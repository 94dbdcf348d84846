// Package typefilter groups files by category (documents, images, videos,
// audio, archives, executables, temporary files) via extension matching,
// grounded on original_source/core/file_type_filter.py's FILE_TYPE_GROUPS.
package typefilter

import (
	"context"

	"golang.org/x/exp/slices"

	"storagescan/exclude"
	"storagescan/models"
	"storagescan/progress"
	"storagescan/walker"
)

// Category is a named, ordered group of file extensions.
type Category struct {
	Key        string
	Label      string
	Extensions []string
	// Advanced marks categories whose members are often still in active use
	// (logs, backups, caches) — callers should surface an extra confirmation
	// step before acting on matches in an Advanced category.
	Advanced bool
}

// Categories lists every known category, in match-priority order. A file
// belongs to the first category whose Extensions set contains its
// extension — first-match-wins, same as the original's dict iteration
// (Python 3.7+ dicts preserve insertion order).
var Categories = []Category{
	{
		Key:        "documents",
		Label:      "Documents",
		Extensions: []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".rtf", ".odt", ".ods"},
	},
	{
		Key:        "images",
		Label:      "Images",
		Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".heic", ".svg", ".ico", ".tiff"},
	},
	{
		Key:        "videos",
		Label:      "Videos",
		Extensions: []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v", ".mpg", ".mpeg"},
	},
	{
		Key:        "audio",
		Label:      "Audio",
		Extensions: []string{".mp3", ".wav", ".flac", ".m4a", ".aac", ".ogg", ".wma", ".opus"},
	},
	{
		Key:        "archives",
		Label:      "Archives",
		Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".iso"},
	},
	{
		Key:        "executables",
		Label:      "Executables & installers",
		Extensions: []string{".exe", ".msi", ".apk", ".dmg", ".deb", ".rpm"},
	},
	{
		Key:        "temporary",
		Label:      "Temporary files",
		Extensions: []string{".tmp", ".temp", ".log", ".bak", ".cache", ".old", "~"},
		Advanced:   true,
	},
}

var categoryByKey = func() map[string]Category {
	m := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		m[c.Key] = c
	}
	return m
}()

// ByKey looks up a category by its key.
func ByKey(key string) (Category, bool) {
	c, ok := categoryByKey[key]
	return c, ok
}

// Options configures a Find run.
type Options struct {
	Roots  []string
	Keys   []string // category keys to match; an unknown key is ignored
	Policy *exclude.Set
	OnEnum progress.Enumerator
}

// Find walks every root and returns every file whose extension falls in any
// of the selected categories. Each returned FileInfo has GroupLabel set to
// the key of the category it matched.
func Find(ctx context.Context, opts Options) ([]models.FileInfo, error) {
	targetExt := make(map[string]string) // extension -> category key
	for _, key := range opts.Keys {
		cat, ok := ByKey(key)
		if !ok {
			continue
		}
		for _, ext := range cat.Extensions {
			if _, exists := targetExt[ext]; !exists {
				targetExt[ext] = cat.Key
			}
		}
	}
	if len(targetExt) == 0 {
		return nil, nil
	}

	var matches []models.FileInfo
	for _, root := range opts.Roots {
		err := walker.Walk(ctx, root, walker.Options{
			Policy:   opts.Policy,
			Progress: opts.OnEnum,
		}, func(fi models.FileInfo) bool {
			if key, ok := targetExt[fi.Extension]; ok {
				fi.GroupLabel = key
				matches = append(matches, fi)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return matches, nil
}

// CategoryForExtension returns the key of the first category containing
// ext, or "" if none matches.
func CategoryForExtension(ext string) string {
	for _, c := range Categories {
		if slices.Contains(c.Extensions, ext) {
			return c.Key
		}
	}
	return ""
}
