package naming

import (
	"path/filepath"
	"strings"
)

// Derive builds the default output path for input: a sibling file named
// <stem>_<suffix><ext>. A non-empty newExt ("mp3" or ".mp3") replaces the
// input's extension; it is never appended.
//
//	Derive("/music/track.mp3", "mono", "")    → /music/track_mono.mp3
//	Derive("/music/track.mp3", "converted", "flac") → /music/track_converted.flac
func Derive(input, suffix, newExt string) string {
	dir := filepath.Dir(input)
	return filepath.Join(dir, fileName(input, suffix, newExt))
}

// DeriveIn is Derive with the result placed in dir instead of next to input.
func DeriveIn(dir, input, suffix, newExt string) string {
	return filepath.Join(dir, fileName(input, suffix, newExt))
}

// InDir places input's base name in dir, swapping the extension when newExt
// is set. Batch runs use it to mirror input names in the output directory.
func InDir(dir, input, newExt string) string {
	return filepath.Join(dir, fileName(input, "", newExt))
}

// NormalizeExt returns ext lowercased with exactly one leading dot, or ""
// for an empty input.
func NormalizeExt(ext string) string {
	ext = strings.TrimLeft(strings.TrimSpace(ext), ".")
	if ext == "" {
		return ""
	}
	return "." + strings.ToLower(ext)
}

func fileName(input, suffix, newExt string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if e := NormalizeExt(newExt); e != "" {
		ext = e
	}
	if suffix != "" {
		stem += "_" + suffix
	}
	return stem + ext
}
