// Package probe describes audio files: container, duration, the primary
// audio stream, and embedded tags.
//
// A single ffprobe JSON call per file is the main source. WAV files can
// also be read natively from their RIFF header, which keeps duration-based
// operations working when only SoX is installed. Tags are read in-process
// with dhowden/tag.
package probe
