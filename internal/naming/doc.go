// Package naming derives output paths for processed files.
//
// Single-file commands write a sibling of the input with a semantic suffix
// (track.mp3 → track_mono.mp3). Batch runs mirror input base names into an
// output directory and use [CollisionResolver] to keep same-named inputs
// from overwriting each other or a file the batch has not read yet.
package naming
