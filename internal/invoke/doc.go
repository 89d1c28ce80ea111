// Package invoke runs the subprocess steps of a dispatched invocation.
//
// Engine progress is parsed from the engine's own output (ffmpeg's
// "-progress pipe:1" key/value stream on stdout, SoX's "-S" status line on
// stderr) and forwarded to an [Observer] as a percentage. [Runner.Run]
// never panics or returns an error: every outcome, including a missing
// engine binary or an interrupted run, is reported in the [Result].
package invoke
