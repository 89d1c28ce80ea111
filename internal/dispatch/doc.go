// Package dispatch maps an operation keyword and its positional parameters
// to the engine invocation that performs it.
//
// Every operation is a row in a single table ([Operations]) that declares
// its arity, validation, output naming and one recipe per engine. The
// [Dispatcher] validates a [Request] against that row, picks the engine
// (falling back to the other engine when the selected one has no recipe and
// the choice was not forced), probes the inputs when it can, and returns an
// [Invocation]: the list of subprocess steps to run. Nothing here starts a
// process.
package dispatch
