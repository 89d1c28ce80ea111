// Package batch applies one operation to every file matched by a glob
// pattern, sequentially, and reports an aggregate summary. A failing file
// is recorded and the run moves on to the next one.
package batch
