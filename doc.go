// Package xxlsort implements an external-memory sort of variable-length
// records keyed by a fixed 64-byte binary key, for datasets that may
// vastly exceed available RAM.
//
// The pipeline has two phases. The run-former (RunFormer) consumes the
// input once, filling a bounded memory arena with records while
// charging an index of sort elements (held in a separate slice) against
// the same budget, sorting each fill in
// place, and writing either a single pass directly to the destination
// or a sequence of sorted temporary runs. The merger (Merger) then
// repeatedly k-way merges bounded batches of those runs by a min-heap
// until one run remains, which becomes the final output.
//
// Orchestrator ties the two phases together, owning the process-wide
// memory arena and the source/destination file identities for one
// run. Callers outside this package normally just construct an
// Orchestrator and call Run; the rest of the exported surface exists
// for testing and for the sidecar commands under cmd/.
package xxlsort
