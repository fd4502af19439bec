// Package dynamo provides the numeric primitives shared by the controller and
// the host simulation loop.
//
//   - [Batch]: row-major array of per-environment vectors
//   - [ClampWithNorm], [ClampMagnitude]: stateless force limiters
//   - [ParallelFor]: chunked fan-out over independent work items
//
// # Batching
//
// A Batch row is one environment (simulation replica) and a column is one
// spatial axis. Every operation in this package, and every controller built
// on top of it, applies row by row with no interaction between rows.
//
// # Thread Safety
//
// Batch values are plain slices and are NOT safe for concurrent mutation.
// Distinct batches may be processed from different goroutines.
package dynamo
