// Package worker runs background tasks one at a time, in submission order.
//
// The elevation engine uses a single Queue for all tile disk reads so that reads never
// interleave. Every submission returns a Task handle that can be cancelled: a pending task is
// removed from the queue, a running task has its context cancelled and may still complete.
//
// Submissions are rejected with ErrRejected once the queue has been shut down or its backlog
// is full; callers are expected to degrade gracefully rather than propagate the error.
package worker
