// Package history contains the run/conversation history store contract and
// concrete backends. The orchestration core never depends on history for
// control flow; it is a side log the agent writes run snapshots to.
//
// The in-memory store suits tests and demos; the Redis store targets
// deployments that already run Redis. A MongoDB backend lives in the mongo
// subpackage to keep the driver dependency isolated.
package history
