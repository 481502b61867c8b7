// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug
// any structured logger. It also offers a richer TaskMeshLogger with
// contextual helpers (process, run, component) and domain specific logging
// helpers for tools, tasks and process runs.
package logging
