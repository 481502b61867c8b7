// Package task implements the unit of work executed by a process: a base
// operation whose result is threaded through an ordered pipeline of tools.
//
// Tool lookup is resolved eagerly at construction into a capability map, so
// referencing an unregistered tool fails at wiring time rather than at
// invocation time. Usage limits are task-scoped (each task carries its own
// limit table) while the usage counter itself lives on the shared tool.
//
// The limit policy is strict check-then-increment: a call that finds the
// counter at or past the cap fails without invoking the tool, leaving the
// counter untouched.
//
// Tasks never swallow errors. A failing base operation or tool invocation
// propagates out of Execute; classifying and recording failures is the
// process's job.
package task
