// Package manager owns the drone client session on behalf of the relay:
// it orders client startup against command arrival, queues commands issued
// before the session starts, forwards vehicle events to companions and runs
// the idle watchdog. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, the Run event loop.
//   - inbox.go: the loop's unbounded, non-blocking work queue.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: SessionState, Command variants, Action, Snapshot.
//   - errors.go: sentinel errors and helpers (IsUnknownAction).
//   - dispatch.go: action handling, pending queue, session callbacks.
//   - listener.go: adapters turning client callbacks into loop work.
//   - watchdog.go: the idle-eviction timer.
//   - status_report.go: Snapshot/Status reporting helpers.
//   - metrics.go: Prometheus collectors.
//
// Concurrency: every state change happens on the goroutine running Run.
// Public entry points (Submit, Replace, client callbacks) post closures to
// the loop inbox; only Snapshot/Status read shared state, through a copy
// refreshed by the loop after each step.
package manager
