// Package ndsweep provides a declarative N-dimensional sweep engine for
// instrument characterization.
//
// A sweep separates what an experiment varies, measures and derives from
// the control flow that executes it. You declare the experiment once,
// then gather it; the engine turns the declaration into the usual nested
// "set something, read something" loops and collects everything into a
// single data grid.
//
// # Core Concepts
//
//  1. Sweep
//  2. CmdCtrlSweep
//  3. Grid
//  4. Reporter
//  5. Archive
//
// # Sweep
//
// A Sweep holds ordered declarations of four entry kinds, each under a
// unique key:
//
//   - Actuations set a value on hardware. Each actuation contributes one
//     grid axis, shaped by its domain. Declaration order is nesting
//     order: the first actuation added is the outermost, slowest-varying
//     axis, so put expensive actuations (laser tuning, temperature)
//     before cheap ones (current source).
//   - Measurements probe one value per grid point, in declaration order.
//   - Parsers derive values from everything recorded at a point,
//     including earlier parsers, in declaration order.
//   - Static data broadcasts context values across the grid for parsers
//     to read.
//
// Gather walks the cartesian product of the actuation domains in
// row-major order, invoking each actuation only when its axis advances
// (or at every point with AddActuationEvery), then every measurement,
// then every parser. Results land in a Grid addressable both per key
// (a whole array) and per point (all keys at one multi-index).
//
// A callable error aborts the gather immediately: no retries and no
// attempt to park hardware in a safe state, since safe-state logic
// belongs to the instrument layer. The partial grid stays inspectable.
//
// # CmdCtrlSweep
//
// A CmdCtrlSweep inverts the free sweep: a controller maps desired
// command vectors to actuation, and the measured vectors are compared
// back against the commands. The whole command grid is materialized
// before the first evaluate call, because in two or more dimensions the
// controller is generally non-separable. ControlError and Score reduce
// the output to tracking-error characterizations.
//
// # Persistence
//
// Two independent strategies:
//
//   - Data-only (Save / Load / FromFile): the grid's contents as
//     human-inspectable JSON. Round-trips losslessly; keeps no
//     declaration.
//   - Whole-object (SaveObject / LoadObject): the grid plus the durable
//     declaration. Callables are excluded, since they usually close over
//     live instrument sessions; the save marks every key that must be
//     re-bound (BindActuation and friends) before re-gathering.
//     Inspection never needs re-binding.
//
// An Archive additionally keeps named grid snapshots and a run log in
// SQLite.
//
// # Progress
//
// Reporters receive one Update per completed point and are strictly
// fire-and-forget: a reporter that fails or panics is logged and
// ignored, never aborting a sweep. Package progress ships an HTML
// status-page writer with percent-complete and ETA, optionally served
// over HTTP for watching a long sweep from a browser.
//
// # Concurrency
//
// Execution is single-threaded and synchronous: physical
// instruments are manipulated strictly sequentially, and a hung
// instrument call blocks the sweep. Cancellation goes through the
// context passed to Gather and is checked between points.
package ndsweep
