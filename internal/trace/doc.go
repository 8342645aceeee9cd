// Package trace provides the tracing subsystem of the ebbc lowering tool.
//
// Tracing records where time goes while a MIR program is lowered and keeps a
// short history of events that can be dumped when lowering aborts on an
// internal error.
//
// # Usage
//
//	ebbc lower --trace=- --trace-level=detail prog.json
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes each event immediately (file or stderr)
//   - RingTracer: keeps the last N events in memory for failure dumps
//   - MultiTracer: fans events out to several tracers
//
// # Levels and scopes
//
// A level selects which scopes are emitted:
//
//   - LevelPhase: driver and pass boundaries (decode, lower, emit)
//   - LevelDetail: one span per lowered function
//   - LevelDebug: per-block events inside a function
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFunction, "fun:main", parentID)
//	defer span.End("")
package trace
