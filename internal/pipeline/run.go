// Package pipeline sequences the decode, lower and emit stages of ebbc.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"ebbc/internal/cache"
	"ebbc/internal/config"
	"ebbc/internal/lir"
	"ebbc/internal/lower"
	"ebbc/internal/mir"
	"ebbc/internal/observ"
	"ebbc/internal/trace"
)

// Request configures one Run.
type Request struct {
	// InputPath names the MIR file; "-" reads Input instead.
	InputPath string
	Input     io.Reader
	// InputFormat overrides the format derived from InputPath.
	InputFormat mir.Format
	// Output receives the LIR in Config.Output.Format; nil skips the emit stage.
	Output   io.Writer
	Config   config.Config
	Progress ProgressSink
	// Cache is consulted before lowering when non-nil.
	Cache *cache.DiskCache
}

// Result holds the artefacts and timings of a Run.
type Result struct {
	MIR      *mir.Program // nil on a cache hit
	LIR      *lir.Program
	CacheHit bool
	Timings  Timings
	Report   observ.Report
}

// Run reads, lowers and emits one program.
func Run(ctx context.Context, req *Request) (result Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, errors.New("missing pipeline request")
	}
	if err = req.Config.Validate(); err != nil {
		return result, err
	}

	timer := observ.NewTimer()
	defer func() { result.Report = timer.Report() }()

	// decode
	data, format, err := readInput(req)
	if err != nil {
		emitStage(req.Progress, StageDecode, StatusError, err, 0)
		return result, err
	}
	key := cache.KeyFor(data, req.Config.Lower.Target)
	if prog, ok, cacheErr := req.Cache.Get(key, req.Config.Lower.Target); cacheErr == nil && ok {
		result.LIR = prog
		result.CacheHit = true
		emitStage(req.Progress, StageLower, StatusCached, nil, 0)
	} else {
		idx := timer.Begin(string(StageDecode))
		prog, err := runDecode(ctx, data, format)
		dur := timer.End(idx, "")
		result.Timings.Set(StageDecode, dur)
		if err != nil {
			emitStage(req.Progress, StageDecode, StatusError, err, dur)
			return result, err
		}
		result.MIR = prog
		emitStage(req.Progress, StageDecode, StatusDone, nil, dur)

		// lower
		idx = timer.Begin(string(StageLower))
		pass := lower.Pass{Progress: funcProgress(req.Progress)}
		out, err := pass.Trans(ctx, prog, req.Config)
		dur = timer.End(idx, strconv.Itoa(len(prog.Funcs))+" funcs")
		result.Timings.Set(StageLower, dur)
		if err != nil {
			emitStage(req.Progress, StageLower, StatusError, err, dur)
			return result, err
		}
		result.LIR = out
		emitStage(req.Progress, StageLower, StatusDone, nil, dur)

		if req.Cache != nil {
			if err := req.Cache.Put(key, req.Config.Lower.Target, out); err != nil {
				trace.Point(trace.FromContext(ctx), trace.ScopePass, "cache.put", trace.CurrentSpan(ctx),
					map[string]string{"error": err.Error()})
			}
		}
	}

	// emit
	if req.Output == nil {
		return result, nil
	}
	idx := timer.Begin(string(StageEmit))
	err = runEmit(ctx, req.Output, result.LIR, req.Config.Output.Format)
	dur := timer.End(idx, req.Config.Output.Format)
	result.Timings.Set(StageEmit, dur)
	if err != nil {
		emitStage(req.Progress, StageEmit, StatusError, err, dur)
		return result, err
	}
	emitStage(req.Progress, StageEmit, StatusDone, nil, dur)
	return result, nil
}

func readInput(req *Request) ([]byte, mir.Format, error) {
	format := req.InputFormat
	if format == "" {
		if req.InputPath == "" || req.InputPath == "-" {
			format = mir.FormatJSON
		} else {
			f, err := mir.FormatFromPath(req.InputPath)
			if err != nil {
				return nil, "", err
			}
			format = f
		}
	}

	if req.InputPath == "" || req.InputPath == "-" {
		if req.Input == nil {
			return nil, "", errors.New("no input")
		}
		data, err := io.ReadAll(req.Input)
		if err != nil {
			return nil, "", fmt.Errorf("read input: %w", err)
		}
		return data, format, nil
	}
	data, err := os.ReadFile(req.InputPath)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}
	return data, format, nil
}

func runDecode(ctx context.Context, data []byte, format mir.Format) (*mir.Program, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "decode", trace.CurrentSpan(ctx))
	prog, err := mir.Decode(bytes.NewReader(data), format)
	if err != nil {
		span.End("error")
		return nil, err
	}
	span.WithExtra("funcs", strconv.Itoa(len(prog.Funcs))).End("ok")
	return prog, nil
}

func runEmit(ctx context.Context, w io.Writer, prog *lir.Program, format string) error {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "emit", trace.CurrentSpan(ctx))
	var err error
	switch format {
	case config.FormatMsgpack:
		err = lir.Encode(w, prog)
	default:
		err = lir.Dump(w, prog)
	}
	if err != nil {
		span.End("error")
		return fmt.Errorf("emit: %w", err)
	}
	span.End(format)
	return nil
}

func emitStage(sink ProgressSink, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed, Index: -1})
}

// funcProgress adapts per-function lowering events to sink.
func funcProgress(sink ProgressSink) func(lower.FuncEvent) {
	if sink == nil {
		return nil
	}
	return func(ev lower.FuncEvent) {
		status := StatusWorking
		switch ev.State {
		case lower.FuncQueued:
			status = StatusQueued
		case lower.FuncDone:
			status = StatusDone
		case lower.FuncFailed:
			status = StatusError
		}
		sink.OnEvent(Event{
			Func:   ev.Name.String(),
			Index:  ev.Index,
			Stage:  StageLower,
			Status: status,
			Err:    ev.Err,
		})
	}
}
