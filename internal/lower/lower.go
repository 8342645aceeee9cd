// Package lower translates MIR functions into LIR.
//
// Each function is lowered in two phases. The first binds every parameter
// and defined value to a virtual register (BuildSymbolTable) and records the
// parameter registers of every block (BuildTargetTable). The second walks the
// blocks in order and selects concrete, machine-typed instructions for each
// operation. Functions share no state, so a program is lowered in parallel.
//
// A malformed MIR program is a bug in its producer. The engine stops at the
// first violation and reports it as an *InternalError.
package lower

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"ebbc/internal/layout"
	"ebbc/internal/lir"
	"ebbc/internal/mir"
	"ebbc/internal/trace"
)

// FuncState is the progress of one function within Program.
type FuncState uint8

const (
	FuncQueued FuncState = iota
	FuncWorking
	FuncDone
	FuncFailed
)

func (s FuncState) String() string {
	switch s {
	case FuncQueued:
		return "queued"
	case FuncWorking:
		return "working"
	case FuncDone:
		return "done"
	case FuncFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FuncEvent reports a state change of the function at Index.
type FuncEvent struct {
	Index int
	Name  mir.Symbol
	State FuncState
	Err   error
}

// Lowerer lowers MIR functions for one target.
type Lowerer struct {
	Layout *layout.Engine
	// Jobs bounds the number of functions lowered at once; <= 0 means GOMAXPROCS.
	Jobs int
	// Progress, when set, is called from worker goroutines and must be safe
	// for concurrent use.
	Progress func(FuncEvent)
}

// New creates a Lowerer laying out heap objects for target.
func New(target layout.Target) *Lowerer {
	return &Lowerer{Layout: layout.New(target)}
}

// Program lowers every function of p. The output keeps the input order.
func (lw *Lowerer) Program(ctx context.Context, p *mir.Program) (*lir.Program, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "lower", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	out := &lir.Program{Funcs: make([]lir.Function, len(p.Funcs))}
	for i := range p.Funcs {
		lw.notify(FuncEvent{Index: i, Name: p.Funcs[i].Name, State: FuncQueued})
	}

	jobs := lw.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(p.Funcs))))

	for i := range p.Funcs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			f := &p.Funcs[i]
			lw.notify(FuncEvent{Index: i, Name: f.Name, State: FuncWorking})
			fn, err := lw.Function(gctx, f)
			if err != nil {
				lw.notify(FuncEvent{Index: i, Name: f.Name, State: FuncFailed, Err: err})
				return fmt.Errorf("lower %s: %w", f.Name, err)
			}
			// indices are unique per goroutine
			out.Funcs[i] = fn
			lw.notify(FuncEvent{Index: i, Name: f.Name, State: FuncDone})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.End("error")
		return nil, err
	}
	span.WithExtra("funcs", strconv.Itoa(len(out.Funcs))).End("ok")
	return out, nil
}

func (lw *Lowerer) notify(ev FuncEvent) {
	if lw.Progress != nil {
		lw.Progress(ev)
	}
}

// Function lowers a single function.
func (lw *Lowerer) Function(ctx context.Context, f *mir.Function) (lir.Function, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFunction, "fun:"+f.Name.String(), trace.CurrentSpan(ctx))

	fn, err := lw.lowerFunc(tracer, span.ID(), f)
	if err != nil {
		span.End("error")
		return lir.Function{}, err
	}
	span.WithExtra("nparams", strconv.FormatUint(uint64(fn.NParams), 10)).
		WithExtra("regs", strconv.Itoa(len(fn.Regs))).
		WithExtra("blocks", strconv.Itoa(len(fn.Body))).
		End("ok")
	return fn, nil
}

func (lw *Lowerer) lowerFunc(tracer trace.Tracer, parent uint64, f *mir.Function) (fn lir.Function, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			err = ie
		}
		var ie *InternalError
		if errors.As(err, &ie) && ie.Func.Name == "" {
			ie.Func = f.Name
		}
	}()

	entry := f.Entry()
	if entry == nil {
		return lir.Function{}, &InternalError{Kind: ErrNoEntry, Func: f.Name}
	}
	nparams, convErr := safecast.Conv[uint32](len(entry.Params))
	if convErr != nil {
		panic(fmt.Errorf("lower: parameter count overflow: %w", convErr))
	}

	alloc := NewAllocator()
	syms := BuildSymbolTable(f.Body, alloc)
	targets, err := BuildTargetTable(f.Body, syms)
	if err != nil {
		return lir.Function{}, err
	}

	fl := &funcLowerer{
		fn:      f,
		layout:  lw.Layout,
		alloc:   alloc,
		syms:    syms,
		targets: targets,
	}
	blocks := make([]lir.Block, 0, len(f.Body))
	debug := tracer.Enabled() && tracer.Level().ShouldEmit(trace.ScopeBlock)
	for i := range f.Body {
		b := fl.lowerBlock(&f.Body[i])
		if debug {
			trace.Point(tracer, trace.ScopeBlock, "block:"+f.Body[i].Name.String(), parent,
				map[string]string{"instrs": strconv.Itoa(len(b.Body))})
		}
		blocks = append(blocks, b)
	}

	return lir.Function{
		Name:    f.Name,
		NParams: nparams,
		Regs:    alloc.Types(),
		RetTy:   MapType(f.BodyTy),
		Body:    blocks,
	}, nil
}

// funcLowerer is the per-function state of the second phase.
type funcLowerer struct {
	fn      *mir.Function
	layout  *layout.Engine
	alloc   *Allocator
	syms    *SymbolTable
	targets *TargetTable

	block mir.Symbol
	op    *mir.Op
	out   []lir.Instr
}

func (fl *funcLowerer) lowerBlock(b *mir.EBB) lir.Block {
	fl.block = b.Name
	fl.out = make([]lir.Instr, 0, len(b.Body)+2)
	for i := range b.Body {
		fl.op = &b.Body[i]
		fl.lowerOp(fl.op)
	}
	fl.op = nil
	return lir.Block{Name: lir.Label(b.Name), Body: fl.out}
}

func (fl *funcLowerer) emit(in lir.Instr) {
	fl.out = append(fl.out, in)
}

// fail aborts lowering of the current function.
func (fl *funcLowerer) fail(kind ErrorKind, format string, args ...any) {
	fl.failErr(kind, nil, fmt.Sprintf(format, args...))
}

func (fl *funcLowerer) failErr(kind ErrorKind, err error, detail string) {
	e := &InternalError{Kind: kind, Func: fl.fn.Name, Block: fl.block, Detail: detail, Err: err}
	if fl.op != nil {
		e.Op = fl.op.Kind
		e.HasOp = true
	}
	panic(e)
}

// reg returns the register of s; an unbound symbol is fatal.
func (fl *funcLowerer) reg(s mir.Symbol) lir.Reg {
	r, ok := fl.syms.Lookup(s)
	if !ok {
		fl.fail(ErrUnboundSymbol, "symbol %s has no register", s)
	}
	return r
}

func (fl *funcLowerer) regs(ss []mir.Symbol) []lir.Reg {
	out := make([]lir.Reg, len(ss))
	for i, s := range ss {
		out[i] = fl.reg(s)
	}
	return out
}

// params returns the parameter registers of the block labelled label.
func (fl *funcLowerer) params(label mir.Symbol) []lir.Reg {
	p, ok := fl.targets.Params(label)
	if !ok {
		fl.fail(ErrUnknownTarget, "no block labelled %s", label)
	}
	return p
}
