package lower

import (
	"context"

	"ebbc/internal/config"
	"ebbc/internal/layout"
	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

// Pass is the MIR to LIR stage of the pipeline.
type Pass struct {
	Progress func(FuncEvent)
}

func (Pass) Name() string { return "mir2lir" }

// Trans lowers p with the target and job count from cfg. Well-formed MIR
// never fails; an error reports a malformed program.
func (p Pass) Trans(ctx context.Context, prog *mir.Program, cfg config.Config) (*lir.Program, error) {
	target, err := layout.TargetByName(cfg.Lower.Target)
	if err != nil {
		return nil, err
	}
	lw := New(target)
	lw.Jobs = cfg.Lower.Jobs
	lw.Progress = p.Progress
	return lw.Program(ctx, prog)
}
