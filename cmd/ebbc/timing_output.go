package main

import (
	"fmt"
	"io"
	"time"

	"ebbc/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings) error {
	if out == nil {
		return nil
	}
	for _, stage := range []pipeline.Stage{pipeline.StageDecode, pipeline.StageLower, pipeline.StageEmit} {
		if !timings.Has(stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", stage, toMillis(timings.Duration(stage))); err != nil {
			return err
		}
	}
	return nil
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
