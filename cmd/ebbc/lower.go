package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ebbc/internal/cache"
	"ebbc/internal/config"
	"ebbc/internal/pipeline"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] <input>",
	Short: "Lower a MIR program to LIR",
	Long: `Lower a MIR program (.json or .mp, "-" for stdin) to LIR.
Defaults come from the nearest ebbc.toml; flags override it.`,
	Args: cobra.ExactArgs(1),
	RunE: lowerExecution,
}

func init() {
	lowerCmd.Flags().StringP("output", "o", "-", "output file (- for stdout)")
	lowerCmd.Flags().Int("jobs", 0, "functions lowered in parallel (0 = GOMAXPROCS)")
	lowerCmd.Flags().String("format", config.FormatText, "output format (text|msgpack)")
	lowerCmd.Flags().String("target", "x86_64", "layout target (x86_64|aarch64)")
	lowerCmd.Flags().Bool("cache", false, "reuse lowered programs from the on-disk cache")
	lowerCmd.Flags().String("config", "", "configuration file (default: nearest ebbc.toml)")
	lowerCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

func lowerExecution(cmd *cobra.Command, args []string) error {
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	inputPath := args[0]
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var dc *cache.DiskCache
	if cfg.Cache.Enabled {
		dir, dirErr := cfg.CacheDir()
		if dirErr != nil {
			return dirErr
		}
		if dc, err = cache.Open(dir); err != nil {
			return err
		}
	}

	toStdout := outputPath == "" || outputPath == "-"
	var out bytes.Buffer
	req := pipeline.Request{
		InputPath: inputPath,
		Input:     cmd.InOrStdin(),
		Output:    &out,
		Config:    cfg,
		Cache:     dc,
	}

	var res pipeline.Result
	if shouldUseTUI(uiModeValue, toStdout) {
		res, err = runWithUI(cmd.Context(), "ebbc lower "+inputPath, &req)
	} else {
		res, err = pipeline.Run(cmd.Context(), &req)
	}
	if err != nil {
		dumpTraceOnError(cmd)
		return err
	}

	if toStdout {
		if _, err := cmd.OutOrStdout().Write(out.Bytes()); err != nil {
			return err
		}
	} else if err := os.WriteFile(outputPath, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}

	if showTimings {
		if err := printStageTimings(cmd.ErrOrStderr(), res.Timings); err != nil {
			return err
		}
	}
	if !quiet && !toStdout {
		note := ""
		if res.CacheHit {
			note = " (cached)"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d funcs -> %s%s\n",
			color.New(color.FgGreen, color.Bold).Sprint("lowered"), len(res.LIR.Funcs), outputPath, note)
	}
	return nil
}

// loadConfig reads --config or the nearest ebbc.toml and applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return config.Config{}, cwdErr
		}
		cfg, _, err = config.Discover(cwd)
	}
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("jobs") {
		if cfg.Lower.Jobs, err = flags.GetInt("jobs"); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("target") {
		if cfg.Lower.Target, err = flags.GetString("target"); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("format") {
		if cfg.Output.Format, err = flags.GetString("format"); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("cache") {
		if cfg.Cache.Enabled, err = flags.GetBool("cache"); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, cfg.Validate()
}
