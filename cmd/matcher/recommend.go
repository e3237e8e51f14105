package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Matcher/internal/matching"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

type recommendFlags struct {
	snapshot        string
	activity        string
	strategy        string
	expertFraction  float64
	departmentLimit int
	pareto          bool
	objectives      []string
	noAvailability  bool
	compact         bool
}

var recFlags recommendFlags

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank a snapshot file offline and print the result as JSON",
	Long: `Loads activities and employees from a YAML or JSON snapshot, ranks the
requested activity (or every activity with open seats) and writes the
result to stdout. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRecommend(cmd, recFlags)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	f := recommendCmd.Flags()
	f.StringVarP(&recFlags.snapshot, "snapshot", "s", "", "snapshot file (default data.snapshot_path)")
	f.StringVarP(&recFlags.activity, "activity", "a", "", "activity id; empty ranks every activity with open seats")
	f.StringVar(&recFlags.strategy, "strategy", "", "upskilling, expertise, balanced or diversity (default scoring.default_strategy)")
	f.Float64Var(&recFlags.expertFraction, "expert-fraction", 0, "share of seats for experts in the balanced strategy")
	f.IntVar(&recFlags.departmentLimit, "department-limit", 0, "soft cap on candidates per department, 0 disables")
	f.BoolVar(&recFlags.pareto, "pareto", false, "include the Pareto view")
	f.StringSliceVar(&recFlags.objectives, "objectives", nil, "Pareto objectives (skill,experience,progression,context,total)")
	f.BoolVar(&recFlags.noAvailability, "no-availability", false, "skip the calendar availability check")
	f.BoolVar(&recFlags.compact, "compact", false, "single-line JSON output")
}

// overrides turns explicitly set flags into per-run overrides.
func (rf recommendFlags) overrides(cmd *cobra.Command) matching.Overrides {
	var ov matching.Overrides
	flags := cmd.Flags()
	ov.Strategy = rf.strategy
	if flags.Changed("expert-fraction") {
		v := rf.expertFraction
		ov.ExpertFraction = &v
	}
	if flags.Changed("department-limit") {
		v := rf.departmentLimit
		ov.DepartmentLimit = &v
	}
	if flags.Changed("pareto") {
		v := rf.pareto
		ov.Pareto = &v
	}
	if rf.noAvailability {
		v := false
		ov.Availability = &v
	}
	ov.Objectives = rf.objectives
	return ov
}

func runRecommend(cmd *cobra.Command, rf recommendFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr(), true)

	path := rf.snapshot
	if path == "" {
		path = cfg.Data.SnapshotPath
	}
	if path == "" {
		return errors.New("--snapshot or data.snapshot_path is required")
	}
	snap, err := store.LoadSnapshot(path)
	if err != nil {
		return err
	}

	ms := store.NewMemoryStore(snap)
	svc, err := matching.New(ms, nil, nil, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ov := rf.overrides(cmd)
	if rf.activity != "" {
		out, err := svc.Recommend(ctx, rf.activity, ov)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), out.Result, rf.compact)
	}

	open, err := ms.ListOpenActivities(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, len(open))
	for i, a := range open {
		ids[i] = a.ID
	}
	items, err := svc.RecommendMany(ctx, ids, ov)
	if err != nil {
		return err
	}
	failed := 0
	for _, it := range items {
		if it.Error != "" {
			failed++
			logger.Warn("activity failed", "activity_id", it.ActivityID, "error", it.Error)
		}
	}
	if err := writeOutput(cmd.OutOrStdout(), items, rf.compact); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d activities failed", failed, len(items))
	}
	return nil
}

func writeOutput(w io.Writer, v interface{}, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
