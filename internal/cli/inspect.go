package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cadpage/pkg/bounds"
	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/export"
	"github.com/matzehuels/cadpage/pkg/pipeline"
)

// inspectReport is the --json output of inspect.
type inspectReport struct {
	Drawing string         `json:"drawing"`
	Hash    string         `json:"hash"`
	Stats   inspectStats   `json:"stats"`
	Bounds  *[6]float64    `json:"model_bounds"`
	Plan    export.Summary `json:"plan"`
}

type inspectStats struct {
	ModelEntities int            `json:"model_entities"`
	PaperEntities int            `json:"paper_entities"`
	Blocks        int            `json:"blocks"`
	Layouts       int            `json:"layouts"`
	Views         int            `json:"views"`
	ByType        map[string]int `json:"by_type"`
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		asJSON  bool
		noCache bool
		margin  float64
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "inspect [drawing.json]",
		Short: "Show a drawing's contents and the pages it would export to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Logger = c.Logger
			if !cmd.Flags().Changed("paper") {
				opts.Paper = c.Config.PaperSpecs()
			}
			if !cmd.Flags().Changed("margin") {
				margin = c.Config.Paper.Margin
			}
			opts.Margin = &margin
			return c.runInspect(cmd.Context(), opts, asJSON, noCache)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&opts.View, "view", "", "named view to frame model space")
	cmd.Flags().StringSliceVar(&opts.Paper, "paper", nil, "paper catalog, e.g. A3,Letter")
	cmd.Flags().Float64Var(&margin, "margin", 0, "page margin in inches")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options, asJSON, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	d, hash, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.Input, err)
	}
	summary, cached, err := runner.PlanWithCacheInfo(ctx, opts)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	// A cyclic model still gets a report; only the bounds are missing.
	b, boundsErr := bounds.Calculator{}.Drawing(d)
	if boundsErr != nil {
		c.Logger.Debug("model bounds", "error", boundsErr)
	}

	report := newInspectReport(d, hash, summary)
	if boundsErr == nil && b.Initialized() {
		lo, hi := b.Min(), b.Max()
		report.Bounds = &[6]float64{lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z}
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printInfo("%s", StyleTitle.Render(d.Name))
	printKeyValue("Hash", hash[:12])
	printKeyValue("Model", fmt.Sprintf("%d entities", report.Stats.ModelEntities))
	printKeyValue("Paper", fmt.Sprintf("%d entities", report.Stats.PaperEntities))
	printKeyValue("Blocks", fmt.Sprint(report.Stats.Blocks))
	printKeyValue("Views", fmt.Sprint(report.Stats.Views))
	switch {
	case boundsErr != nil:
		printKeyValue("Bounds", StyleWarning.Render(boundsErr.Error()))
	case b.Initialized():
		printKeyValue("Bounds", b.String())
	default:
		printKeyValue("Bounds", "empty")
	}
	for _, name := range slices.Sorted(maps.Keys(report.Stats.ByType)) {
		printDetail("%-10s %d", name, report.Stats.ByType[name])
	}
	printNewline()
	printPlan(summary)
	printStats(len(summary.Pages), len(summary.Skipped), len(summary.Failed), cached)
	return nil
}

func newInspectReport(d *drawing.Drawing, hash string, s export.Summary) inspectReport {
	st := d.Stats()
	byType := make(map[string]int, len(st.ByType))
	for t, n := range st.ByType {
		byType[string(t)] = n
	}
	return inspectReport{
		Drawing: d.Name,
		Hash:    hash,
		Stats: inspectStats{
			ModelEntities: st.ModelEntities,
			PaperEntities: st.PaperEntities,
			Blocks:        st.Blocks,
			Layouts:       st.Layouts,
			Views:         st.Views,
			ByType:        byType,
		},
		Plan: s,
	}
}
