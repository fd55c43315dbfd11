package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/pipeline"
	"github.com/matzehuels/cadpage/pkg/render/sink"
)

// exportFlags holds the flags of the export command that do not map
// directly onto pipeline.Options.
type exportFlags struct {
	output     string
	formatsStr string
	margin     float64
	size       string
	pick       bool
	split      bool
	noCache    bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var flags exportFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "export [drawing.json]",
		Short: "Export every layout of a drawing as printable pages",
		Long: `Export every layout of a drawing as printable pages.

One page is planned per non-empty layout: model space is fitted to the
catalog page matching its aspect ratio, paper-space layouts are placed on the
page that matches their declared plot area. PDF output puts every layout
into one <output>.pdf with one page per layout; --split writes one PDF per
layout instead. Other formats write <output>-<layout>.<ext>, or
<output>.<ext> when only one page results.

With --size WxH the model is rendered into a fixed-size PNG instead.

Results are cached locally for faster subsequent runs.`,
		Example: `  cadpage export bracket.json
  cadpage export bracket.json -f pdf,svg -o out/bracket
  cadpage export bracket.json --layout "ISO A4" --paper A3 --margin 0.25
  cadpage export bracket.json --size 600x500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			c.applyConfig(cmd, &opts, &flags)
			return c.runExport(cmd.Context(), opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output base path (default: input path without extension)")
	cmd.Flags().StringVarP(&flags.formatsStr, "format", "f", "", "output format(s): pdf (default), svg, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.Layout, "layout", "", "export only this layout")
	cmd.Flags().StringVar(&opts.View, "view", "", "named view to frame model space")
	cmd.Flags().BoolVar(&flags.pick, "pick", false, "choose the layout interactively")
	cmd.Flags().BoolVar(&flags.split, "split", false, "write one PDF per layout instead of one document")
	cmd.Flags().StringSliceVar(&opts.Paper, "paper", nil, "paper catalog, e.g. A3,Letter or 420x297mm (rotated variants are added)")
	cmd.Flags().Float64Var(&flags.margin, "margin", 0, "page margin in inches")
	cmd.Flags().StringVar(&flags.size, "size", "", "render model space into a WxH pixel PNG")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "layouts exported in parallel")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "colour theme: white (default), black")
	cmd.Flags().Float64Var(&opts.LineWidth, "line-width", 0, "stroke width in page units")
	cmd.Flags().BoolVar(&opts.NoText, "no-text", false, "omit text entities")
	cmd.Flags().Float64Var(&opts.PNGScale, "png-scale", 0, "pixels per page unit for PNG output")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached artifacts and render again")

	_ = cmd.RegisterFlagCompletionFunc("layout", completeLayouts)
	_ = cmd.RegisterFlagCompletionFunc("view", completeViews)
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(formatNames(), cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// completeLayouts offers the layout names of the drawing named by the first
// argument.
func completeLayouts(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	d, err := drawing.Load(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(d.Layouts))
	for _, l := range d.OrderedLayouts() {
		names = append(names, l.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeViews offers the named views of the drawing.
func completeViews(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	d, err := drawing.Load(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(d.Views))
	for _, v := range d.Views {
		names = append(names, v.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func formatNames() []string {
	var names []string
	for _, f := range sink.Formats() {
		names = append(names, string(f))
	}
	return names
}

// applyConfig fills options that no flag set from the configuration file.
func (c *CLI) applyConfig(cmd *cobra.Command, opts *pipeline.Options, flags *exportFlags) {
	cfg := c.Config
	changed := cmd.Flags().Changed

	if changed("format") {
		opts.Formats = splitList(flags.formatsStr)
	} else {
		opts.Formats = cfg.Export.Formats
	}
	if !changed("paper") {
		opts.Paper = cfg.PaperSpecs()
	}
	margin := cfg.Paper.Margin
	if changed("margin") {
		margin = flags.margin
	}
	opts.Margin = &margin
	if !changed("workers") {
		opts.Workers = cfg.Export.Workers
	}
	if !changed("theme") {
		opts.Theme = cfg.Export.Theme
	}
	opts.CombinePDF = !flags.split
	opts.Logger = c.Logger
}

// runExport loads, plans and renders the drawing and writes the pages.
func (c *CLI) runExport(ctx context.Context, opts pipeline.Options, flags exportFlags) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner(ctx, flags.noCache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	base := outputBase(opts.Input, flags.output)
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	if flags.size != "" {
		return c.runImageExport(ctx, runner, opts, flags.size, base)
	}

	if flags.pick {
		layout, err := c.pickLayout(ctx, runner, opts)
		if err != nil {
			return err
		}
		if layout == "" {
			printInfo("No layout selected")
			return nil
		}
		opts.Layout = layout
	}

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Exporting %s...", filepath.Base(opts.Input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if result == nil {
		spinner.StopWithError("Export failed")
		return fmt.Errorf("export: %w", err)
	}
	spinner.Stop()
	layoutErr := err

	single := len(result.Plan.Pages) == 1
	for _, a := range result.Artifacts {
		path := sink.FileName(base, a.Layout, single || a.Document, a.Format)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.Pages, result.Stats.Skipped, result.Stats.Failed, result.CacheInfo.AllCached())
	for _, name := range result.Plan.Skipped {
		printDetail("Skipped empty layout %s", name)
	}
	for _, f := range result.Plan.Failed {
		printWarning("Layout %s: %s", f.Layout, errors.UserMessage(f.Err))
	}
	prog.done("exported", "drawing", result.Drawing.Name, "pages", result.Stats.Pages, "artifacts", len(result.Artifacts))

	if layoutErr != nil {
		return fmt.Errorf("%d of %d layouts failed", result.Stats.Failed, result.Stats.Pages+result.Stats.Failed)
	}
	if len(result.Artifacts) == 0 {
		printWarning("Nothing to plot")
	} else if result.Stats.Pages > 1 && opts.Layout == "" {
		printNextStep("Export a single layout", fmt.Sprintf("%s export %s --layout %q", appName, opts.Input, result.Plan.Pages[0].Layout.Name))
	}
	return nil
}

// runImageExport renders model space into a fixed-size bitmap.
func (c *CLI) runImageExport(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, size, base string) error {
	width, height, err := parseSize(size)
	if err != nil {
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	d, _, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.Input, err)
	}
	data, cached, err := runner.Preview(ctx, d, width, height)
	if err != nil {
		return fmt.Errorf("render image: %w", err)
	}
	path := base + "." + string(sink.FormatPNG)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("Rendered %d×%d image", width, height)
	printFile(path)
	if cached {
		printDetail("%s", iconCached)
	}
	return nil
}

// parseSize parses "WxH" into positive pixel dimensions.
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "size %q: want WIDTHxHEIGHT", s)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "size %q: want positive WIDTHxHEIGHT", s)
	}
	return width, height, nil
}
