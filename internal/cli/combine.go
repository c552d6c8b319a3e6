package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/imageref"
	"github.com/matzehuels/imagecombiner/pkg/intake"
	"github.com/matzehuels/imagecombiner/pkg/layout"
	"github.com/matzehuels/imagecombiner/pkg/pipeline"
)

// combineFlags holds the command-line flags shared by combine and arrange.
// Unset flags fall back to the config file.
type combineFlags struct {
	orientation string
	alignment   string
	gap         int
	width       int
	height      int
	keepAspect  bool
	quality     float64
	format      string
	output      string

	paste   bool
	strict  bool
	noCache bool
	refresh bool
	dryRun  bool
}

func (f *combineFlags) registerLayout(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.orientation, "orientation", "O", "", "layout: row (default), column")
	cmd.Flags().StringVarP(&f.alignment, "align", "a", "", "alignment across the layout axis: start, center (default), end")
	cmd.Flags().IntVarP(&f.gap, "gap", "g", 0, "pixels between adjacent images (0-100)")
}

func (f *combineFlags) registerExport(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.width, "width", 0, "output width in pixels (default: natural width)")
	cmd.Flags().IntVar(&f.height, "height", 0, "output height in pixels (default: natural height)")
	cmd.Flags().BoolVar(&f.keepAspect, "keep-aspect", false, "derive the missing dimension from the aspect ratio")
	cmd.Flags().Float64VarP(&f.quality, "quality", "q", 0, "JPEG quality (0.1-1.0, default 0.5)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: jpeg (default), png")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default combined-image.jpg)")
}

// options merges config values with the flags the user actually set.
// Explicit zero quality or dimensions are rejected; only unset flags take defaults.
func (c *CLI) options(f *combineFlags, changed func(string) bool) (pipeline.Options, error) {
	cfg := c.cfg
	opts := pipeline.Options{
		Orientation: string(cfg.Layout.Orientation),
		Alignment:   string(cfg.Layout.Alignment),
		Gap:         cfg.Layout.Gap,
		Width:       cfg.Export.Width,
		Height:      cfg.Export.Height,
		KeepAspect:  cfg.Export.KeepAspect,
		Quality:     cfg.Export.Quality,
		Format:      cfg.Export.Format,
		Strict:      f.strict,
		Refresh:     f.refresh,
		Logger:      c.Logger,
	}
	if changed("orientation") {
		opts.Orientation = f.orientation
	}
	if changed("align") {
		opts.Alignment = f.alignment
	}
	if changed("gap") {
		opts.Gap = f.gap
	}
	if changed("width") {
		if err := errors.ValidateExplicitDimension("width", f.width); err != nil {
			return opts, err
		}
		opts.Width = f.width
	}
	if changed("height") {
		if err := errors.ValidateExplicitDimension("height", f.height); err != nil {
			return opts, err
		}
		opts.Height = f.height
	}
	if changed("keep-aspect") {
		opts.KeepAspect = f.keepAspect
	}
	if changed("quality") {
		if err := errors.ValidateQuality(f.quality); err != nil {
			return opts, err
		}
		opts.Quality = f.quality
	}
	switch {
	case changed("format"):
		opts.Format = f.format
	case f.output != "":
		opts.Format = string(export.FormatFromPath(f.output))
	}
	return opts, nil
}

// outputPath picks the file to write for format.
func (c *CLI) outputPath(f *combineFlags, format export.Format) string {
	if f.output != "" {
		return f.output
	}
	out := c.cfg.Export.Output
	if out == "" || export.FormatFromPath(out) != format {
		return export.Filename(format)
	}
	return out
}

// combineCommand creates the combine command.
func (c *CLI) combineCommand() *cobra.Command {
	var f combineFlags

	cmd := &cobra.Command{
		Use:   "combine [images...]",
		Short: "Combine images into a single image",
		Long: `Combine lays out the given images in order and writes the result.

Examples:
  imagecombiner combine a.png b.jpg
  imagecombiner combine -O column -a start -g 8 *.png -o stack.png
  imagecombiner combine --width 1200 --keep-aspect -q 0.9 a.png b.png
  imagecombiner combine --paste a.png

Images that fail to decode are skipped with a warning; --strict aborts instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !f.paste {
				return fmt.Errorf("no images given (pass files or --paste)")
			}
			return c.runCombine(cmd.Context(), args, &f, cmd.Flags().Changed)
		},
	}

	f.registerLayout(cmd)
	f.registerExport(cmd)
	cmd.Flags().BoolVar(&f.paste, "paste", false, "append images from the clipboard")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "abort if any image fails to decode instead of skipping it")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results and recompute")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the layout plan without writing output")

	return cmd
}

func (c *CLI) runCombine(ctx context.Context, paths []string, f *combineFlags, changed func(string) bool) error {
	opts, err := c.options(f, changed)
	if err != nil {
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	payloads, err := c.collectPayloads(ctx, paths, f.paste)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, f.noCache || f.dryRun)
	if err != nil {
		return err
	}
	defer runner.Close()

	if f.dryRun {
		return c.printPlan(ctx, runner, payloads, opts)
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Combining %d images...", len(payloads)))
	spinner.Start()
	result, err := runner.Execute(ctx, payloads, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	for _, failure := range result.Failures {
		printWarning("Skipped %s", errors.UserMessage(failure))
	}

	out := c.outputPath(f, result.Format)
	if err := writeOutput(out, result.Encoded); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Combined %d images", result.Stats.ImageCount))

	printSuccess("Combined %d images", result.Stats.ImageCount)
	printFile(out)
	printStats(result.Stats, result.CacheInfo.ExportHit)
	return nil
}

// collectPayloads reads image files and, with paste, the clipboard.
// Files that are not images are reported and skipped.
func (c *CLI) collectPayloads(ctx context.Context, paths []string, paste bool) ([]intake.Payload, error) {
	payloads, err := intake.FromFiles(paths)
	if err != nil {
		return nil, err
	}
	if paste {
		pasted, err := c.Clipboard.Read(ctx)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("read clipboard", "items", len(pasted))
		payloads = append(payloads, pasted...)
	}

	images := intake.FilterImages(payloads)
	if skipped := len(payloads) - len(images); skipped > 0 {
		for _, p := range payloads {
			if !p.IsImage() {
				printWarning("Ignoring %s (%s is not an image)", p.Name, p.MediaType)
			}
		}
	}
	if len(images) < layout.MinImages {
		return nil, layout.ErrInsufficientImages
	}
	return images, nil
}

// printPlan decodes the inputs and prints where each image would land.
func (c *CLI) printPlan(ctx context.Context, runner *pipeline.Runner, payloads []intake.Payload, opts pipeline.Options) error {
	batch, err := runner.Decode(ctx, payloads, opts)
	if err != nil {
		return err
	}
	for _, failure := range batch.Failures {
		printWarning("Skipped %s", errors.UserMessage(failure))
	}

	settings := opts.LayoutSettings()
	plan, err := layout.Compute(imageref.Sizes(batch.Refs), settings)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render("Layout plan"))
	printKeyValue("Layout", fmt.Sprintf("%s, %s aligned, gap %dpx", plan.Orientation, settings.Alignment.Label(settings.Orientation), plan.Gap))
	printKeyValue("Canvas", fmt.Sprintf("%d x %d", plan.Width, plan.Height))
	out, err := export.ResolveSize(plan.Size(), opts.ExportSettings())
	if err != nil {
		return err
	}
	if out != plan.Size() {
		printKeyValue("Output", fmt.Sprintf("%d x %d", out.X, out.Y))
	}
	fmt.Println(planTable(batch, plan))
	return nil
}

func planTable(b pipeline.Batch, plan layout.Plan) string {
	rows := make([][]string, len(plan.Placements))
	for i, p := range plan.Placements {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			b.Refs[i].Name,
			fmt.Sprintf("%dx%d", p.Width, p.Height),
			fmt.Sprintf("(%d, %d)", p.X, p.Y),
		}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Image", "Size", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
