package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cadpage/pkg/drawing"
)

// sampleCommand creates the sample command, which writes a demonstration
// drawing to disk.
func (c *CLI) sampleCommand() *cobra.Command {
	var welcome bool

	cmd := &cobra.Command{
		Use:   "sample [drawing.json]",
		Short: "Write a sample drawing with model space and several layouts",
		Long: `Write a sample drawing with model space and several layouts.

The sample has model-space geometry, ISO A4, Letter, screen and extents
layouts, and one empty layout that export skips. Use --welcome for the
small drawing served by 'cadpage serve' at /v1/sample.png.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "sample.json"
			if len(args) == 1 {
				path = args[0]
			}
			d := drawing.Sample()
			if welcome {
				d = drawing.WelcomeSample()
			}
			if err := drawing.Save(d, path); err != nil {
				return fmt.Errorf("write sample: %w", err)
			}

			// Read it back so the file is known to load.
			back, err := drawing.Load(path)
			if err != nil {
				return fmt.Errorf("read sample back: %w", err)
			}
			st := back.Stats()
			printSuccess("Wrote %s", back.Name)
			printFile(path)
			printDetail("%d entities · %d layouts · %d blocks", st.ModelEntities+st.PaperEntities, st.Layouts, st.Blocks)
			printNextStep("Export it", fmt.Sprintf("%s export %s -f pdf,svg", appName, path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&welcome, "welcome", false, "write the single-layout welcome drawing")
	return cmd
}
