package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akashicode/pdfsect/internal/config"
	"github.com/akashicode/pdfsect/internal/graph"
)

var outlineCmd = &cobra.Command{
	Use:   "outline [source]",
	Short: "Show stored document outlines",
	Long: `Without arguments, lists every document whose outline was written by
"pdfsect build". With a source name (e.g. report.pdf), prints its outline.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOutline,
}

func runOutline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Paths.GraphDir); err != nil {
		return fmt.Errorf("no outline graph at %s (run \"pdfsect build\" first)", cfg.Paths.GraphDir)
	}

	gdb, err := graph.NewDBFromPath(cfg.Paths.GraphDir)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer gdb.Close()

	w := cmd.OutOrStdout()
	if len(args) == 0 {
		sources, err := gdb.Sources(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range sources {
			fmt.Fprintln(w, s)
		}
		return nil
	}

	sections, err := gdb.Sections(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(sections) == 0 {
		return fmt.Errorf("no outline stored for %q", args[0])
	}
	fmt.Fprint(w, graph.FormatOutline(sections))
	return nil
}
