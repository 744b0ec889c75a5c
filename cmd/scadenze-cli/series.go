package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scadenze/internal/cli"
)

var flagShowIDs bool

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List detected recurring series",
	RunE:  runSeries,
}

func init() {
	seriesCmd.Flags().BoolVar(&flagShowIDs, "ids", false, "Also print series IDs for use with 'next'")
	rootCmd.AddCommand(seriesCmd)
}

func runSeries(cmd *cobra.Command, _ []string) error {
	engine, cleanup, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	series, err := engine.ListRecurringSeries(cmd.Context())
	if err != nil {
		return err
	}
	if len(series) == 0 {
		fmt.Println("\n  No recurring series found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RECURRING SERIES  as of %s", engine.Today())))
	fmt.Println()
	fmt.Print(cli.RenderSeries(series))
	if flagShowIDs {
		fmt.Println()
		fmt.Print(cli.RenderSeriesIDs(series))
	}
	return nil
}
