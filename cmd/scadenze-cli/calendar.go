package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scadenze/internal/cli"
)

var (
	flagYear  int
	flagMonth int
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Bills expected in one month",
	RunE:  runCalendar,
}

func init() {
	calendarCmd.Flags().IntVar(&flagYear, "year", 0, "Year (default: the --today year)")
	calendarCmd.Flags().IntVar(&flagMonth, "month", 0, "Month 1-12 (default: the --today month)")
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	engine, cleanup, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	year, month := engine.Today().Year(), engine.Today().Month()
	if flagYear != 0 {
		year = flagYear
	}
	if flagMonth != 0 {
		month = flagMonth
	}

	projection, err := engine.ProjectMonth(cmd.Context(), year, month)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("BILL CALENDAR"))
	fmt.Println()
	if projection.BillCount == 0 {
		fmt.Println("  No bills expected this month.")
		return nil
	}
	fmt.Print(cli.RenderMonth(projection))
	return nil
}
