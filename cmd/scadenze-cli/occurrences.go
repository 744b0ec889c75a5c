package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scadenze/internal/calendar"
	"scadenze/internal/cli"
	"scadenze/internal/core"
)

var (
	flagFrom string
	flagTo   string
)

var occurrencesCmd = &cobra.Command{
	Use:   "occurrences",
	Short: "Every projected payment in a date range",
	RunE:  runOccurrences,
}

func init() {
	occurrencesCmd.Flags().StringVar(&flagFrom, "from", "", "First day YYYY-MM-DD (default: --today)")
	occurrencesCmd.Flags().StringVar(&flagTo, "to", "", "Last day YYYY-MM-DD (default: 30 days after --from)")
	rootCmd.AddCommand(occurrencesCmd)
}

func runOccurrences(cmd *cobra.Command, _ []string) error {
	engine, cleanup, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	from := engine.Today()
	if flagFrom != "" {
		if from, err = core.ParseDate(flagFrom); err != nil {
			return fmt.Errorf("invalid --from %q: %w", flagFrom, err)
		}
	}
	to := calendar.AddDays(from, 30)
	if flagTo != "" {
		if to, err = core.ParseDate(flagTo); err != nil {
			return fmt.Errorf("invalid --to %q: %w", flagTo, err)
		}
	}

	occ, err := engine.Occurrences(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	series, err := engine.ListRecurringSeries(cmd.Context())
	if err != nil {
		return err
	}
	byID := make(map[string]core.RecurringSeries, len(series))
	for _, s := range series {
		byID[s.ID] = s
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DUE  %s .. %s", from, to)))
	fmt.Println()
	if len(occ) == 0 {
		fmt.Println("  Nothing due in this range.")
		return nil
	}
	fmt.Print(cli.RenderOccurrences(occ, byID))
	return nil
}
