package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scadenze/internal/core"
)

var flagAfter string

var nextCmd = &cobra.Command{
	Use:   "next <series-id>",
	Short: "Next expected payment of a series",
	Long:  "Print the first projected date strictly after --after. The series ID may be abbreviated to any unique prefix.",
	Args:  cobra.ExactArgs(1),
	RunE:  runNext,
}

func init() {
	nextCmd.Flags().StringVar(&flagAfter, "after", "", "Date YYYY-MM-DD (default: --today)")
	rootCmd.AddCommand(nextCmd)
}

func runNext(cmd *cobra.Command, args []string) error {
	engine, cleanup, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	after := engine.Today()
	if flagAfter != "" {
		if after, err = core.ParseDate(flagAfter); err != nil {
			return fmt.Errorf("invalid --after %q: %w", flagAfter, err)
		}
	}

	series, err := engine.ListRecurringSeries(cmd.Context())
	if err != nil {
		return err
	}
	s, err := findSeries(series, args[0])
	if err != nil {
		return err
	}

	next, ok := engine.NextOccurrenceAfter(s, after)
	if !ok {
		fmt.Printf("  %s: no occurrence expected after %s\n", s.Description, after)
		return nil
	}
	fmt.Printf("  %s: next payment on %s (%s, %d days away)\n",
		s.Description, next, next.Weekday(), int(next.Sub(after.Time).Hours()/24))
	return nil
}

func findSeries(series []core.RecurringSeries, prefix string) (core.RecurringSeries, error) {
	var match []core.RecurringSeries
	for _, s := range series {
		if s.ID == prefix {
			return s, nil
		}
		if strings.HasPrefix(s.ID, prefix) {
			match = append(match, s)
		}
	}
	switch len(match) {
	case 0:
		return core.RecurringSeries{}, fmt.Errorf("no series with id %q (see 'series --ids')", prefix)
	case 1:
		return match[0], nil
	default:
		return core.RecurringSeries{}, fmt.Errorf("series id %q is ambiguous (%d matches)", prefix, len(match))
	}
}
