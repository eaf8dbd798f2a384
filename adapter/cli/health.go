package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage, lock and broker health",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := RequireApp()
		if err != nil {
			return err
		}
		overall := a.Health.GetOverallHealth(cmd.Context())

		names := make([]string, 0, len(overall.Checks))
		for name := range overall.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status: %s\n", overall.Status)
		for _, name := range names {
			check := overall.Checks[name]
			fmt.Fprintf(out, "  %-10s %-9s %s\n", name, check.Status, check.Message)
		}
		if overall.Status == observability.HealthStatusUnhealthy {
			return errors.New("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
