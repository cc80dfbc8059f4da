package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(open func(*cobra.Command) (*session, error)) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Insert random keys and report tranche occupancy",
		Long: `The stats command fills a table with random UUID keys and shows how
they spread over the tranches. Only the first two key bytes pick the
tranche, so hex UUIDs can use at most 256 of the 65536 tranches.

Example:
  tranchey stats -n 100000
  tranchey stats --count 5000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if n < 0 {
				return fmt.Errorf("%w: %d", errBadCount, n)
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, s.table.Free())
			}()

			if _, err := s.bulk(n); err != nil {
				return err
			}
			return s.cmdStats()
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 10_000, "Number of random keys")
	return cmd
}
