package main

import (
	"github.com/spf13/cobra"
)

// The walkthrough the table was first written for: two int8 values, a
// listing in insertion order and a lookup.
var demoScript = []string{
	"set some_key 7",
	"set jacob 32",
	"ls",
	"get jacob",
	"stats",
	"free",
}

func newDemoCmd(open func(*cobra.Command) (*session, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the canned some_key/jacob walkthrough",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			return runScript(s, demoScript)
		},
	}
}

func runScript(s *session, lines []string) error {
	for _, line := range lines {
		s.printf("> %s\n", line)
		if err := s.exec(line); err != nil {
			return err
		}
	}
	return nil
}
