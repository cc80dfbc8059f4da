// tranchey is a playground CLI for tranche tables of fixed size integer
// values.
//
// Usage:
//
//	tranchey demo                 Run the canned some_key/jacob walkthrough
//	tranchey repl                 Interactive session
//	tranchey stats [-n N]         Insert N random keys and report tranche use
//
// Global flags:
//
//	-c, --config        JSONC settings file
//	-s, --value-size    Bytes per value: 1, 2, 4 or 8 (default: 1)
//	    --max-entries   Entry budget, 0 for none
//	-v, --verbose       Log table internals to stderr
//	    --json          Output in JSON format
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	valueSize  int
	maxEntries int
	verbose    bool
	jsonOut    bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.configPath, "config", "c", "", "JSONC settings file")
	fs.IntVarP(&g.valueSize, "value-size", "s", defaultValueSize, "Bytes per value: 1, 2, 4 or 8")
	fs.IntVar(&g.maxEntries, "max-entries", 0, "Entry budget, 0 for none")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "Log table internals to stderr")
	fs.BoolVar(&g.jsonOut, "json", false, "Output in JSON format")
}

// settings resolves defaults < config file < explicitly set flags.
func (g *globalFlags) settings(fs *pflag.FlagSet) (Settings, error) {
	s := DefaultSettings()
	if g.configPath != "" {
		fileSettings, err := LoadSettings(g.configPath)
		if err != nil {
			return Settings{}, err
		}
		s = fileSettings
	}

	if fs.Changed("value-size") {
		s.ValueSize = g.valueSize
	}
	if fs.Changed("max-entries") {
		s.MaxEntries = g.maxEntries
	}
	if g.verbose {
		s.LogLevel = "debug"
	}

	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := new(globalFlags)

	root := &cobra.Command{
		Use:   "tranchey",
		Short: "Poke at a tranche table",
		Long: `tranchey stores integer values in a tranche table: keys are grouped by
their first two bytes into 65536 linked lists, and the table remembers the
order in which keys were inserted.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	flags.register(root.PersistentFlags())

	openSession := func(cmd *cobra.Command) (*session, error) {
		s, err := flags.settings(cmd.Flags())
		if err != nil {
			return nil, err
		}
		return newSession(s, stdout, newLogger(stderr, s.LogLevel), flags.jsonOut)
	}

	root.AddCommand(newDemoCmd(openSession))
	root.AddCommand(newReplCmd(openSession))
	root.AddCommand(newStatsCmd(openSession))
	return root
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
