package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var replCommands = []string{
	"set", "put", "get", "del", "delete", "rm",
	"ls", "list", "at", "len", "count",
	"stats", "sorted", "bulk", "free",
	"help", "exit", "quit", "q",
}

func newReplCmd(open func(*cobra.Command) (*session, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, s.table.Free())
			}()
			return runREPL(s)
		},
	}
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".tranchey_history")
}

func completer(line string) []string {
	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range replCommands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func runREPL(s *session) error {
	// Set up liner for readline-style input
	l := liner.NewLiner()
	defer l.Close()

	l.SetCtrlCAborts(true)
	l.SetCompleter(completer)

	if f, err := os.Open(historyFile()); err == nil {
		l.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(l)

	s.printf("tranchey (value_size=%d, max_entries=%d)\n", s.settings.ValueSize, s.settings.MaxEntries)
	s.printf("Type 'help' for available commands.\n\n")

	for {
		line, err := l.Prompt("tranchey> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				s.printf("\nBye!\n")
				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		l.AppendHistory(line)

		err = s.exec(line)
		if errors.Is(err, errQuit) {
			s.printf("Bye!\n")
			return nil
		}
		if err != nil {
			s.printf("error: %v\n", err)
		}
	}
}

// saveHistory persists command history to disk.
func saveHistory(l *liner.State) {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			l.WriteHistory(f)
			f.Close()
		}
	}
}
