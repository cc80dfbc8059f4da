package main

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hneemann/iterator"
	"github.com/sugawarayuuta/sonnet"

	"github.com/rip-create-your-account/tranchetable"
)

var (
	errQuit        = errors.New("quit")
	errUnknownCmd  = errors.New("unknown command")
	errMissingArgs = errors.New("missing arguments")
	errBadCount    = errors.New("count must be a non-negative integer")
)

// session owns one table and runs text commands against it.
type session struct {
	settings Settings
	table    *tranchetable.BlobTable
	out      io.Writer
	log      *slog.Logger
	jsonOut  bool
}

func newSession(s Settings, out io.Writer, log *slog.Logger, jsonOut bool) (*session, error) {
	sess := &session{
		settings: s,
		out:      out,
		log:      log,
		jsonOut:  jsonOut,
	}
	if err := sess.reset(); err != nil {
		return nil, err
	}
	return sess, nil
}

// reset makes a fresh table and inserts the configured seed entries.
func (s *session) reset() error {
	t, err := tranchetable.NewBlob(s.settings.ValueSize, tranchetable.BlobConfig{
		ZeroInit: true,
		Compare: func(a, b []byte) int {
			return cmp.Compare(decodeValue(a), decodeValue(b))
		},
		Free: func(v []byte) error {
			s.log.Debug("releasing value", "value", decodeValue(v))
			return nil
		},
		MaxEntries: s.settings.MaxEntries,
		Logger:     s.log,
	})
	if err != nil {
		return err
	}

	for _, e := range s.settings.Seed {
		v, err := encodeValue(e.Value, s.settings.ValueSize)
		if err != nil {
			return fmt.Errorf("seed %q: %w", e.Key, err)
		}
		if err := t.Set(e.Key, v); err != nil {
			return fmt.Errorf("seed %q: %w", e.Key, err)
		}
	}

	s.table = t
	return nil
}

type entryView struct {
	Position int    `json:"position"`
	Key      string `json:"key"`
	Value    int64  `json:"value"`
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *session) printJSON(v any) error {
	data, err := sonnet.Marshal(v)
	if err != nil {
		return err
	}
	s.printf("%s\n", data)
	return nil
}

func (s *session) printEntries(entries []entryView) error {
	if s.jsonOut {
		if entries == nil {
			entries = []entryView{}
		}
		return s.printJSON(entries)
	}
	for _, e := range entries {
		s.printf("%4d  %-24s %d\n", e.Position, e.Key, e.Value)
	}
	s.printf("(%d of %d entries)\n", len(entries), s.table.Len())
	return nil
}

// exec runs one command line. errQuit asks the caller to stop.
func (s *session) exec(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "exit", "quit", "q":
		return errQuit
	case "help", "?":
		s.printHelp()
		return nil
	case "set", "put":
		return s.cmdSet(args)
	case "get":
		return s.cmdGet(args)
	case "del", "delete", "rm":
		return s.cmdDelete(args)
	case "ls", "list":
		return s.cmdList(args)
	case "at":
		return s.cmdAt(args)
	case "len", "count":
		s.printf("%d\n", s.table.Len())
		return nil
	case "stats":
		return s.cmdStats()
	case "sorted":
		return s.cmdSorted()
	case "bulk":
		return s.cmdBulk(args)
	case "free":
		return s.cmdFree()
	default:
		return fmt.Errorf("%w: %s (type 'help' for commands)", errUnknownCmd, cmd)
	}
}

func (s *session) printHelp() {
	s.printf("Commands:\n")
	s.printf("  set <key> <int>   Insert or update an entry\n")
	s.printf("  get <key>         Look up an entry\n")
	s.printf("  del <key>         Remove an entry\n")
	s.printf("  ls [limit]        List entries in insertion order\n")
	s.printf("  at <position>     Show the entry at a position\n")
	s.printf("  len               Count entries\n")
	s.printf("  stats             Show tranche occupancy\n")
	s.printf("  sorted            List entries ordered by value\n")
	s.printf("  bulk <count>      Insert N entries with random keys\n")
	s.printf("  free              Free the table and start over\n")
	s.printf("  help              Show this help\n")
	s.printf("  exit / quit / q   Exit\n")
}

func (s *session) cmdSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: set <key> <int>", errMissingArgs)
	}
	v, err := parseValue(args[1], s.settings.ValueSize)
	if err != nil {
		return err
	}
	if err := s.table.Set(args[0], v); err != nil {
		return err
	}
	s.printf("OK\n")
	return nil
}

func (s *session) cmdGet(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: get <key>", errMissingArgs)
	}
	v, ok := s.table.Find(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", tranchetable.ErrNotFound, args[0])
	}
	if s.jsonOut {
		return s.printJSON(entryView{Position: -1, Key: args[0], Value: decodeValue(v)})
	}
	s.printf("%d\n", decodeValue(v))
	return nil
}

func (s *session) cmdDelete(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: del <key>", errMissingArgs)
	}
	if err := s.table.Remove(args[0]); err != nil {
		return err
	}
	s.printf("OK\n")
	return nil
}

func (s *session) cmdList(args []string) error {
	entries := s.table.All()
	if len(args) > 0 {
		limit, err := strconv.Atoi(args[0])
		if err != nil || limit < 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		entries = iterator.FirstN(entries, limit)
	}

	var views []entryView
	for e, err := range entries {
		if err != nil {
			return err
		}
		views = append(views, entryView{Position: len(views), Key: e.Key(), Value: decodeValue(*e.Value())})
	}
	return s.printEntries(views)
}

func (s *session) cmdAt(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: at <position>", errMissingArgs)
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid position %q", args[0])
	}
	key, err := s.table.KeyAt(i)
	if err != nil {
		return err
	}
	v, err := s.table.ValueAt(i)
	if err != nil {
		return err
	}
	return s.printEntries([]entryView{{Position: i, Key: key, Value: decodeValue(v)}})
}

type statsView struct {
	Entries             int     `json:"entries"`
	UsedTranches        int     `json:"used_tranches"`
	LongestChain        int     `json:"longest_chain"`
	LongestChainTranche uint16  `json:"longest_chain_tranche"`
	MeanChain           float64 `json:"mean_chain"`
}

func (s *session) cmdStats() error {
	st := s.table.Stats()
	view := statsView{
		Entries:             st.Entries,
		UsedTranches:        st.UsedTranches,
		LongestChain:        st.LongestChain,
		LongestChainTranche: st.LongestChainTranche,
	}
	if st.UsedTranches > 0 {
		view.MeanChain = float64(st.Entries) / float64(st.UsedTranches)
	}

	if s.jsonOut {
		return s.printJSON(view)
	}
	s.printf("entries:        %d\n", view.Entries)
	s.printf("used tranches:  %d of 65536\n", view.UsedTranches)
	s.printf("longest chain:  %d (tranche %#04x %q)\n", view.LongestChain, view.LongestChainTranche,
		[]byte{byte(view.LongestChainTranche), byte(view.LongestChainTranche >> 8)})
	s.printf("mean chain:     %.2f\n", view.MeanChain)
	return nil
}

// cmdSorted lists entries by value. Each row keeps its insertion position so
// it can be fed back to 'at'.
func (s *session) cmdSorted() error {
	sorted, err := s.table.Sorted()
	if err != nil {
		return err
	}

	positions := make(map[*tranchetable.Entry[[]byte]]int, s.table.Len())
	for e, err := range s.table.All() {
		if err != nil {
			return err
		}
		positions[e] = len(positions)
	}

	var views []entryView
	for e, err := range sorted {
		if err != nil {
			return err
		}
		views = append(views, entryView{Position: positions[e], Key: e.Key(), Value: decodeValue(*e.Value())})
	}
	return s.printEntries(views)
}

func (s *session) cmdBulk(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: bulk <count>", errMissingArgs)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return fmt.Errorf("%w: %q", errBadCount, args[0])
	}

	inserted, err := s.bulk(n)
	s.printf("inserted %d entries\n", inserted)
	return err
}

// bulk inserts n entries under random UUID keys. The values count up and
// wrap like an int8 so they fit any value size.
func (s *session) bulk(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", errBadCount, n)
	}
	for i := 0; i < n; i++ {
		v, err := encodeValue(int64(int8(i)), s.settings.ValueSize)
		if err != nil {
			return i, err
		}
		if err := s.table.Set(uuid.NewString(), v); err != nil {
			return i, err
		}
	}
	return n, nil
}

func (s *session) cmdFree() error {
	n := s.table.Len()
	if err := s.table.Free(); err != nil {
		return err
	}
	s.printf("freed %d entries\n", n)
	return s.reset()
}
