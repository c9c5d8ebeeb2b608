package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"service-map/core/config"
	"service-map/core/database"
	"service-map/core/feed"
	"service-map/core/feed/source"
	"service-map/core/logger"
	"service-map/core/mapping"
	"service-map/core/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	watchReplay   string
	watchInterval time.Duration
	watchNoDB     bool
)

// watchCmd runs one headless map session and prints marker changes.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a headless map session and print marker changes",
	Long: `Runs a map session without the HTTP server and prints every marker
added or removed as the feed and the viewer position change.

Examples:
  # Follow the configured feed
  watch

  # Replay recorded changes (one JSON document per line) instead of the feed
  watch --replay changes.jsonl --no-db`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchReplay, "replay", "", "Replay feed changes from a JSON lines file")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 250*time.Millisecond, "How often markers are compared")
	watchCmd.Flags().BoolVar(&watchNoDB, "no-db", false, "Skip the provider snapshot")
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	var db *gorm.DB
	if !watchNoDB {
		db, err = database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	st, err := newStack(cfg, l, db, nil)
	if err != nil {
		return err
	}

	var replay *source.Memory
	if watchReplay != "" {
		replay = source.NewMemory(cfg.Feed.Buffer())
		st.feedSource = func() feed.Source { return replay }
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	opts, err := st.options(ctx)
	if err != nil {
		return err
	}
	opts.OnSelect = func(e mapping.Entity) {
		fmt.Fprintf(out, "selected %s (%s)\n", e.ID, e.Name)
	}

	s, err := session.New(opts)
	if err != nil {
		return err
	}
	defer s.Teardown()

	if err := s.Initialize(ctx); err != nil {
		return fmt.Errorf("map session failed to initialize: %w", err)
	}
	fmt.Fprintf(out, "session %s ready on %s with %d markers\n", s.ID(), s.Provider(), len(s.Markers()))

	if replay != nil {
		go func() {
			if err := replayFile(replay, watchReplay); err != nil {
				l.Error("Replay failed", zap.Error(err))
			}
		}()
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	prev := toSet(s.Markers())
	degraded := false
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "stopping")
			return nil
		case <-ticker.C:
		}

		cur := toSet(s.Markers())
		for _, k := range diff(cur, prev) {
			fmt.Fprintf(out, "+ %s\n", k)
		}
		for _, k := range diff(prev, cur) {
			fmt.Fprintf(out, "- %s\n", k)
		}
		if err := s.Degraded(); err != nil && !degraded {
			degraded = true
			fmt.Fprintf(out, "degraded: %v\n", err)
		}
		prev = cur
	}
}

// replayFile pushes every non-empty line of path into mem.
func replayFile(mem *source.Memory, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ok, err := mem.Push(feed.Change{Payload: []byte(line)})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	return sc.Err()
}

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// diff returns the sorted keys of a missing from b.
func diff(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
