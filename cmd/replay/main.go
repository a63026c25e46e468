package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/wargame/internal/config"
	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
	"github.com/mitchelldurbincs/wargame/internal/persistence"
	"github.com/mitchelldurbincs/wargame/internal/scenario"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	dbPath := flag.String("db", "", "History database (empty to use config default)")
	gameID := flag.String("game", "", "Game to replay (empty replays the only stored game)")
	list := flag.Bool("list", false, "List stored games and exit")
	dump := flag.Bool("dump", false, "Print every stored entry before replaying")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get()
	if *dbPath == "" {
		*dbPath = cfg.Persistence.Path
	}
	setupLogging(cfg.Logging.Level)

	ctx := context.Background()
	store, err := persistence.Open(*dbPath, *gameID)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dbPath).Msg("Failed to open history store")
	}
	defer store.Close()

	games, err := store.Games(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list games")
	}
	if *list {
		if err := listGames(ctx, os.Stdout, store, games); err != nil {
			log.Fatal().Err(err).Msg("Failed to list games")
		}
		return
	}

	if *gameID == "" {
		if len(games) != 1 {
			log.Fatal().Int("games", len(games)).Msg("Pass -game to choose which game to replay")
		}
		*gameID = games[0]
	}
	store = store.ForGame(*gameID)

	if *dump {
		if err := dumpEntries(ctx, os.Stdout, store); err != nil {
			log.Fatal().Err(err).Msg("Failed to dump history")
		}
	}

	d, err := scenario.Build(scenario.Options{
		EnforceCanals: cfg.Routing.EnforceCanals,
		State:         []state.Option{state.WithGameID(*gameID)},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build scenario")
	}

	start := time.Now()
	n, err := store.Replay(ctx, d)
	if err != nil {
		log.Fatal().Err(err).Int("applied", n).Str("game_id", *gameID).Msg("Replay failed")
	}
	log.Info().
		Str("game_id", *gameID).
		Int("entries", n).
		Dur("duration", time.Since(start)).
		Msg("Replay complete")

	printSummary(os.Stdout, d)
}

func listGames(ctx context.Context, w io.Writer, store *persistence.Store, games []string) error {
	for _, id := range games {
		n, err := store.ForGame(id).Len(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d entries\n", id, n)
	}
	return nil
}

// dumpEntries prints each stored change as indented protojson.
func dumpEntries(ctx context.Context, w io.Writer, store *persistence.Store) error {
	entries, err := store.Entries(ctx, 0)
	if err != nil {
		return err
	}
	opts := protojson.MarshalOptions{Multiline: true, Indent: "  "}
	for _, e := range entries {
		var fields map[string]interface{}
		if err := json.Unmarshal(e.Payload, &fields); err != nil {
			return fmt.Errorf("entry %d: %w", e.Index, err)
		}
		st, err := structpb.NewStruct(fields)
		if err != nil {
			return fmt.Errorf("entry %d: %w", e.Index, err)
		}
		fmt.Fprintf(w, "#%d round %d %s (%s)\n%s\n", e.Index, e.Round, e.Step, e.ChangeType, opts.Format(st))
	}
	return nil
}

func printSummary(w io.Writer, d *state.GameData) {
	seq := d.Sequence()
	fmt.Fprintf(w, "Round %d, step %s\n", seq.Round(), seq.StepName())
	fmt.Fprintf(w, "History: %d changes\n\n", d.History().Len())

	fmt.Fprintln(w, "Players:")
	for _, p := range d.Players().All() {
		var res []string
		for _, name := range p.Resources().Names() {
			res = append(res, fmt.Sprintf("%s=%d", name, p.Resources().Quantity(name)))
		}
		fmt.Fprintf(w, "  %-8s %s, %d unplaced\n", p.Name(), strings.Join(res, " "), p.UnitCount())
	}

	fmt.Fprintln(w, "\nTerritories:")
	for _, t := range d.Map().Territories() {
		owner := t.Owner()
		if t.IsNeutral() {
			owner = "-"
		}
		fmt.Fprintf(w, "  %-16s %-8s %s\n", t.Name(), owner, unitCounts(d, t))
	}
}

// unitCounts renders a holder's units as "2 Germans armour, 1 Soviets infantry".
func unitCounts(d *state.GameData, h core.UnitHolder) string {
	counts := map[string]int{}
	for _, u := range d.UnitsOf(h) {
		counts[u.Owner()+" "+u.Type().TypeName]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d %s", counts[k], k)
	}
	return strings.Join(parts, ", ")
}

func setupLogging(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
