// Command simulate runs a tournament directly against one or more wasm
// strategy files, with no HTTP server and no persistence -- useful for
// quickly scoring a strategy during development.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aiguy110/pig-pen-harness/internal/pigpen"
	"github.com/aiguy110/pig-pen-harness/internal/sandbox"
	"github.com/aiguy110/pig-pen-harness/internal/tournament"
)

type jsonResult struct {
	BotID           string `json:"bot_id"`
	SeatIndex       int    `json:"seat_index"`
	GamesWon        int    `json:"games_won"`
	NetMoney        int64  `json:"net_money"`
	PeakMemoryBytes uint64 `json:"peak_memory_bytes"`
	Disqualified    bool   `json:"disqualified"`
}

func main() {
	numGames := flag.Int("n", 1_000_000, "number of games to play")
	asJSON := flag.Bool("json", false, "emit machine-readable JSON instead of a summary table")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: simulate [-n games] [-json] <strategy_file>...")
		os.Exit(2)
	}

	host, err := sandbox.NewHost()
	if err != nil {
		log.Fatal().Err(err).Msg("sandbox host initialization failed")
	}

	sources := make([]tournament.BotSource, len(files))
	for i, path := range files {
		wasmBytes, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("failed to read strategy file")
		}
		sources[i] = tournament.BotSource{BotID: path, WasmBytes: wasmBytes}
	}

	participants, err := tournament.Instantiate(host, sources)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to instantiate strategies")
	}

	onProgress := func(gamesCompleted int) {
		log.Debug().Int("gamesCompleted", gamesCompleted).Int("numGames", *numGames).Msg("progress")
	}

	results, err := tournament.Run(participants, *numGames, pigpen.RandomRoller{}, onProgress)
	if err != nil {
		log.Fatal().Err(err).Msg("tournament run failed")
	}

	if *asJSON {
		out := make([]jsonResult, len(results))
		for i, r := range results {
			out[i] = jsonResult{
				BotID:           r.BotID,
				SeatIndex:       r.SeatIndex,
				GamesWon:        r.GamesWon,
				NetMoney:        r.NetMoney,
				PeakMemoryBytes: r.PeakMemoryBytes,
				Disqualified:    r.Disqualified,
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatal().Err(err).Msg("failed to encode JSON results")
		}
		return
	}

	fmt.Printf("%-40s %8s %12s %10s %12s\n", "bot", "won", "net money", "peak mem", "disqualified")
	for _, r := range results {
		fmt.Printf("%-40s %8d %12d %10d %12t\n", r.BotID, r.GamesWon, r.NetMoney, r.PeakMemoryBytes, r.Disqualified)
	}
}
