// Package main is the entry point for the Prowler CLI. The binary is a
// thin harness around the decision engine: a demo loop for exercising the
// wiring locally and a stats view over the usage surface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/onikuma-games/prowler/internal/budget"
	"github.com/onikuma-games/prowler/internal/config"
	"github.com/onikuma-games/prowler/internal/engine"
	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/infer"
	"github.com/onikuma-games/prowler/internal/memory"
	"github.com/onikuma-games/prowler/internal/respcache"
	"github.com/onikuma-games/prowler/internal/store"
	"github.com/onikuma-games/prowler/internal/synth"
)

const version = "0.3.0"

var (
	cfgPath string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "prowler",
		Short: "Prowler - personality-driven predator decision engine",
		Long: `Prowler decides what the computer-controlled predator does next:
budget-aware live inference, context-similar response reuse, and a
personality-driven local synthesizer that never fails to act.`,
		PersistentPreRunE: initLogging,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.prowler/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Prowler v%s\n", version)
		},
	})

	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogging(cmd *cobra.Command, args []string) error {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zlog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

// buildEngine wires the full stack from configuration. The SQLite store
// backs both the memory persistence boundary and the usage window.
func buildEngine(cfg *config.Config) (*engine.Engine, *budget.Controller, *store.Store, error) {
	db, err := store.NewDB(cfg.Data.Dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	profiles, err := synth.LoadProfiles(cfg.Engine.ProfilesPath)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("load profiles: %w", err)
	}

	modes := budget.New(budget.Config{
		DailyCallLimit:        cfg.Engine.DailyCallLimit,
		ForceLocal:            cfg.Engine.ForceLocal,
		CachedProbability:     cfg.Engine.CachedProbability,
		CacheQualityThreshold: cfg.Engine.CacheQualityThreshold,
	})

	cache := respcache.New(
		respcache.WithTTL(cfg.Cache.TTL()),
		respcache.WithMaxEntries(cfg.Cache.MaxEntries),
	)

	memories := memory.NewStore(memory.WithPersister(db))

	synthesizer := synth.New(synth.Config{
		CriticalHealth:  cfg.Engine.CriticalHealth,
		GrudgeThreshold: cfg.Engine.GrudgeThreshold,
	}, synth.WithProfiles(profiles))

	provider := infer.NewChatProvider(infer.Config{
		Endpoint:    cfg.Inference.Endpoint,
		APIKey:      cfg.Inference.APIKey,
		Model:       cfg.Inference.Model,
		MaxTokens:   cfg.Inference.MaxTokens,
		Temperature: cfg.Inference.Temperature,
		Timeout:     cfg.Inference.Timeout(),
	})

	return engine.New(provider, modes, cache, memories, synthesizer), modes, db, nil
}

func demoCmd() *cobra.Command {
	var cycles int
	var personality string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run local decision cycles against a synthetic arena",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			// The demo never leaves the process.
			cfg.Engine.ForceLocal = true

			eng, modes, db, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			ctx := context.Background()
			const agentID = "prowler-demo"

			for i := 0; i < cycles; i++ {
				arena := demoContext(agentID, game.Personality(personality), rng)
				d, ok := eng.MakeDecision(ctx, arena)
				if !ok {
					continue
				}
				fmt.Printf("[%d] %-11s target=%-8q conf=%.2f  %s\n", i+1, d.Action, d.TargetID, d.Confidence, d.Monologue)

				if rng.Float64() < 0.4 {
					event := memory.EventHuntSuccess
					if rng.Float64() < 0.5 {
						event = memory.EventEscape
					}
					for _, o := range arena.Opponents {
						eng.RecordEncounter(agentID, o.ID, event, nil, nil)
					}
				}
			}

			if err := db.SaveUsageWindow(ctx, agentID, modes.UsageStats()); err != nil {
				zlog.Warn().Err(err).Msg("usage window not persisted")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cycles, "cycles", 5, "number of decision cycles to run")
	cmd.Flags().StringVar(&personality, "personality", string(game.PersonalityMethodical), "agent personality template")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the persisted usage window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			db, err := store.NewDB(cfg.Data.Dir)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, ok, err := db.LoadUsageWindow(context.Background(), "prowler-demo")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no usage recorded")
				return nil
			}
			out, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// demoContext fabricates a small arena snapshot for one cycle.
func demoContext(agentID string, p game.Personality, rng *rand.Rand) *game.Context {
	times := []game.TimeOfDay{game.TimeDawn, game.TimeDay, game.TimeDusk, game.TimeNight}
	weathers := []game.Weather{game.WeatherClear, game.WeatherRain, game.WeatherFog, game.WeatherStorm}
	names := []string{"Moss", "Harrow", "Tilda", "Vex"}

	opponents := make([]game.Opponent, 0, len(names))
	for i, name := range names {
		if rng.Float64() < 0.3 {
			continue
		}
		opponents = append(opponents, game.Opponent{
			ID:           fmt.Sprintf("opp-%d", i+1),
			Name:         name,
			Position:     game.Point{X: rng.Float64() * 800, Y: rng.Float64() * 600},
			Health:       20 + rng.Float64()*80,
			Speed:        1 + rng.Float64()*2,
			InHazardZone: rng.Float64() < 0.5,
		})
	}

	return &game.Context{
		AgentID:       agentID,
		AgentPosition: game.Point{X: 400, Y: 300},
		AgentHealth:   30 + rng.Float64()*70,
		Personality:   p,
		Opponents:     opponents,
		TimeOfDay:     times[rng.Intn(len(times))],
		Weather:       weathers[rng.Intn(len(weathers))],
	}
}
