// Command farmbot plays a Farm Day session through the REST API.
//
// Each day it harvests every mature plant, plants the wettest empty tiles
// (pairing crops with the neighbor they need to mature), and advances the
// day, until the farm has unlocked the requested number of achievements or
// the day limit is reached. The session ID is kept in .farmbot-session so
// later runs resume the same farm.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/farmday/game/engine"
)

const sessionFile = ".farmbot-session"

// playOptions bounds one run
type playOptions struct {
	MaxDays      int
	Achievements int
	Delay        time.Duration
}

// Outcome summarizes a run
type Outcome struct {
	Days         int
	Planted      int
	Harvested    int
	Refused      int
	Achievements []string
	Inventory    engine.Inventory
}

// Won reports whether the achievement goal was met
func (o Outcome) Won(goal int) bool {
	return len(o.Achievements) >= goal
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "farmbot",
		Usage: "Play a Farm Day session until it unlocks achievements",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("FARMDAY_URL")},
			&cli.StringFlag{Name: "scene", Usage: "Scene to play (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.IntFlag{Name: "max-days", Value: 60, Usage: "Days to play before giving up"},
			&cli.IntFlag{Name: "achievements", Value: 1, Usage: "Achievements to unlock"},
			&cli.IntFlag{Name: "reserve", Usage: "Seeds of each crop never planted"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between actions"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: run,
	}
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("farmbot failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool("v") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	logger.Info("connecting to game server", "url", cmd.String("url"))
	client := NewClient(cmd.String("url"))

	state, err := openSession(ctx, client, cmd.String("continue"), cmd.String("scene"), logger)
	if err != nil {
		return err
	}
	logger.Info("farm ready", "session", client.sessionID, "rows", state.Rows, "cols", state.Cols,
		"day", state.Day, "inventory", state.Inventory)

	strategy := NewGreedyStrategy(engine.DefaultRuleSet())
	strategy.Reserve = int(cmd.Int("reserve"))
	opts := playOptions{
		MaxDays:      int(cmd.Int("max-days")),
		Achievements: int(cmd.Int("achievements")),
		Delay:        cmd.Duration("delay"),
	}

	outcome, err := play(ctx, client, strategy, state, opts, logger)
	if err != nil {
		return err
	}

	logger.Info("run finished", "session", client.sessionID, "days", outcome.Days, "planted", outcome.Planted,
		"harvested", outcome.Harvested, "refused", outcome.Refused, "inventory", outcome.Inventory,
		"achievements", outcome.Achievements)
	if !outcome.Won(opts.Achievements) {
		return fmt.Errorf("unlocked %d of %d achievements in %d days", len(outcome.Achievements), opts.Achievements, outcome.Days)
	}
	logger.Info("🎉 goal reached")
	return nil
}

// openSession resumes the given or saved session, or creates a new one and
// remembers it for the next run.
func openSession(ctx context.Context, client *Client, resume, scene string, logger *slog.Logger) (*engine.StateView, error) {
	if resume == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			resume = string(bytes.TrimSpace(data))
		}
	}

	if resume != "" {
		client.sessionID = resume
		state, err := client.GetState(ctx)
		if err == nil {
			logger.Info("🔄 resuming session", "session", resume)
			return state, nil
		}
		logger.Warn("failed to resume session, creating a new one", "session", resume, "error", err)
	}

	state, err := client.CreateSession(ctx, scene)
	if err != nil {
		return nil, err
	}
	logger.Info("✨ session created", "session", client.sessionID)
	if err := os.WriteFile(sessionFile, []byte(client.sessionID), 0644); err != nil {
		logger.Warn("failed to save session ID", "error", err)
	}
	return state, nil
}

// play runs planned days until the goal is met, days run out or ctx ends
func play(ctx context.Context, client *Client, strategy *GreedyStrategy, state *engine.StateView, opts playOptions, logger *slog.Logger) (Outcome, error) {
	var outcome Outcome
	record := func(s *engine.StateView) {
		state = s
		outcome.Achievements = s.Achievements
		outcome.Inventory = s.Inventory
	}
	record(state)

	for outcome.Days < opts.MaxDays && !outcome.Won(opts.Achievements) {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		for _, step := range strategy.Plan(state) {
			result, err := client.Execute(ctx, step)
			if err != nil {
				return outcome, err
			}
			record(result.GameState)
			if !result.Success {
				outcome.Refused++
				logger.Debug("step refused", "action", step.Action, "row", step.Row, "col", step.Col,
					"crop", step.Crop, "reason", result.Reason)
				continue
			}
			switch step.Action {
			case "plant":
				outcome.Planted++
			case "harvest":
				outcome.Harvested++
			}
			if opts.Delay > 0 {
				time.Sleep(opts.Delay)
			}
		}

		result, err := client.AdvanceDay(ctx)
		if err != nil {
			return outcome, err
		}
		if !result.Success {
			return outcome, errors.New("advance day refused: " + result.Message)
		}
		record(result.GameState)
		outcome.Days++
		logger.Debug("day advanced", "day", state.Day, "grown", len(result.Grown), "inventory", state.Inventory)
	}
	return outcome, nil
}
