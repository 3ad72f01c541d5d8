// Command bot joins a marble race room over WebSocket and plays greedy moves.
//
//	bot --url ws://localhost:8080/ws --name Bot                 # create a two seat room
//	bot --room <id> --name Bot2                                 # join an existing room
//	bot --capacity 3 --geometry standard --think 1s             # slower, bigger room
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "play a marble race game automatically",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "ws://localhost:8080/ws",
				Usage:   "server WebSocket endpoint",
				Sources: cli.EnvVars("MARBLE_URL"),
			},
			&cli.StringFlag{
				Name:  "name",
				Value: "Bot",
				Usage: "player name",
			},
			&cli.StringFlag{
				Name:  "room",
				Usage: "room to join (creates a room when empty)",
			},
			&cli.IntFlag{
				Name:  "capacity",
				Value: 2,
				Usage: "seats in a created room",
			},
			&cli.StringFlag{
				Name:  "geometry",
				Usage: "board geometry for a created room (server default when empty)",
			},
			&cli.DurationFlag{
				Name:  "think",
				Value: 500 * time.Millisecond,
				Usage: "pause before each move",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log every event",
			},
		},
		Action: runBot,
	}
}

func runBot(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	bot, err := NewBot(Config{
		URL:      cmd.String("url"),
		Name:     cmd.String("name"),
		RoomID:   cmd.String("room"),
		Capacity: cmd.Int("capacity"),
		Geometry: cmd.String("geometry"),
		Think:    cmd.Duration("think"),
	})
	if err != nil {
		return err
	}

	go func() {
		if roomID, ok := <-bot.Joined(); ok {
			fmt.Printf("Playing in room %s\n", roomID)
		}
	}()

	return bot.Run(ctx)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
