package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/fubuki/internal"
	"github.com/starford/fubuki/internal/windows"
	pkgconfig "github.com/starford/fubuki/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func serve(mode internal.Mode) func(context.Context, *cli.Command) error {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithMode(mode),
			internal.WithVersion(version),
		}

		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func detect(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var src windows.Source = windows.NewCommand(windows.WithCommand(cfg.Recognition.WindowCommand))
	if cmd.Args().Present() {
		src = windows.Static(cmd.Args().Slice())
	}

	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	d, err := internal.Detect(ctx, cfg, src, logger)
	if err != nil {
		return err
	}
	if useTable(os.Stdout, cmd.Bool("json")) {
		_, err = fmt.Fprint(os.Stdout, renderDetection(d))
		return err
	}
	return writeJSON(os.Stdout, d)
}

func history(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	records, err := internal.RecentUpdates(ctx, cfg, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if useTable(os.Stdout, cmd.Bool("json")) {
		_, err = fmt.Fprint(os.Stdout, renderHistory(records))
		return err
	}
	return writeJSON(os.Stdout, records)
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print JSON even on a terminal",
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "fubuki",
		Usage:   "Recognize the anime or manga on screen and keep the AniList list in sync",
		Version: version,
		Action:  serve(internal.ModeServe),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("FUBUKI_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Track open windows and serve the local HTTP API",
				Action: serve(internal.ModeServe),
			},
			{
				Name:   "mcp",
				Usage:  "Track open windows and serve MCP tools over stdio",
				Action: serve(internal.ModeMCP),
			},
			{
				Name:      "detect",
				Usage:     "Recognize the given titles, or the open windows, once and print JSON",
				ArgsUsage: "[title...]",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    detect,
			},
			{
				Name:  "history",
				Usage: "Show recent list updates",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of records to show",
						Value: 20,
					},
				},
				Action: history,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
