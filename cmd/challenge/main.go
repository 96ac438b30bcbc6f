package main

import (
	"context"
	"os"

	"github.com/pondermatic/strategy11-challenge/src/app"
	"github.com/pondermatic/strategy11-challenge/src/cli"
	"github.com/rs/zerolog"
)

func main() {
	root := cli.NewRootCommand(loadRuntime)

	// Logs go to stderr; only warnings and above unless LOG_LEVEL says otherwise
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = zerolog.LevelWarnValue
	}
	logger := app.NewLogger(os.Stderr, level)

	if err := root.ExecuteContext(logger.WithContext(context.Background())); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func loadRuntime(ctx context.Context) (*cli.Runtime, func(), error) {
	if err := app.LoadEnvFile(".env"); err != nil {
		return nil, nil, err
	}

	config, err := app.NewAppConfig()
	if err != nil {
		return nil, nil, err
	}

	application, err := app.NewApplication(ctx, *config)
	if err != nil {
		return nil, nil, err
	}

	return &cli.Runtime{
			Service:   application.ChallengeService,
			Presenter: application.Presenter,
			Backend:   string(application.Backend()),
		}, func() {
			application.Shutdown(ctx)
		}, nil
}
