package app

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/taskdeck/taskdeck/internal/config"
)

func MustReadEnv() {
	var reader config.Reader = config.NewEnvReader()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		reader = config.NewFileReader(path)
	}

	cfg, err := reader.Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Msg("read env")

	config.SetGlobal(cfg)
}
