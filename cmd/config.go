package cmd

import (
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/urfave/cli"
)

// loadConfig reads the file named by the global --config flag, or returns the
// defaults when none is given. Global flags override the file.
func loadConfig(ctx *cli.Context) (*config.Config, string, error) {
	path := ctx.GlobalString("config")

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	switch {
	case ctx.GlobalBool("vv"):
		cfg.Log.Level = "debug"
	case ctx.GlobalBool("v") && cfg.Log.Level != "debug":
		cfg.Log.Level = "info"
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// PrintConfig writes the effective configuration as TOML.
func PrintConfig(ctx *cli.Context) error {
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(data)
	return err
}
