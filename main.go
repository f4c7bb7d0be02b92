package main

import (
	"os"

	"github.com/spaghettifunk/lumen/cmd"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	assetsFlag := cli.StringFlag{
		Name:  "assets, a",
		Usage: "directory relative asset names resolve against (defaults to the config directory)",
	}

	app := cli.NewApp()
	app.Name = "lumen"
	app.Usage = "render meshes with a bindless rasterizer or a progressive path tracer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML configuration file, reloaded when it changes",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render the configured scene",
			Description: `
Register the configured meshes and images with the render client, then record,
retire and account for one render graph per frame.

F1 selects the standard path, F2 the reference path tracer and R restarts the
accumulation. ESC quits.`,
			Flags: []cli.Flag{
				assetsFlag,
				cli.StringFlag{
					Name:  "backend, b",
					Usage: "graphics backend: headless or vulkan",
				},
				cli.StringFlag{
					Name:  "mode, m",
					Usage: "render path: standard or reference",
				},
				cli.UintFlag{
					Name:  "frames, n",
					Usage: "frames to render before exiting, 0 runs until interrupted",
				},
				cli.StringSliceFlag{
					Name:  "mesh",
					Value: &cli.StringSlice{},
					Usage: "wavefront obj file to load, replaces the configured meshes",
				},
				cli.Float64Flag{
					Name:  "spin",
					Usage: "radians per second the camera yaws",
				},
				cli.StringFlag{
					Name:  "metrics",
					Usage: "serve prometheus metrics on this address",
				},
			},
			Action: cmd.Render,
		},
		{
			Name:   "config",
			Usage:  "print the effective configuration",
			Action: cmd.PrintConfig,
		},
		{
			Name:   "assets",
			Usage:  "list the images and models under the asset root",
			Flags:  []cli.Flag{assetsFlag},
			Action: cmd.ListAssets,
		},
	}

	if err := app.Run(os.Args); err != nil {
		core.LogFatal("%s", err)
	}
}
