package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	shortcodes "github.com/riverfjs/shortcodes-go"
	"github.com/riverfjs/shortcodes-go/builtin"
	"github.com/riverfjs/shortcodes-go/mdbook"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:      "config",
		Usage:     "Config file (TOML, YAML or JSON) with the preprocessor settings",
		Aliases:   []string{"c"},
		TakesFile: true,
	}
}

func loadConfig(ctx *cli.Context) (mdbook.Config, error) {
	if path := ctx.String("config"); path != "" {
		return mdbook.LoadConfig(path)
	}
	return mdbook.DefaultConfig(), nil
}

func newSupportsCmd() *cli.Command {
	return &cli.Command{
		Name:      "supports",
		Usage:     "Exit 0 when the renderer is supported",
		ArgsUsage: "RENDERER",
		Flags:     []cli.Flag{configFlag()},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return cli.Exit("supports: want exactly one renderer", 2)
			}
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if !cfg.Supports(ctx.Args().First()) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func newRenderCmd() *cli.Command {
	var (
		strict bool
		write  bool
	)
	return &cli.Command{
		Name:      "render",
		Usage:     "Expand shortcodes in markdown files",
		ArgsUsage: "FILE... (or '-' for stdin)",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "Fail on any malformed, unknown or failing shortcode",
				Destination: &strict,
			},
			&cli.BoolFlag{
				Name:        "write",
				Usage:       "Rewrite the files in place instead of printing them",
				Aliases:     []string{"w"},
				Destination: &write,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if strict {
				cfg.Strict = true
			}
			reg, err := builtin.NewRegistry(cfg.Builtins())
			if err != nil {
				return err
			}

			files := ctx.Args().Slice()
			if len(files) == 0 {
				files = []string{"-"}
			}
			var failed int
			for _, path := range files {
				if err := renderFile(ctx, reg, cfg, path, write); err != nil {
					var pe *shortcodes.ProcessError
					if !errors.As(err, &pe) {
						return err
					}
					failed++
				}
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("render: %d of %d files failed", failed, len(files)), 1)
			}
			return nil
		},
	}
}

func renderFile(ctx *cli.Context, reg *shortcodes.Registry, cfg mdbook.Config, path string, write bool) error {
	var (
		data []byte
		err  error
		mode os.FileMode = 0o644
	)
	if path == "-" {
		data, err = io.ReadAll(ctx.App.Reader)
	} else {
		var fi os.FileInfo
		if fi, err = os.Stat(path); err == nil {
			mode = fi.Mode().Perm()
			data, err = os.ReadFile(path)
		}
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	id := path
	if path == "-" {
		id = "<stdin>"
	}
	res, err := shortcodes.Process(shortcodes.Document{ID: id, Text: string(data)}, reg, cfg.Options()...)
	for _, d := range res.Diagnostics {
		mdbook.LogDiagnostic(mdbook.Logger, d)
	}
	if err != nil {
		return err
	}

	if write && path != "-" {
		if res.Output == string(data) {
			return nil
		}
		return errors.Wrapf(os.WriteFile(path, []byte(res.Output), mode), "write %s", path)
	}
	_, err = io.WriteString(ctx.App.Writer, res.Output)
	return err
}

func newListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the built-in shortcodes",
		Action: func(ctx *cli.Context) error {
			w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tUSAGE")
			for _, info := range builtin.List() {
				kind := "inline"
				if info.Block {
					kind = "block"
				}
				fmt.Fprintf(w, "%s\t%s\t%q\n", info.Name, kind, info.Usage)
			}
			return w.Flush()
		},
	}
}
