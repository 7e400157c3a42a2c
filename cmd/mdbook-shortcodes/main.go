// Command mdbook-shortcodes expands shortcodes in mdbook chapters.
//
// As an mdbook preprocessor:
//
//	[preprocessor.shortcodes]
//	command = "mdbook-shortcodes"
//
// Standalone:
//
//	mdbook-shortcodes render --write docs/*.md
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/riverfjs/shortcodes-go/mdbook"
)

const version = "0.1.0"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exit.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "mdbook-shortcodes:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "mdbook-shortcodes",
		Usage:     "mdbook preprocessor expanding {{% name %}} shortcodes",
		UsageText: "mdbook-shortcodes [global options] [command]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "warn",
				EnvVars: []string{"MDBOOK_SHORTCODES_LOG"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "console or json",
				Value: "console",
			},
		},
		Before: setupLogger,
		After: func(ctx *cli.Context) error {
			_ = mdbook.Logger.Sync()
			return nil
		},
		Action: runPreprocessor,
		Commands: []*cli.Command{
			newSupportsCmd(),
			newRenderCmd(),
			newListCmd(),
		},
		// main handles exit codes so that tests can run the app
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// setupLogger 日志写到 stderr，stdout 留给 book JSON
func setupLogger(ctx *cli.Context) error {
	logger, err := newLogger(ctx.App.ErrWriter, ctx.String("log-level"), ctx.String("log-format"))
	if err != nil {
		return err
	}
	mdbook.SetLogger(logger)
	return nil
}

func newLogger(w io.Writer, level, format string) (*zap.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrap(err, "--log-level")
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch format {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, errors.Errorf("unknown log format %q, want console or json", format)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), lvl)), nil
}

// runPreprocessor 默认动作：mdbook 预处理协议
func runPreprocessor(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		return cli.Exit(fmt.Sprintf("unknown command %q", ctx.Args().First()), 2)
	}
	return mdbook.Run(ctx.Context, ctx.App.Reader, ctx.App.Writer, nil)
}
