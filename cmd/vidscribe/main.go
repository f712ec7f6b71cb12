package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/mudler/xlog"

	"vidscribe/pkg/config"
)

// Context holds the flags shared by every command.
type Context struct {
	LogLevel  string `env:"VIDSCRIBE_LOG_LEVEL" default:"info" enum:"error,warn,info,debug" help:"Set the level of logs to output [${enum}]"`
	LogFormat string `env:"VIDSCRIBE_LOG_FORMAT" default:"default" enum:"default,text,json" help:"Set the format of logs to output [${enum}]"`
	Config    string `env:"VIDSCRIBE_CONFIG" help:"Path to the config file (default ~/.vidscribe/config.json)"`
}

var CLI struct {
	Context `embed:""`

	Transcribe TranscribeCMD `cmd:"" help:"Transcribe a video or audio file, this is the default command" default:"withargs"`
	Configure  ConfigureCMD  `cmd:"" help:"Interactively set up providers and credentials"`
	Watch      WatchCMD      `cmd:"" help:"Transcribe new media files that appear in a directory"`
	History    HistoryCMD    `cmd:"" help:"Show recent transcription runs"`
}

func main() {
	// Initialize xlog at a level of INFO, we will set the desired level after we parse the CLI options
	xlog.SetLogger(xlog.NewLogger(xlog.LogLevel("info"), "text"))

	config.LoadDotEnv()

	ctx := kong.Parse(&CLI,
		kong.Name("vidscribe"),
		kong.Description("Extract the speech from a video or audio file into <name>_transcription.txt next to it."),
		kong.UsageOnError(),
		// Every failure, usage errors included, exits with status 1.
		kong.Exit(func(code int) {
			if code != 0 {
				code = 1
			}
			os.Exit(code)
		}),
	)

	xlog.SetLogger(xlog.NewLogger(xlog.LogLevel(CLI.LogLevel), CLI.LogFormat))

	if err := ctx.Run(&CLI.Context); err != nil {
		xlog.Error("vidscribe failed", "error", err)
		os.Exit(1)
	}
}
