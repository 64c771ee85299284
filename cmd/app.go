// Package cmd implements the rebal command line.
package cmd

import (
	"flag"
	"os"
	"sync"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment variables read by rebal.
const (
	EnvLogLevel = "REBAL_LOG_LEVEL"
	EnvConfig   = "REBAL_CONFIG"
	EnvVerbose  = "REBAL_VERBOSE"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	logLevel = flag.String("log-level", "", "Log level: debug, info, warn or error. Defaults to $"+EnvLogLevel+" or warn.")
	Verbose  = flag.Bool("v", false, "Pretty print logs on the console.")
)

// Commands lists every rebal subcommand.
var Commands = []subcommands.Command{
	&planCmd{},
	&checkCmd{},
	&pricesCmd{},
	&explainCmd{},
	&topicCmd{},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, "")
	}
	c.Register(c.HelpCommand(), "help")
	c.Register(c.FlagsCommand(), "help")
	c.Register(c.CommandsCommand(), "help")
}

// LoadEnv loads a .env file from the working directory, if any. Variables
// already set take precedence.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger().Warn().Err(err).Msg("cannot load .env")
	}
}

var (
	loggerOnce sync.Once
	log        zerolog.Logger
)

// logger returns the logger configured by the global flags. It writes to stderr.
func logger() zerolog.Logger {
	loggerOnce.Do(func() {
		name := *logLevel
		if name == "" {
			name = os.Getenv(EnvLogLevel)
		}
		level := zerolog.WarnLevel
		switch name {
		case "debug":
			level = zerolog.DebugLevel
		case "info":
			level = zerolog.InfoLevel
		case "error":
			level = zerolog.ErrorLevel
		}
		if *Verbose {
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		} else {
			log = zerolog.New(os.Stderr)
		}
		log = log.Level(level).With().Timestamp().Logger()
	})
	return log
}
