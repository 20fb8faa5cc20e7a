// Package logging sets up the process-wide structured logger, scoping
// each running game's log lines with a "game" field instead of a
// hand-built string prefix.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process-wide logger with full timestamps. profile
// controls verbosity: "debug" logs at DebugLevel, anything else logs
// at InfoLevel.
func New(profile string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if profile == "debug" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// ForGame scopes a logger to one running game.
func ForGame(log *logrus.Logger, gameName string) *logrus.Entry {
	return log.WithField("game", gameName)
}
