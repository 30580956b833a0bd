package helper

import (
	"os"

	"github.com/phuslu/log"
)

var Log log.Logger = log.Logger{
	Level: log.InfoLevel,
	Writer: &log.ConsoleWriter{
		Writer:      os.Stderr,
		ColorOutput: true,
	},
}

// SetLevel changes the level of the process logger. Unknown names fall back to info.
func SetLevel(name string) {
	Log.SetLevel(log.ParseLevel(name))
}
