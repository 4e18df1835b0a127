package logger

import (
	"log"
	"os"
)

// New returns the shared process logger. The scan driver, recheck loop and
// event reconciler all write to it, so lines carry a UTC timestamp and the
// service prefix to stay attributable when interleaved.
func New() *log.Logger {
	return log.New(os.Stdout, "trustd ", log.LstdFlags|log.LUTC|log.Lmsgprefix)
}
