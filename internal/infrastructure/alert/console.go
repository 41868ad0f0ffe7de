package alert

import (
	"context"
	"fmt"
	"io"
	"os"

	"finnews/internal/ports"
)

// ConsoleSink writes alert lines to a writer, stdout by default. It is the
// only outbound alert channel; the dashboard reads the store instead.
type ConsoleSink struct {
	out io.Writer
}

var _ ports.AlertSink = (*ConsoleSink)(nil)

// NewConsoleSink wires the target writer; nil defaults to stdout.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{out: out}
}

// Alert prints one alert line for a positive or negative headline.
func (s *ConsoleSink) Alert(_ context.Context, title, label string) error {
	_, err := fmt.Fprintf(s.out, "ALERT: %s has a %s sentiment.\n", title, label)
	return err
}
