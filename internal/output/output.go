// Package output renders tidy's CLI output: status lines, an in-place
// progress indicator on terminals, and confirmation prompts.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"tidy/internal/engine"
)

// Config holds output configuration.
type Config struct {
	Verbose   bool      // print one line per file instead of a progress counter
	Writer    io.Writer // default: os.Stdout
	ErrWriter io.Writer // default: os.Stderr
	Input     io.Reader // answers for Confirm; default: os.Stdin
	IsTTY     bool
}

// Output handles formatted output with verbose and progress support.
type Output struct {
	config     Config
	in         *bufio.Reader
	mu         sync.Mutex
	active     bool
	lineLength int
}

// New creates a new Output instance with the given configuration.
func New(config Config) *Output {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.ErrWriter == nil {
		config.ErrWriter = os.Stderr
	}
	if config.Input == nil {
		config.Input = os.Stdin
	}
	return &Output{config: config, in: bufio.NewReader(config.Input)}
}

// DefaultConfig returns a Config writing to the process streams, with TTY detection.
func DefaultConfig() Config {
	return Config{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Input:     os.Stdin,
		IsTTY:     term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func line(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	return msg
}

// Verbose prints a message only when verbose mode is enabled.
func (o *Output) Verbose(format string, args ...any) {
	if !o.config.Verbose {
		return
	}
	o.clearProgressLine()
	fmt.Fprint(o.config.Writer, line(format, args...))
}

// Info prints an informational message (always shown).
func (o *Output) Info(format string, args ...any) {
	o.clearProgressLine()
	fmt.Fprint(o.config.Writer, line(format, args...))
}

// Error prints an error message to stderr.
func (o *Output) Error(format string, args ...any) {
	o.clearProgressLine()
	fmt.Fprint(o.config.ErrWriter, line(format, args...))
}

func (o *Output) clearProgressLine() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clearLocked()
}

func (o *Output) clearLocked() {
	if o.active && o.config.IsTTY && o.lineLength > 0 {
		fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", o.lineLength)+"\r")
		o.lineLength = 0
	}
}

func (o *Output) progressEnabled() bool {
	return o.config.IsTTY && !o.config.Verbose
}

// UpdateProgress redraws the progress line, e.g. "Organizing files 3/10 photo.jpg".
func (o *Output) UpdateProgress(current, total int, label, name string) {
	if !o.progressEnabled() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = true
	msg := fmt.Sprintf("%s %d/%d %s", strings.TrimSuffix(label, "..."), current, total, name)
	o.clearLocked()
	fmt.Fprint(o.config.Writer, "\r"+msg)
	o.lineLength = len(msg)
}

// EndProgress clears the progress indicator.
func (o *Output) EndProgress() {
	if !o.progressEnabled() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clearLocked()
	o.active = false
}

// Render consumes events from engine.Start until the channel closes and
// returns the final outcome. Stage messages are printed as they arrive.
func (o *Output) Render(events <-chan engine.Event) (*engine.Outcome, error) {
	var (
		out   *engine.Outcome
		err   error
		label string
	)
	for ev := range events {
		switch ev.Type {
		case engine.EventStage:
			o.EndProgress()
			label = ev.Message
			o.Info("%s", ev.Message)
		case engine.EventProgress:
			p := ev.Progress
			if p.Skipped {
				o.Verbose("  skipped %s", p.Name)
			} else {
				o.Verbose("  %s → %s", p.Name, p.Destination)
			}
			o.UpdateProgress(p.Index, p.Total, label, p.Name)
		case engine.EventDone:
			o.EndProgress()
			out, err = ev.Outcome, ev.Err
		}
	}
	return out, err
}

// Confirm asks a yes/no question and reports whether the answer was yes.
// Anything other than y or yes, including EOF, is a no.
func (o *Output) Confirm(question string) bool {
	o.clearProgressLine()
	fmt.Fprintf(o.config.Writer, "%s [y/N]: ", question)
	answer, _ := o.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// IsVerbose returns whether verbose mode is enabled.
func (o *Output) IsVerbose() bool {
	return o.config.Verbose
}

// IsTTY returns whether the output is a terminal.
func (o *Output) IsTTY() bool {
	return o.config.IsTTY
}
