// Package clipboard copies text to the tmux buffer, the system clipboard and
// the terminal through OSC 52.
package clipboard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoTarget is returned when no clipboard target could be used.
var ErrNoTarget = errors.New("no clipboard target available")

// Target is one clipboard destination.
type Target interface {
	Name() string
	Available() bool
	Copy(text string) error
}

// runner executes a clipboard tool with text on stdin.
type runner func(name string, args []string, stdin string) error

func runCommand(name string, args []string, stdin string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	return cmd.Run()
}

func inTmux() bool {
	return os.Getenv("TMUX") != ""
}

// Tmux loads text into the tmux paste buffer.
type Tmux struct {
	run runner
}

func (Tmux) Name() string    { return "tmux" }
func (Tmux) Available() bool { return inTmux() }

func (t Tmux) Copy(text string) error {
	run := t.run
	if run == nil {
		run = runCommand
	}
	return run("tmux", []string{"load-buffer", "-"}, text)
}

type tool struct {
	name string
	args []string
}

var systemTools = map[string][]tool{
	"darwin":  {{name: "pbcopy"}},
	"linux":   {{name: "wl-copy"}, {name: "xclip", args: []string{"-selection", "clipboard"}}, {name: "xsel", args: []string{"--clipboard", "--input"}}},
	"windows": {{name: "clip"}},
}

// System pipes text into the first clipboard tool found on PATH.
type System struct {
	run      runner
	lookPath func(string) (string, error)
}

func (System) Name() string { return "system" }

func (s System) tool() (tool, bool) {
	lookPath := s.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, t := range systemTools[runtime.GOOS] {
		if _, err := lookPath(t.name); err == nil {
			return t, true
		}
	}
	return tool{}, false
}

func (s System) Available() bool {
	_, ok := s.tool()
	return ok
}

func (s System) Copy(text string) error {
	t, ok := s.tool()
	if !ok {
		return fmt.Errorf("no system clipboard tool on %s", runtime.GOOS)
	}
	run := s.run
	if run == nil {
		run = runCommand
	}
	return run(t.name, t.args, text)
}

// OSC52 asks the terminal to set its clipboard. Inside tmux the sequence is
// wrapped in a DCS passthrough.
type OSC52 struct {
	Output io.Writer
	Tmux   bool
}

func (OSC52) Name() string    { return "osc52" }
func (OSC52) Available() bool { return true }

// Sequence returns the escape sequence that copies text.
func (o OSC52) Sequence(text string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	if o.Tmux {
		return "\x1bPtmux;\x1b\x1b]52;c;" + encoded + "\a\x1b\\"
	}
	return "\x1b]52;c;" + encoded + "\a"
}

func (o OSC52) Copy(text string) error {
	_, err := io.WriteString(o.Output, o.Sequence(text))
	return err
}

// Clipboard copies to every available target.
type Clipboard struct {
	targets []Target
}

// New returns a clipboard over targets, or over the tmux buffer, the system
// clipboard and OSC 52 on stderr when none are given.
func New(targets ...Target) *Clipboard {
	if len(targets) == 0 {
		targets = []Target{Tmux{}, System{}, OSC52{Output: os.Stderr, Tmux: inTmux()}}
	}
	return &Clipboard{targets: targets}
}

// Copy writes text to each available target. It succeeds when at least one
// target took the text.
func (c *Clipboard) Copy(text string) error {
	var errs []error
	copied := false
	for _, t := range c.targets {
		if !t.Available() {
			continue
		}
		if err := t.Copy(text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
			continue
		}
		copied = true
	}
	if copied {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoTarget
	}
	return errors.Join(errs...)
}
