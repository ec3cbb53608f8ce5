package delta

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/oneconcern/catsync/pkg/delta/status"

	"go.uber.org/zap"
)

// Placeholders substituted in command line templates
const (
	// PlaceholderIn1 is the first input: the original catalog for both diff and patch
	PlaceholderIn1 = "$in1"

	// PlaceholderIn2 is the second input of diff: the edited catalog
	PlaceholderIn2 = "$in2"

	// PlaceholderPatch is the delta given to patch
	PlaceholderPatch = "$patch"

	// PlaceholderOut is the output of both commands
	PlaceholderOut = "$out"
)

var _ Tool = &Command{}

// Command runs external diff and patch programs through the shell.
//
// Paths are quoted for the shell when substituted, so templates must not
// quote placeholders themselves.
//
// For example, with bsdiff installed:
//
//	DiffCmd:  "bsdiff $in1 $in2 $out"
//	PatchCmd: "bspatch $in1 $out $patch"
type Command struct {
	DiffCmd  string
	PatchCmd string

	l *zap.Logger
}

// NewCommand builds a tool from diff and patch templates
func NewCommand(diffCmd, patchCmd string, l *zap.Logger) *Command {
	if l == nil {
		l = zap.NewNop()
	}
	return &Command{DiffCmd: diffCmd, PatchCmd: patchCmd, l: l}
}

// Diff runs the diff command
func (c *Command) Diff(ctx context.Context, first, second, out string) error {
	line := expand(c.DiffCmd, PlaceholderIn1, first, PlaceholderIn2, second, PlaceholderOut, out)
	return c.run(ctx, "diff", line)
}

// Patch runs the patch command
func (c *Command) Patch(ctx context.Context, input, delta, out string) error {
	line := expand(c.PatchCmd, PlaceholderIn1, input, PlaceholderPatch, delta, PlaceholderOut, out)
	return c.run(ctx, "patch", line)
}

func expand(template string, pairs ...string) string {
	for i := 1; i < len(pairs); i += 2 {
		pairs[i] = quote(pairs[i])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func quote(path string) string {
	if runtime.GOOS == "windows" {
		return `"` + path + `"`
	}
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

func (c *Command) run(ctx context.Context, what, line string) error {
	if strings.TrimSpace(line) == "" {
		return status.ErrNoCommand.Wrapf("%s", what)
	}
	c.l.Info(what, zap.String("command", line))

	cmd := shell(ctx, line)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return status.ErrCommand.Wrapf("%s %q: %v: %s", what, line, err, strings.TrimSpace(output.String()))
	}
	if output.Len() > 0 {
		c.l.Debug(what+" output", zap.String("output", output.String()))
	}
	return nil
}

func shell(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", line)
	}
	return exec.CommandContext(ctx, "sh", "-c", line)
}
