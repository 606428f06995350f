package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/ajs/lang"
	"github.com/ardnew/ajs/log"
)

const (
	defaultEditor = "vi"
	editIndent    = 2
)

// editCommand implements [tea.ExecCommand] for the edit-parse-retry loop. It
// writes the session script to a temp file, opens the user's editor, and
// parses the result. On parse error the user is prompted to re-edit;
// declining exits the program.
type editCommand struct {
	session *session
	ctxFunc func() context.Context
	newAST  *lang.AST
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-parse-retry loop. An emptied file cancels the edit
// and leaves newAST nil. If the user declines to re-edit after a parse
// error, it returns [ErrEditDeclined].
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := c.session.source(ctx, editIndent)
	if err != nil {
		return fmt.Errorf("format script: %w", err)
	}

	f, err := os.CreateTemp(os.TempDir(), "ajs-repl-*.ajs")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		if strings.TrimSpace(data) == "" {
			return nil
		}

		ast, parseErr := lang.ParseString(ctx, data, lang.WithLogger(c.logger))
		c.logger.TraceContext(
			ctx,
			"editor parse attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			c.newAST = ast

			return nil
		}

		fmt.Fprintf(c.stderr, "\nParse error: %s\n", parseErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		if !confirm(c.stdin) {
			return ErrEditDeclined
		}

		content = data
	}
}

// confirm reads one answer line from r. Anything but "n" or "no" confirms.
func confirm(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "n", "no":
		return false
	}

	return true
}

// runEditor launches $EDITOR on path and returns the edited file content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	fields := strings.Fields(editor)

	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
