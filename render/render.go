// Package render runs the external chart renderer as a subprocess: the
// generated script goes to its stdin, rendered output is copied to the
// destination artifact and diagnostics to a log sink. Both output streams
// are drained concurrently; blocking on one while the child fills the
// other's pipe buffer would deadlock.
package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// DefaultBinary is the renderer executable looked up on PATH when the
// config names none.
const DefaultBinary = "gnuplot"

// Options configures a render invocation.
type Options struct {
	Binary      string            // renderer executable; DefaultBinary when empty
	Diagnostics func(line string) // receives each stderr line; nil discards
}

// Result reports what happened to one invocation. A non-zero exit status is
// recorded here rather than returned as an error: the artifact produced so
// far is still delivered.
type Result struct {
	BytesWritten    int64
	ExitCode        int
	Complete        bool // full output stream reached the artifact
	DiagnosticLines int
}

// Run spawns the renderer, feeds it the script and routes its streams.
// Errors are limited to spawn/copy failures and an unwritable destination;
// renderer complaints surface through Options.Diagnostics and Result.
func Run(ctx context.Context, scriptText, destPath string, opts Options) (*Result, error) {
	binary := opts.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	dest, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("render: create %s: %w", destPath, err)
	}
	defer dest.Close()

	cmd := exec.CommandContext(ctx, binary)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("render: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("render: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("render: stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("render: start %s: %w", binary, err)
	}

	res := &Result{}
	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		if _, err := io.Copy(stdin, strings.NewReader(scriptText)); err != nil {
			// A renderer that quits before reading the whole script shows
			// up as a broken pipe; its exit status tells the real story.
			if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return fmt.Errorf("write script: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n, err := io.Copy(dest, stdout)
		res.BytesWritten = n
		if err != nil {
			return fmt.Errorf("copy output: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			res.DiagnosticLines++
			if opts.Diagnostics != nil {
				opts.Diagnostics(scanner.Text())
			}
		}
		// A broken stderr pipe is not worth failing the run over.
		return nil
	})

	streamErr := g.Wait()
	waitErr := cmd.Wait()

	res.Complete = streamErr == nil && ctx.Err() == nil
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else if streamErr == nil {
			return res, fmt.Errorf("render: wait: %w", waitErr)
		}
	}
	if streamErr != nil {
		return res, fmt.Errorf("render: %w", streamErr)
	}
	if err := dest.Close(); err != nil {
		res.Complete = false
		return res, fmt.Errorf("render: close %s: %w", destPath, err)
	}
	return res, nil
}
