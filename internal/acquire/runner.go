package acquire

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability. onLine is
// invoked for every output line as it is produced, letting callers parse
// download progress while the tool runs. Invocations are serialized, so
// callbacks may keep unsynchronized state.
type commandRunner interface {
	Run(ctx context.Context, onLine func(line string), name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command, streaming combined output lines to onLine
// and capturing stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, onLine func(line string), name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	var wg sync.WaitGroup

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return commandResult{ExitCode: -1}, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return commandResult{ExitCode: -1}, err
	}

	if err := cmd.Start(); err != nil {
		return commandResult{ExitCode: -1}, err
	}

	// Both pipes feed the same callback; the mutex keeps the serialized
	// invocation contract of commandRunner.
	var lineMu sync.Mutex
	scan := func(src io.Reader, sink *bytes.Buffer) {
		defer wg.Done()
		scanner := bufio.NewScanner(src)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			sink.WriteString(line)
			sink.WriteByte('\n')
			if onLine != nil {
				lineMu.Lock()
				onLine(line)
				lineMu.Unlock()
			}
		}
	}

	wg.Add(2)
	go scan(stdoutPipe, &stdout)
	go scan(stderrPipe, &stderr)
	wg.Wait()

	runErr := cmd.Wait()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if runErr != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, runErr
	}

	return result, nil
}
