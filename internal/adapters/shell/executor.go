// Package shell provides the process-based stage executor.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs the stage in the project root.
//
// The program is the node's explicit command, else the runner registered for
// the source extension followed by the source path, else the source itself.
// The environment is the process environment, then the RIPPLE_* variables
// describing the project and the stage, then the node's own overrides.
func (e *Executor) Execute(ctx context.Context, req *domain.StageRequest) error {
	argv, err := Argv(req)
	if err != nil {
		return err
	}

	cmdEnv := resolveEnvironment(os.Environ(), StageEnv(req), req.Env)

	name := argv[0]
	executable := name
	switch {
	case filepath.IsAbs(name):
	case strings.ContainsAny(name, `/\`):
		// Relative paths are relative to the project root, not the caller.
		executable = req.Project.Abs(name)
	default:
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // declared stage command

	// Keep the name as declared in Args[0].
	cmd.Args[0] = name
	cmd.Dir = req.Project.Root
	cmd.Env = cmdEnv

	stdoutLog := &logWriter{logger: e.logger, node: req.NodeID, stderr: false}
	stderrLog := &logWriter{logger: e.logger, node: req.NodeID, stderr: true}
	defer func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}()

	cmd.Stdout = teeWriter(stdoutLog, req.Stdout)
	cmd.Stderr = teeWriter(stderrLog, req.Stderr)

	if err := cmd.Run(); err != nil {
		exitCode := -1 // Unknown or signal
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}

	return nil
}

// Argv derives the program and arguments of a stage.
func Argv(req *domain.StageRequest) ([]string, error) {
	if len(req.Command) > 0 {
		return append([]string(nil), req.Command...), nil
	}
	if req.Source == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrNoCommand, "cannot run stage"), "node", req.NodeID)
	}
	if runner, ok := req.Project.RunnerFor(req.Source); ok && len(runner) > 0 {
		argv := append([]string(nil), runner...)
		return append(argv, req.Source), nil
	}
	src := req.Source
	if !filepath.IsAbs(src) && !strings.Contains(src, "/") {
		src = "./" + src
	}
	return []string{src}, nil
}

// StageEnv returns the RIPPLE_* variables handed to every stage.
// Path lists use the OS path-list separator.
func StageEnv(req *domain.StageRequest) map[string]string {
	sep := string(os.PathListSeparator)
	env := map[string]string{
		"RIPPLE_ROOT":    req.Project.Root,
		"RIPPLE_NODE":    req.NodeID,
		"RIPPLE_SOURCE":  req.Source,
		"RIPPLE_INPUTS":  strings.Join(req.Inputs, sep),
		"RIPPLE_OUTPUTS": strings.Join(req.Outputs, sep),
	}
	for name, p := range req.Project.Paths {
		env["RIPPLE_PATH_"+envName(name)] = req.Project.Abs(p)
	}
	return env
}

// envName upper-cases a path name and replaces anything but letters and
// digits with underscores.
func envName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
}

func teeWriter(log io.Writer, w io.Writer) io.Writer {
	if w == nil {
		return log
	}
	return io.MultiWriter(log, w)
}

// logWriter forwards complete lines to the logger and buffers partial ones.
type logWriter struct {
	logger ports.Logger
	node   string
	stderr bool
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if w.stderr {
		w.logger.Warn(msg, "node", w.node)
		return
	}
	w.logger.Info(msg, "node", w.node)
}

// resolveEnvironment merges environment variables, later layers winning.
func resolveEnvironment(sysEnv []string, stageEnv, nodeEnv map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(stageEnv)+len(nodeEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range stageEnv {
		envMap[k] = v
	}
	for k, v := range nodeEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
