package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// State represents the lifecycle state of a process
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateExited
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

var (
	// ErrSpawn wraps every failure to launch the child
	ErrSpawn = errors.New("spawn failed")
	// ErrNotRunning is returned for writes to a process that is not running
	ErrNotRunning = errors.New("process not running")
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("process already started")
)

const (
	readChunkSize      = 32 * 1024
	defaultKillGrace   = 3 * time.Second
	defaultDrainGrace  = 250 * time.Millisecond
	exitCodeNotStarted = -1
)

// Spec describes the command to spawn
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // appended to the parent environment
}

// ExitStatus describes how a process ended
type ExitStatus struct {
	Code   int
	Signal string
}

// String renders the status the way terminal viewers see it
func (s ExitStatus) String() string {
	if s.Signal != "" {
		return fmt.Sprintf("Process terminated by signal %s", s.Signal)
	}
	return fmt.Sprintf("Process exited with code %d", s.Code)
}

// Handlers receive process notifications. Nil handlers are ignored.
// OnStdout and OnStderr may be called concurrently with each other.
type Handlers struct {
	OnStdout func(chunk string)
	OnStderr func(chunk string)
	OnExit   func(status ExitStatus)
	OnError  func(err error)
}

// Option configures a Process
type Option func(*Process)

// WithKillGrace sets how long Terminate waits before escalating to a kill
func WithKillGrace(d time.Duration) Option {
	return func(p *Process) {
		if d > 0 {
			p.killGrace = d
		}
	}
}

// WithDrainGrace sets how long output is still read after the process has
// exited. Background jobs can hold the pipes open indefinitely.
func WithDrainGrace(d time.Duration) Option {
	return func(p *Process) {
		if d > 0 {
			p.drainGrace = d
		}
	}
}

// WithLogger sets the logger used for supervision messages
func WithLogger(logger *zap.Logger) Option {
	return func(p *Process) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Process is a supervised child process with piped stdio
type Process struct {
	spec     Spec
	cmd      *exec.Cmd
	handlers Handlers

	// Parent ends of the stdio pipes
	stdin  *os.File
	stdout *os.File
	stderr *os.File
	// Child ends, closed in the parent once the child has started
	childFiles []*os.File

	stdinMu sync.Mutex

	state      atomic.Int32
	exitCode   atomic.Int32
	done       chan struct{}
	startOnce  sync.Once
	killGrace  time.Duration
	drainGrace time.Duration
	logger     *zap.Logger
}

// New prepares a process without starting it
func New(spec Spec, handlers Handlers, opts ...Option) (*Process, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("%w: empty command", ErrSpawn)
	}

	path, err := exec.LookPath(spec.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	if spec.Dir != "" {
		info, err := os.Stat(spec.Dir)
		if err != nil {
			return nil, fmt.Errorf("%w: working directory: %v", ErrSpawn, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: working directory %s is not a directory", ErrSpawn, spec.Dir)
		}
	}

	cmd := exec.Command(path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.SysProcAttr = sysProcAttr()

	p := &Process{
		spec:      spec,
		cmd:       cmd,
		handlers:  handlers,
		done:       make(chan struct{}),
		killGrace:  defaultKillGrace,
		drainGrace: defaultDrainGrace,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(exitCodeNotStarted)

	// The child gets the raw pipe files so cmd.Wait returns when the child
	// exits rather than when every holder of its stdout has let go.
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrSpawn, err)
	}
	p.stdin = stdinW
	p.childFiles = append(p.childFiles, stdinR)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		p.closePipes()
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrSpawn, err)
	}
	p.stdout = stdoutR
	p.childFiles = append(p.childFiles, stdoutW)

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		p.closePipes()
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrSpawn, err)
	}
	p.stderr = stderrR
	p.childFiles = append(p.childFiles, stderrW)

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	return p, nil
}

// Spawn is New followed by Start
func Spawn(spec Spec, handlers Handlers, opts ...Option) (*Process, error) {
	p, err := New(spec, handlers, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

// Start launches the child. A launch failure is reported through OnError
// followed by OnExit; Start itself only fails when called twice.
func (p *Process) Start() error {
	started := false
	p.startOnce.Do(func() {
		started = true
		p.launch()
	})
	if !started {
		return ErrAlreadyStarted
	}
	return nil
}

func (p *Process) launch() {
	err := p.cmd.Start()
	p.closeChildFiles()
	if err != nil {
		p.closePipes()
		p.state.Store(int32(StateExited))
		close(p.done)
		p.notifyError(fmt.Errorf("%w: %v", ErrSpawn, err))
		p.notifyExit(ExitStatus{Code: exitCodeNotStarted})
		return
	}

	p.state.Store(int32(StateRunning))
	p.logger.Debug("Process started",
		zap.String("command", p.spec.Command),
		zap.Int("pid", p.cmd.Process.Pid),
	)

	var readers sync.WaitGroup
	readers.Add(2)
	go p.readLoop(&readers, p.stdout, p.handlers.OnStdout)
	go p.readLoop(&readers, p.stderr, p.handlers.OnStderr)
	go p.waitLoop(&readers)
}

// readLoop forwards output chunks until the pipe closes. Multi-byte UTF-8
// sequences split across reads are carried into the next chunk.
func (p *Process) readLoop(wg *sync.WaitGroup, r io.Reader, emit func(string)) {
	defer wg.Done()

	buf := make([]byte, readChunkSize)
	var carry []byte
	for {
		n, err := r.Read(buf)
		if n > 0 && emit != nil {
			chunk := append(carry, buf[:n]...)
			complete, rest := splitUTF8(chunk)
			carry = append([]byte(nil), rest...)
			if len(complete) > 0 {
				emit(string(complete))
			}
		}
		if err != nil {
			if len(carry) > 0 && emit != nil {
				emit(string(carry))
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				p.logger.Debug("Process output read ended", zap.Error(err))
			}
			return
		}
	}
}

// waitLoop reaps the child, drains what is left of its output and then
// reports the exit. Output still held open by jobs the child left behind is
// cut off after the drain grace period.
func (p *Process) waitLoop(readers *sync.WaitGroup) {
	err := p.cmd.Wait()
	p.state.Store(int32(StateExited))

	status := ExitStatus{}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status.Code = exitErr.ExitCode()
			status.Signal = exitSignal(exitErr.ProcessState)
		} else {
			status.Code = -1
			p.notifyError(fmt.Errorf("wait: %w", err))
		}
	}
	p.exitCode.Store(int32(status.Code))

	drained := make(chan struct{})
	go func() {
		readers.Wait()
		close(drained)
	}()

	timer := time.NewTimer(p.drainGrace)
	select {
	case <-drained:
		timer.Stop()
	case <-timer.C:
		p.logger.Debug("Output still held open after exit, closing pipes",
			zap.String("command", p.spec.Command),
		)
		_ = p.stdout.Close()
		_ = p.stderr.Close()
		<-drained
	}

	p.closePipes()
	close(p.done)

	p.logger.Debug("Process exited",
		zap.String("command", p.spec.Command),
		zap.Int("code", status.Code),
		zap.String("signal", status.Signal),
	)
	p.notifyExit(status)
}

// Write sends data to the process's stdin
func (p *Process) Write(data []byte) error {
	if p.State() != StateRunning {
		return ErrNotRunning
	}

	p.stdinMu.Lock()
	defer p.stdinMu.Unlock()

	if _, err := p.stdin.Write(data); err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	return nil
}

// Terminate asks the process group to stop, escalating to a kill after the
// grace period. It returns immediately; Done reports actual exit.
func (p *Process) Terminate() error {
	if p.State() != StateRunning {
		return nil
	}

	p.stdinMu.Lock()
	_ = p.stdin.Close()
	p.stdinMu.Unlock()

	if err := terminate(p.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminate process: %w", err)
	}

	go func() {
		timer := time.NewTimer(p.killGrace)
		defer timer.Stop()
		select {
		case <-p.done:
		case <-timer.C:
			p.logger.Warn("Process ignored termination, killing",
				zap.Int("pid", p.cmd.Process.Pid),
				zap.Duration("grace", p.killGrace),
			)
			if err := kill(p.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.logger.Warn("Failed to kill process", zap.Error(err))
			}
		}
	}()

	return nil
}

// State returns the current process state
func (p *Process) State() State {
	return State(p.state.Load())
}

// Done returns a channel that is closed when the process has exited
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code, or -1 if the process has not exited
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// PID returns the OS process id, or -1 if not started
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

func (p *Process) closePipes() {
	p.stdinMu.Lock()
	defer p.stdinMu.Unlock()
	for _, f := range []*os.File{p.stdin, p.stdout, p.stderr} {
		if f != nil {
			_ = f.Close()
		}
	}
	p.closeChildFiles()
}

func (p *Process) closeChildFiles() {
	for _, f := range p.childFiles {
		_ = f.Close()
	}
	p.childFiles = nil
}

func (p *Process) notifyError(err error) {
	if p.handlers.OnError != nil {
		p.handlers.OnError(err)
	}
}

func (p *Process) notifyExit(status ExitStatus) {
	if p.handlers.OnExit != nil {
		p.handlers.OnExit(status)
	}
}

// splitUTF8 separates a trailing incomplete UTF-8 sequence from b
func splitUTF8(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i], b[i:]
			}
			break
		}
	}
	return b, nil
}
