package platform

import (
	"fmt"
	"strings"
	"time"
)

// Stub is a minimal, fully in-memory Platform implementation for hosted
// and embedded execution where there is no real OS underneath — no
// process exec, no filesystem, no interactive terminal. Print and
// StdoutWrite capture into an in-memory buffer so the embedder can read
// back what a program printed; everything else returns a deterministic,
// harmless value or a plain "not supported" error.
type Stub struct {
	Output strings.Builder
	Env    map[string]string
	Args   []string
	Clock  func() float64
}

// NewStub constructs a stub platform with an empty environment and an
// unset clock (defaulting to a fixed zero time so embedded runs are
// reproducible).
func NewStub() *Stub {
	return &Stub{Env: make(map[string]string)}
}

func (s *Stub) Print(text string) { s.Output.WriteString(text) }

func (s *Stub) Exec(args []string) (int, []byte, error) {
	return -1, nil, fmt.Errorf("exec is not supported on the hosted platform")
}

func (s *Stub) GetArgs() []string { return s.Args }

func (s *Stub) GetEnv(name string) (string, bool) {
	v, ok := s.Env[name]
	return v, ok
}

func (s *Stub) GetEnvs() map[string]string {
	out := make(map[string]string, len(s.Env))
	for k, v := range s.Env {
		out[k] = v
	}
	return out
}

func (s *Stub) GetUnixTime() float64 {
	if s.Clock != nil {
		return s.Clock()
	}
	return float64(time.Unix(0, 0).Unix())
}

func (s *Stub) GetPlatformInfo() []string {
	return []string{"hosted", "wasm"}
}

func (s *Stub) Sleep(ms float64) {
	// The hosted platform has no scheduler of its own to block; callers
	// embedding the VM in a cooperative host loop are expected to treat
	// sleep as a no-op rather than stalling the host.
}

func (s *Stub) SysShell() []string { return nil }

func (s *Stub) FRead(path string, start *int64, n *int64) ([]byte, int64, error) {
	return nil, 0, fmt.Errorf("filesystem is not supported on the hosted platform")
}

func (s *Stub) FWrite(path string, data []byte) (int64, error) {
	return 0, fmt.Errorf("filesystem is not supported on the hosted platform")
}

func (s *Stub) FAppend(path string, data []byte) (int64, error) {
	return 0, fmt.Errorf("filesystem is not supported on the hosted platform")
}

func (s *Stub) FInfo(path string) (FileInfo, error) {
	return FileInfo{}, fmt.Errorf("filesystem is not supported on the hosted platform")
}

func (s *Stub) StdinRead() ([]byte, error) {
	return nil, fmt.Errorf("stdin is not supported on the hosted platform")
}

func (s *Stub) StdoutWrite(data []byte) (int, error) {
	s.Output.Write(data)
	return len(data), nil
}

func (s *Stub) ReadLine(prompt string, hasPrompt bool) (string, error) {
	return "", fmt.Errorf("interactive input is not supported on the hosted platform")
}
