// Package platform defines the vtable of host services the VM calls for
// every host-observable effect (§4.J): printing, process execution,
// process args/env, time, sleeping, the host shell prefix, file I/O and
// line-oriented stdin reads. The VM core performs no host I/O except
// through this interface, so it can run unmodified against either the
// native implementation or the hosted/embedded stub.
package platform

import "time"

// FileInfo is the result of a finfo call: enough metadata for the
// `finfo` built-in to build a describable hash.
type FileInfo struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
	Mode    string
}

// Platform is the vtable of host services the VM consumes. Every entry's
// signature is stable; returned error strings propagate verbatim into
// VMError messages (§6).
type Platform interface {
	Print(text string)

	// Exec runs a command (argv[0] plus argv[1:]) to completion and
	// returns its exit code and captured stdout.
	Exec(args []string) (exitCode int, stdout []byte, err error)

	GetArgs() []string
	GetEnv(name string) (string, bool)
	GetEnvs() map[string]string

	GetUnixTime() float64
	GetPlatformInfo() []string

	Sleep(ms float64)

	// SysShell returns the host's shell invocation prefix (e.g.
	// []string{"/bin/sh", "-c"} on Unix), used by the Shell instruction
	// and the exec_raw built-in to run a command line through the host
	// shell. ShellRaw does not use it.
	SysShell() []string

	FRead(path string, start *int64, n *int64) ([]byte, int64, error)
	FWrite(path string, data []byte) (int64, error)
	FAppend(path string, data []byte) (int64, error)
	FInfo(path string) (FileInfo, error)

	StdinRead() ([]byte, error)
	StdoutWrite(data []byte) (int, error)

	// ReadLine reads one line from stdin, optionally writing a prompt
	// first. The native implementation only writes the prompt when
	// stdout is an interactive terminal.
	ReadLine(prompt string, hasPrompt bool) (string, error)
}
