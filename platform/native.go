package platform

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// Native is the OS-backed Platform implementation: the one a standalone
// interpreter binary wires up for real programs.
type Native struct {
	stdin *bufio.Reader
}

// NewNative constructs a Native platform reading from os.Stdin.
func NewNative() *Native {
	return &Native{stdin: bufio.NewReader(os.Stdin)}
}

func (n *Native) Print(text string) {
	fmt.Fprint(os.Stdout, text)
}

func (n *Native) Exec(args []string) (int, []byte, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("exec requires at least one argument")
	}
	cmd := exec.Command(args[0], args[1:]...)
	out, err := cmd.Output()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			return exitCode, out, nil
		}
		return -1, out, err
	}
	return exitCode, out, nil
}

func (n *Native) GetArgs() []string {
	if len(os.Args) <= 1 {
		return []string{}
	}
	return os.Args[1:]
}

func (n *Native) GetEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

func (n *Native) GetEnvs() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	return out
}

func (n *Native) GetUnixTime() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// processStart is when this process loaded the platform package; its
// humanized age is the uptime field of GetPlatformInfo.
var processStart = time.Now()

func (n *Native) GetPlatformInfo() []string {
	return []string{runtime.GOOS, runtime.GOARCH, unameRelease(), humanize.Time(processStart)}
}

func (n *Native) Sleep(ms float64) {
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}

func (n *Native) SysShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"/bin/sh", "-c"}
}

func (n *Native) FRead(path string, start *int64, nBytes *int64) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	if start != nil {
		if _, err := f.Seek(*start, 0); err != nil {
			return nil, 0, err
		}
	}

	if nBytes != nil {
		buf := make([]byte, *nBytes)
		read, err := f.Read(buf)
		if err != nil && read == 0 {
			return nil, 0, err
		}
		return buf[:read], int64(read), nil
	}

	data, err := readAll(f)
	if err != nil {
		return nil, 0, err
	}
	return data, int64(len(data)), nil
}

func readAll(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, info.Size())
	_, err = f.Read(buf)
	return buf, err
}

func (n *Native) FWrite(path string, data []byte) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	written, err := f.Write(data)
	return int64(written), err
}

func (n *Native) FAppend(path string, data []byte) (int64, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	written, err := f.Write(data)
	return int64(written), err
}

func (n *Native) FInfo(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Mode:    info.Mode().String(),
	}, nil
}

func (n *Native) StdinRead() ([]byte, error) {
	return readAllBuffered(n.stdin)
}

func readAllBuffered(r *bufio.Reader) ([]byte, error) {
	var out []byte
	buf := make([]byte, 4096)
	for {
		read, err := r.Read(buf)
		out = append(out, buf[:read]...)
		if err != nil {
			if read > 0 {
				return out, nil
			}
			return out, err
		}
	}
}

func (n *Native) StdoutWrite(data []byte) (int, error) {
	return os.Stdout.Write(data)
}

// ReadLine only writes the prompt when stdout is attached to an
// interactive terminal, so piped/redirected output stays clean — the
// documented reason this platform pulls in go-isatty rather than always
// writing the prompt unconditionally.
func (n *Native) ReadLine(prompt string, hasPrompt bool) (string, error) {
	if hasPrompt && isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprint(os.Stdout, prompt)
	}
	line, err := n.stdin.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}
