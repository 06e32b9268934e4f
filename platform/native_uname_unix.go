//go:build unix

package platform

import (
	"golang.org/x/sys/unix"
)

// unameRelease reports the kernel release string via the raw uname(2)
// syscall. golang.org/x/sys/unix is the documented choice here (rather
// than parsing `uname -r` through Exec) because it is exactly the
// syscall-level surface the pack's other VM-adjacent repos reach for
// instead of shelling out for host info.
func unameRelease() string {
	var buf unix.Utsname
	if err := unix.Uname(&buf); err != nil {
		return "unknown"
	}

	out := make([]byte, 0, len(buf.Release))
	for _, c := range buf.Release {
		if c == 0 {
			break
		}
		out = append(out, byte(c))
	}
	return string(out)
}
