package builtin

import "github.com/dustin/go-humanize"

func humanizeBytesImpl(n int64) string {
	return humanize.Bytes(uint64(n))
}
