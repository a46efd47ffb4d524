//go:build linux

package filesystem

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Timestamps come from the raw stat so creation time (ctim) is available;
// sub-second precision is zeroed per the datetime coercion contract.

func statCtime(stat *syscall.Stat_t) time.Time {
	return time.Unix(stat.Ctim.Sec, 0)
}

func statAtime(stat *syscall.Stat_t) time.Time {
	return time.Unix(stat.Atim.Sec, 0)
}

// birthTime reports the true creation time where the platform exposes one.
// Linux statx has it on some filesystems; the probe falls back to ctime when
// it is unavailable.
func birthTime(path string) (time.Time, bool) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 || stx.Btime.Sec == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, 0), true
}
