//go:build !linux

package filesystem

import (
	"syscall"
	"time"
)

func statCtime(*syscall.Stat_t) time.Time { return time.Time{} }

func statAtime(*syscall.Stat_t) time.Time { return time.Time{} }

func birthTime(string) (time.Time, bool) { return time.Time{}, false }
