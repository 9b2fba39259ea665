//go:build unix && !(darwin || dragonfly || freebsd || netbsd || openbsd)

package timedinput

import "golang.org/x/sys/unix"

const (
	ioctlReadTermios  = unix.TCGETS
	ioctlWriteTermios = unix.TCSETS
)
