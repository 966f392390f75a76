//go:build aix || linux || solaris || zos || darwin || dragonfly || freebsd || netbsd || openbsd

package keyboard

import "golang.org/x/sys/unix"

// keepOutputProcessing turns OPOST back on after term.MakeRaw so log lines
// written to the same terminal still get their carriage returns.
func keepOutputProcessing(fd int) error {
	t, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return err
	}
	if t.Oflag&unix.OPOST != 0 {
		return nil
	}
	t.Oflag |= unix.OPOST
	return unix.IoctlSetTermios(fd, ioctlWriteTermios, t)
}
