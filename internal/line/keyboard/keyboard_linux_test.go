//go:build linux

package keyboard

import (
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/danmuck/cic64/internal/testutil/testlog"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func openPTY(t *testing.T) (master, tty *os.File) {
	t.Helper()
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	t.Cleanup(func() { master.Close() })
	mfd := int(master.Fd())
	if err := unix.IoctlSetPointerInt(mfd, unix.TIOCSPTLCK, 0); err != nil {
		t.Skipf("unlock pty: %v", err)
	}
	n, err := unix.IoctlGetUint32(mfd, unix.TIOCGPTN)
	if err != nil {
		t.Skipf("pty number: %v", err)
	}
	tty, err = os.OpenFile(fmt.Sprintf("/dev/pts/%d", n), os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("open pty slave: %v", err)
	}
	t.Cleanup(func() { tty.Close() })
	if !term.IsTerminal(int(tty.Fd())) {
		t.Skipf("pty slave is not a terminal")
	}
	return master, tty
}

func termios(t *testing.T, fd int) *unix.Termios {
	t.Helper()
	st, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		t.Fatalf("get termios: %v", err)
	}
	return st
}

func TestRawInputKeepsOutputProcessing(t *testing.T) {
	testlog.Start(t)
	master, tty := openPTY(t)
	// Fd switches the file to blocking mode, so take it once before Start.
	fd := int(tty.Fd())
	before := termios(t, fd)

	kb := New(tty, testlog.Logger(t))
	if err := kb.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	raw := termios(t, fd)
	if raw.Lflag&unix.ICANON != 0 || raw.Lflag&unix.ECHO != 0 {
		t.Fatalf("input should be raw: lflag=%#x", raw.Lflag)
	}
	if raw.Oflag&unix.OPOST == 0 {
		t.Fatalf("output processing must stay on while watching: oflag=%#x", raw.Oflag)
	}

	if _, err := master.Write([]byte{'q'}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-kb.Pressed():
	case <-time.After(2 * time.Second):
		t.Fatalf("keypress not observed on the terminal")
	}
	kb.Stop()

	after := termios(t, fd)
	if after.Lflag != before.Lflag || after.Oflag != before.Oflag {
		t.Fatalf("stop should restore the terminal: lflag %#x->%#x oflag %#x->%#x",
			before.Lflag, after.Lflag, before.Oflag, after.Oflag)
	}
}
