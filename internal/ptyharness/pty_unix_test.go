//go:build unix

package ptyharness

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartSizeSetsWindow(t *testing.T) {
	if _, err := exec.LookPath("stty"); err != nil {
		t.Skip("stty not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := StartSize(exec.Command("stty", "size"), Size{Rows: 10, Cols: 40})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WaitFor(ctx, "10 40"))
	code, err := s.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestSessionEchoesTypedKeys(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := Start(exec.Command("cat"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Type("hello\n"))
	require.NoError(t, s.WaitFor(ctx, "hello"))
	require.NoError(t, s.Type("\x04"))
	code, err := s.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestWaitForReportsClosedOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := Start(exec.Command("true"))
	if err != nil {
		t.Skipf("cannot start true: %v", err)
	}
	defer s.Close()

	_, _ = s.Wait(ctx)
	require.Error(t, s.WaitFor(ctx, "never printed"))
}
