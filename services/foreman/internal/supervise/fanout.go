package supervise

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// SpawnFunc launches one sibling worker process. It returns once the
// process has started; the sibling runs independently from then on.
type SpawnFunc func() error

// FanOut spawns count-1 sibling processes and then runs entry in the
// calling process, blocking until that instance finishes. Siblings are
// peers: the launcher neither watches nor restarts them, and a sibling
// crash goes unnoticed here.
func FanOut(count int, spawn SpawnFunc, entry func() error) error {
	for i := 1; i < count; i++ {
		if err := spawn(); err != nil {
			return fmt.Errorf("spawn worker process %d: %w", i, err)
		}
	}
	return entry()
}

// SelfSpawn returns a SpawnFunc that re-executes the current binary with
// the same arguments plus a trailing --workers 1, so the sibling re-enters
// the same selected behavior without fanning out again.
func SelfSpawn() SpawnFunc {
	return func() error {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate own binary: %w", err)
		}

		args := append(append([]string(nil), os.Args[1:]...), "--workers", "1")
		cmd := exec.Command(exe, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start sibling process: %w", err)
		}
		slog.Info("spawned worker process", "pid", cmd.Process.Pid)

		// Reap the sibling when it exits so it does not linger as a zombie.
		go func() {
			if err := cmd.Wait(); err != nil {
				slog.Error("worker process exited with error", "pid", cmd.Process.Pid, "error", err)
			}
		}()
		return nil
	}
}
