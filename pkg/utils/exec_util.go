package utils

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/diskwatch/agent/pkg/logger"
)

// RunCommand runs a shell command with a timeout (default: 10s).
func RunCommand(name string, args ...string) (string, error) {
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	hideWindow(cmd)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command %s: %w", name, err)
	}
	err := cmd.Wait()
	if ctx.Err() == context.DeadlineExceeded {
		logger.Log.Warn("Command timeout", "cmd", name, "args", args)
		_ = cmd.Process.Kill() // ensure cleanup
		return out.String(), fmt.Errorf("command timed out")
	}
	return out.String(), err
}
