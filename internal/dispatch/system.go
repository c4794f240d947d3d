package dispatch

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/gen2brain/beeep"
	"github.com/pkg/browser"
)

// DesktopNotifier shows a native desktop notification.
type DesktopNotifier struct {
	Icon string
}

func (d DesktopNotifier) Notify(_ context.Context, title, message string) error {
	if err := beeep.Notify(title, message, d.Icon); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// SystemLauncher opens links in the default browser and starts programs
// as detached processes.
type SystemLauncher struct{}

// NewSystemLauncher silences the browser helper so it does not write over
// an interactive terminal.
func NewSystemLauncher() SystemLauncher {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return SystemLauncher{}
}

func (SystemLauncher) OpenURL(url string) error {
	return browser.OpenURL(url)
}

func (SystemLauncher) Start(path string) error {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child without blocking the caller.
	go cmd.Wait() //nolint:errcheck
	return nil
}
