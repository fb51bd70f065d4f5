// Package open hands URLs to the desktop's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/seamui/seamui/constant"
)

var handlers = map[string]func(string) []string{
	constant.Windows: func(url string) []string {
		return []string{filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe"), "url.dll,FileProtocolHandler", url}
	},
	constant.Darwin:  func(url string) []string { return []string{"open", url} },
	constant.Linux:   func(url string) []string { return []string{"xdg-open", url} },
	constant.Android: func(url string) []string { return []string{"termux-open", url} },
}

// Start opens url without waiting for the handler to exit.
func Start(url string) error {
	argv, ok := handlers[runtime.GOOS]
	if !ok {
		return fmt.Errorf("open: no handler for %s", runtime.GOOS)
	}

	args := argv(url)
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}

	// reap the handler so it does not linger as a zombie
	go func() { _ = cmd.Wait() }()
	return nil
}
