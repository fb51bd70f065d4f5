package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/style"
	"github.com/spf13/viper"
)

// CheckDependencies exits when the configured player cannot be found.
func CheckDependencies() {
	playerPath := viper.GetString(key.PlayerPath)
	if _, err := exec.LookPath(playerPath); err != nil {
		printMissingDependencyError(playerPath)
		os.Exit(1)
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	if dep == "mpv" {
		switch runtime.GOOS {
		case constant.Darwin:
			installCmd = "brew install mpv"
		case constant.Linux:
			installCmd = "sudo apt install mpv"
		case constant.Windows:
			installCmd = "scoop install mpv"
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.Red).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.Red).Render(fmt.Sprintf("%s Player not found", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("'%s' was not found in your PATH.", dep))

	suggestion := fmt.Sprintf("\n\nPick another player with:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render("seamui config set "+key.PlayerPath+" <path>"))
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd)) + suggestion
	}

	fmt.Println(box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "\n", body, suggestion)))
}
