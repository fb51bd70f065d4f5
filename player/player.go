// Package player hands stream URLs to an external media player.
package player

import (
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/log"
	"github.com/spf13/viper"
)

// Player starts playback of a stream URL. Play returns once the player
// process has been started; it does not wait for playback to end.
type Player interface {
	Play(url string) error
}

// Error is a failure to start the player.
type Error struct {
	Player string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("play %s with %s: %v", e.URL, e.Player, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// External runs "<path> [args...] <url>" as a detached process.
type External struct {
	// Path of the player executable. Read from the configuration when empty,
	// so edits to player.path apply without a restart.
	Path string

	// Args go before the URL. Read from the configuration when nil.
	Args []string
}

// Play starts the player and reaps it in the background.
func (e *External) Play(rawURL string) error {
	cmd, err := e.command(rawURL)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return &Error{Player: cmd.Path, URL: rawURL, Err: err}
	}

	log.Infof("started %s (pid %d) for %s", cmd.Path, cmd.Process.Pid, rawURL)

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warnf("player %s exited: %v", cmd.Path, err)
			return
		}
		log.Infof("player %s exited", cmd.Path)
	}()

	return nil
}

func (e *External) command(rawURL string) (*exec.Cmd, error) {
	path := e.Path
	if path == "" {
		path = viper.GetString(key.PlayerPath)
	}

	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return nil, &Error{Player: path, URL: rawURL, Err: err}
	}

	if strings.TrimSpace(path) == "" {
		return nil, &Error{Player: path, URL: rawURL, Err: fmt.Errorf("no player configured, set %s", key.PlayerPath)}
	}

	args := e.Args
	if args == nil {
		args = viper.GetStringSlice(key.PlayerArgs)
	}

	cmd := exec.Command(path, append(append([]string{}, args...), target)...)

	// detached from our process group so a terminal ^C does not kill playback
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil

	return cmd, nil
}

// sanitizeMediaTarget rejects anything that could be parsed as a flag or
// that is not a stream URL.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	u, err := url.Parse(l)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "rtmp", "rtmps", "rtsp":
		return l, nil
	default:
		return "", fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
}
