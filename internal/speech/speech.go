// Package speech reads answers aloud with the platform's text-to-speech
// command.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no speech command is installed.
var ErrUnavailable = errors.New("no text-to-speech command found")

var lookPath = exec.LookPath

type voice struct {
	name string
	args []string
}

func voices(goos string) []voice {
	switch goos {
	case "darwin":
		return []voice{{name: "say"}}
	case "linux", "freebsd", "openbsd":
		return []voice{
			{name: "espeak-ng", args: []string{"--stdin"}},
			{name: "espeak", args: []string{"--stdin"}},
			{name: "spd-say", args: []string{"--wait", "-e"}},
		}
	}
	return nil
}

// Command returns the speech command for this platform, with the text to
// speak fed on stdin.
func Command(ctx context.Context) (*exec.Cmd, error) {
	for _, v := range voices(runtime.GOOS) {
		if path, err := lookPath(v.name); err == nil {
			return exec.CommandContext(ctx, path, v.args...), nil
		}
	}
	if len(voices(runtime.GOOS)) == 0 {
		return nil, fmt.Errorf("text-to-speech not supported on %s", runtime.GOOS)
	}
	return nil, ErrUnavailable
}

// Speak reads text aloud and blocks until playback ends. Cancelling ctx
// stops playback.
func Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	cmd, err := Command(ctx)
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speech failed: %w", err)
	}
	return nil
}
