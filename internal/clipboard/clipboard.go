// Package clipboard copies answers to and reads text from the system
// clipboard using the platform's clipboard utilities.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard utility is installed.
var ErrUnavailable = errors.New("no clipboard utility found")

// tool is one clipboard command line.
type tool struct {
	name string
	args []string
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// writers lists copy commands in order of preference for goos.
func writers(goos string) []tool {
	switch goos {
	case "darwin":
		return []tool{{name: "pbcopy"}}
	case "linux", "freebsd", "openbsd":
		return []tool{
			{name: "wl-copy"}, // Wayland
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"--clipboard", "--input"}},
		}
	case "windows":
		return []tool{{name: "clip.exe"}}
	}
	return nil
}

// readers lists paste commands in order of preference for goos.
func readers(goos string) []tool {
	switch goos {
	case "darwin":
		return []tool{{name: "pbpaste"}}
	case "linux", "freebsd", "openbsd":
		return []tool{
			{name: "wl-paste", args: []string{"--no-newline"}},
			{name: "xclip", args: []string{"-selection", "clipboard", "-o"}},
			{name: "xsel", args: []string{"--clipboard", "--output"}},
		}
	}
	return nil
}

// pick returns the first installed tool.
func pick(tools []tool) (string, []string, error) {
	for _, t := range tools {
		if path, err := lookPath(t.name); err == nil {
			return path, t.args, nil
		}
	}
	if len(tools) == 0 {
		return "", nil, fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.name
	}
	return "", nil, fmt.Errorf("%w (install %s)", ErrUnavailable, strings.Join(names, " or "))
}

// WriteText copies text to the system clipboard.
func WriteText(ctx context.Context, text string) error {
	path, args, err := pick(writers(runtime.GOOS))
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ReadText reads text content from the system clipboard.
func ReadText(ctx context.Context) (string, error) {
	path, args, err := pick(readers(runtime.GOOS))
	if err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return out.String(), nil
}
