package intake

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/matzehuels/imagecombiner/pkg/errors"
)

// Clipboard reads image payloads from the system clipboard.
type Clipboard interface {
	Read(ctx context.Context) ([]Payload, error)
}

// Command is one way of reading the clipboard.
type Command struct {
	// Name and Args run the tool that prints clipboard contents to stdout.
	Name string
	Args []string
	// Types lists the media types on offer; nil means the tool cannot list them.
	Types []string
}

// CommandClipboard reads the clipboard by running external tools.
//
// On Wayland it uses wl-paste, otherwise xclip. Any failure, including a
// missing tool or an empty clipboard, is reported as CLIPBOARD_ACCESS_DENIED.
type CommandClipboard struct {
	// Commands overrides the detected tools. Tried in order until one succeeds.
	Commands []Command

	// run executes a command; tests replace it.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandClipboard returns a clipboard reader for the current session.
func NewCommandClipboard() *CommandClipboard {
	return &CommandClipboard{Commands: detectCommands()}
}

var clipboardImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/webp", "image/tiff"}

func detectCommands() []Command {
	var cmds []Command
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		cmds = append(cmds, Command{Name: "wl-paste", Args: []string{"--no-newline", "--type"}, Types: clipboardImageTypes})
	}
	cmds = append(cmds, Command{Name: "xclip", Args: []string{"-selection", "clipboard", "-out", "-target"}, Types: clipboardImageTypes})
	return cmds
}

// Read returns the first image found on the clipboard.
func (c *CommandClipboard) Read(ctx context.Context) ([]Payload, error) {
	var lastErr error
	for _, cmd := range c.Commands {
		for _, mt := range cmd.Types {
			args := append(append([]string(nil), cmd.Args...), mt)
			data, err := c.exec(ctx, cmd.Name, args...)
			if err != nil {
				lastErr = err
				continue
			}
			if len(data) == 0 {
				continue
			}
			p := NewPayload(clipboardName(mt), "", data)
			if !p.IsImage() {
				continue
			}
			return []Payload{p}, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no image on clipboard")
	}
	return nil, errors.Wrap(errors.ErrCodeClipboardAccessDenied, lastErr, "read clipboard")
}

func (c *CommandClipboard) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	if c.run != nil {
		return c.run(ctx, name, args...)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

func clipboardName(mediaType string) string {
	return "clipboard." + strings.TrimPrefix(mediaType, "image/")
}

// StaticClipboard serves fixed payloads. Useful for tests and for hosts that
// receive pasted data by other means.
type StaticClipboard struct {
	Payloads []Payload
	Err      error
}

// Read returns the configured payloads or error.
func (s StaticClipboard) Read(context.Context) ([]Payload, error) {
	if s.Err != nil {
		return nil, errors.Wrap(errors.ErrCodeClipboardAccessDenied, s.Err, "read clipboard")
	}
	return s.Payloads, nil
}
