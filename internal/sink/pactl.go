package sink

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/777genius/audio-output-switcher/internal/logging"
)

const defaultSinkPrefix = "Default Sink:"

// runner executes a command and returns its stdout
type runner func(name string, args ...string) ([]byte, error)

// Pactl drives the audio server through the pactl utility.
// Arguments are passed directly, never through a shell.
type Pactl struct {
	path string
	run  runner
}

// NewPactl creates a pactl backend using the executable at path
func NewPactl(path string) *Pactl {
	return &Pactl{path: path, run: execCommand}
}

// ListSinks returns sink names from `pactl list sinks short`
func (p *Pactl) ListSinks() ([]string, error) {
	out, err := p.run(p.path, "list", "sinks", "short")
	if err != nil {
		return nil, err
	}
	return parseSinkList(out)
}

// DefaultSink returns the default sink reported by `pactl info`
func (p *Pactl) DefaultSink() (string, error) {
	out, err := p.run(p.path, "info")
	if err != nil {
		return "", err
	}
	return parseDefaultSink(out)
}

// SetDefaultSink runs `pactl set-default-sink <name>`
func (p *Pactl) SetDefaultSink(name string) error {
	_, err := p.run(p.path, "set-default-sink", "--", name)
	return err
}

// Close is a no-op
func (p *Pactl) Close() error {
	return nil
}

// parseSinkList takes the second column of each non-empty line:
//
//	<index>\t<name>\t<driver>\t<sample spec>\t<state>
func parseSinkList(out []byte) ([]string, error) {
	var sinks []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: unexpected pactl sink line: %q", ErrExternalTool, line)
		}
		sinks = append(sinks, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read pactl output: %v", ErrExternalTool, err)
	}
	return sinks, nil
}

func parseDefaultSink(out []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, defaultSinkPrefix) {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(line, defaultSinkPrefix))
		if name == "" {
			break
		}
		return name, nil
	}
	return "", fmt.Errorf("%w: pactl info did not report a default sink", ErrExternalTool)
}

func execCommand(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	// pactl translates its labels
	cmd.Env = append(os.Environ(), "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug("Running %s %s", name, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v, stderr: %s",
			ErrExternalTool, name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
