package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/777genius/audio-output-switcher/internal/exitcode"
	"github.com/777genius/audio-output-switcher/internal/sink"
)

const (
	pciSink = "alsa_output.pci-0000_00-1f.3.analog-stereo"
	usbSink = "alsa_output.usb-Vendor_Product-00.analog-stereo"
)

type fakeServer struct {
	sinks    []string
	current  string
	setCalls []string
}

func (f *fakeServer) ListSinks() ([]string, error) { return f.sinks, nil }
func (f *fakeServer) DefaultSink() (string, error) { return f.current, nil }
func (f *fakeServer) Close() error                 { return nil }

func (f *fakeServer) SetDefaultSink(name string) error {
	f.setCalls = append(f.setCalls, name)
	f.current = name
	return nil
}

type fakeChime struct {
	played []string
}

func (f *fakeChime) Play(path string) error {
	f.played = append(f.played, path)
	return nil
}

func (f *fakeChime) Close() error { return nil }

type testEnv struct {
	dir    string
	env    map[string]string
	server *fakeServer
	chime  *fakeChime
	deps   deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		dir:    t.TempDir(),
		env:    map[string]string{},
		server: &fakeServer{sinks: []string{pciSink, usbSink}, current: pciSink},
		chime:  &fakeChime{},
	}
	e.deps = deps{
		getenv:             func(key string) string { return e.env[key] },
		findSettings:       func() (string, bool) { return "", false },
		defaultDevicesPath: func() (string, error) { return filepath.Join(e.dir, "config", "devices.json"), nil },
		logPath:            func() (string, error) { return filepath.Join(e.dir, "switcher.log"), nil },
		checkDependencies:  func(string) error { return nil },
		newServer:          func(string) (sink.Server, error) { return e.server, nil },
		newChime:           func(float64) (chimePlayer, error) { return e.chime, nil },
	}
	return e
}

func (e *testEnv) run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = execute(args, e.deps, &out, &errOut)
	return code, out.String(), errOut.String()
}

func (e *testEnv) writeDevices(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, "devices.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestView(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run("--view")
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Equal(t, "0000\n", stdout)
	assert.Empty(t, e.server.setCalls)
}

func TestViewSeedsDefaultDevicesFile(t *testing.T) {
	e := newTestEnv(t)

	code, _, stderr := e.run("-v")
	require.Equal(t, exitcode.OK, code, stderr)

	data, err := os.ReadFile(filepath.Join(e.dir, "config", "devices.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sink_name":""`)
}

func TestChange(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run("-c")
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Empty(t, stdout)
	assert.Equal(t, []string{usbSink}, e.server.setCalls)
	assert.Empty(t, e.chime.played, "no chime configured")
}

func TestChangeWithChime(t *testing.T) {
	e := newTestEnv(t)

	code, _, stderr := e.run("--change", "--chime", "/tmp/chime.wav", "--volume", "0.5")
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Equal(t, []string{"/tmp/chime.wav"}, e.chime.played)
}

func TestChangeChimeUnavailable(t *testing.T) {
	e := newTestEnv(t)
	e.deps.newChime = func(float64) (chimePlayer, error) { return nil, errors.New("no backend") }

	code, _, stderr := e.run("--change", "--chime", "/tmp/chime.wav")
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Equal(t, []string{usbSink}, e.server.setCalls)
}

func TestChangeWithUnwritableLogPath(t *testing.T) {
	e := newTestEnv(t)
	blocker := filepath.Join(e.dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	e.deps.logPath = func() (string, error) { return filepath.Join(blocker, "switcher.log"), nil }

	code, _, stderr := e.run("-c")
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Empty(t, stderr)
	assert.Equal(t, []string{usbSink}, e.server.setCalls)
}

func TestViewWithoutLogPath(t *testing.T) {
	e := newTestEnv(t)
	e.deps.logPath = func() (string, error) { return "", errors.New("no state dir") }

	code, stdout, stderr := e.run("-v")
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Equal(t, "0000\n", stdout)
}

func TestDevicesFileOverride(t *testing.T) {
	e := newTestEnv(t)
	path := e.writeDevices(t, `[{"device_name":"Speakers","sink_name":"pci-0000_00-1f"}]`)

	code, stdout, stderr := e.run("--view", "--list", "-f", path)
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Equal(t, "Device Name: Speakers Sink Name: "+pciSink+"\nSpeakers\n", stdout)

	code, _, stderr = e.run("--change", "-f", path)
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Equal(t, []string{pciSink}, e.server.setCalls, "single device wraps to itself")
}

func TestListOnly(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, stderr := e.run("-l")
	assert.Equal(t, exitcode.OK, code, stderr)
	assert.Contains(t, stdout, "Device Name: Vendor Sink Name: "+usbSink)
}

func TestEnvironmentSettings(t *testing.T) {
	e := newTestEnv(t)
	var backend string
	e.deps.newServer = func(b string) (sink.Server, error) {
		backend = b
		return e.server, nil
	}

	e.env["AOS_BACKEND"] = "native"
	code, _, stderr := e.run("-v")
	require.Equal(t, exitcode.OK, code, stderr)
	assert.Equal(t, "native", backend)

	code, _, stderr = e.run("-v", "--backend", "pactl")
	require.Equal(t, exitcode.OK, code, stderr)
	assert.Equal(t, "pactl", backend, "flag wins over environment")
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, e *testEnv) []string
		wantCode int
		wantErr  string
	}{
		{
			name:     "no action",
			setup:    func(*testing.T, *testEnv) []string { return nil },
			wantCode: exitcode.Usage,
			wantErr:  "at least one of the flags",
		},
		{
			name:     "change and view",
			setup:    func(*testing.T, *testEnv) []string { return []string{"-c", "-v"} },
			wantCode: exitcode.Usage,
			wantErr:  "none of the others can be",
		},
		{
			name:     "unknown flag",
			setup:    func(*testing.T, *testEnv) []string { return []string{"--loud"} },
			wantCode: exitcode.Usage,
			wantErr:  "unknown flag",
		},
		{
			name:     "positional argument",
			setup:    func(*testing.T, *testEnv) []string { return []string{"-v", "extra"} },
			wantCode: exitcode.Usage,
		},
		{
			name: "devices file is a directory",
			setup: func(_ *testing.T, e *testEnv) []string {
				return []string{"-v", "-f", e.dir}
			},
			wantCode: exitcode.Usage,
			wantErr:  "not a file",
		},
		{
			name: "devices file missing",
			setup: func(_ *testing.T, e *testEnv) []string {
				return []string{"-v", "-f", filepath.Join(e.dir, "nope.json")}
			},
			wantCode: exitcode.Usage,
		},
		{
			name: "devices file empty",
			setup: func(t *testing.T, e *testEnv) []string {
				return []string{"-v", "-f", e.writeDevices(t, "[]")}
			},
			wantCode: exitcode.NoInput,
			wantErr:  "devices file is empty",
		},
		{
			name: "devices file invalid",
			setup: func(t *testing.T, e *testEnv) []string {
				return []string{"-v", "-f", e.writeDevices(t, "{")}
			},
			wantCode: exitcode.Config,
		},
		{
			name: "no override matches",
			setup: func(t *testing.T, e *testEnv) []string {
				return []string{"-c", "-f", e.writeDevices(t, `[{"device_name":"Headset","sink_name":"bluez"}]`)}
			},
			wantCode: exitcode.Config,
			wantErr:  "no matching sinks",
		},
		{
			name: "current sink filtered out",
			setup: func(t *testing.T, e *testEnv) []string {
				return []string{"-v", "-f", e.writeDevices(t, `[{"device_name":"Headset","sink_name":"usb-Vendor"}]`)}
			},
			wantCode: exitcode.DataErr,
			wantErr:  "current sink not found",
		},
		{
			name: "pactl missing",
			setup: func(_ *testing.T, e *testEnv) []string {
				e.deps.checkDependencies = func(string) error {
					return errors.Join(sink.ErrUnavailable, errors.New("pactl is not installed"))
				}
				return []string{"-v"}
			},
			wantCode: exitcode.Unavailable,
			wantErr:  "pactl is not installed",
		},
		{
			name:     "invalid volume",
			setup:    func(*testing.T, *testEnv) []string { return []string{"-c", "--volume", "2"} },
			wantCode: exitcode.Config,
			wantErr:  "volume",
		},
		{
			name:     "NaN volume",
			setup:    func(*testing.T, *testEnv) []string { return []string{"-c", "--chime", "/x.wav", "--volume", "NaN"} },
			wantCode: exitcode.Config,
			wantErr:  "volume",
		},
		{
			name: "invalid environment",
			setup: func(_ *testing.T, e *testEnv) []string {
				e.env["AOS_NOTIFY"] = "maybe"
				return []string{"-v"}
			},
			wantCode: exitcode.Config,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			args := tt.setup(t, e)

			code, _, stderr := e.run(args...)
			assert.Equal(t, tt.wantCode, code, stderr)
			assert.Contains(t, stderr, "Error: ")
			if tt.wantErr != "" {
				assert.Contains(t, stderr, tt.wantErr)
			}
			assert.Empty(t, e.server.setCalls)
		})
	}
}

func TestDependencyCheckOrder(t *testing.T) {
	missing := func(string) error {
		return fmt.Errorf("%w: pactl is not installed", sink.ErrUnavailable)
	}

	// settings decide the backend, so they are read first
	e := newTestEnv(t)
	e.deps.checkDependencies = missing
	e.env["AOS_NOTIFY"] = "maybe"
	code, _, stderr := e.run("-v")
	assert.Equal(t, exitcode.Config, code, stderr)

	// everything after settings waits for the dependency check
	e = newTestEnv(t)
	e.deps.checkDependencies = missing
	code, _, stderr = e.run("-v", "-f", filepath.Join(e.dir, "nope.json"))
	assert.Equal(t, exitcode.Unavailable, code, stderr)
	assert.NoFileExists(t, filepath.Join(e.dir, "config", "devices.json"))
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)

	code, stdout, _ := e.run("--version")
	assert.Equal(t, exitcode.OK, code)
	assert.Contains(t, stdout, version)
}
