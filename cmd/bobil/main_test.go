package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
)

// fakeHeater serves a status page and flips its state on command endpoints.
type fakeHeater struct {
	mu       sync.Mutex
	airOn    bool
	target   int
	failures int // remaining requests answered with 503
	requests []string
}

func (f *fakeHeater) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.Path)

	if f.failures > 0 {
		f.failures--
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	switch r.URL.Path {
	case "/":
		air := "OFF"
		if f.airOn {
			air = "ON"
		}
		fmt.Fprintf(w, `<html><body>
SYSTEM NO: 0042<br>
AIR TEMP: 19.5&deg;C<br>
AIR TEMP TARGET: %d&deg;C<br>
AIR HEATING STATUS: %s<br>
</body></html>`, f.target, air)
	case heater.EndpointAirOn:
		f.airOn = true
	case heater.EndpointAirOff:
		f.airOn = false
	case heater.EndpointTempUp:
		f.target++
	case heater.EndpointTempDown:
		f.target--
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeHeater) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newFakeHeater(t *testing.T, f *fakeHeater) string {
	t.Helper()
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return strings.TrimPrefix(ts.URL, "http://")
}

// writeConfig writes a config with the settle delay disabled.
func writeConfig(t *testing.T, host string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := fmt.Sprintf("version: 1\ndevice:\n  host: %q\n  settle_delay: -1s\n", host)
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, input, configPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(logging.LogLevelEnvVar, "")

	var out bytes.Buffer
	a := newApp(strings.NewReader(input), &out)
	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusJSON(t *testing.T) {
	host := newFakeHeater(t, &fakeHeater{target: 21})

	out, err := run(t, "", writeConfig(t, host), "status", "--format", "json")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got[heater.KeySystemNumber] != "0042" {
		t.Errorf("system_number = %v, want 0042", got[heater.KeySystemNumber])
	}
	if got[heater.KeyAirTemperatureTarget] != 21.0 {
		t.Errorf("air_temperature_target = %v, want 21", got[heater.KeyAirTemperatureTarget])
	}
	if _, ok := got[heater.KeyWaterLevel]; ok {
		t.Error("water_level should be omitted when not reported")
	}
}

func TestStatusFormats(t *testing.T) {
	host := newFakeHeater(t, &fakeHeater{target: 21})
	path := writeConfig(t, host)

	out, err := run(t, "", path, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{"System number", "0042", "19.5 °C", "Water level", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("detailed output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "", path, "status", "--format", "compact")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if strings.Count(strings.TrimSpace(out), "\n") != 0 {
		t.Errorf("compact output should be one line:\n%s", out)
	}
	if !strings.Contains(out, "air OFF") {
		t.Errorf("compact output = %q, want air OFF", out)
	}
}

func TestStatusInvalidFormat(t *testing.T) {
	_, err := run(t, "", writeConfig(t, "unused"), "status", "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("error = %v, want invalid format", err)
	}
}

func TestStatusDeviceError(t *testing.T) {
	host := newFakeHeater(t, &fakeHeater{failures: 1})

	out, err := run(t, "", writeConfig(t, host), "status")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !heater.IsCommunicationError(err) {
		t.Errorf("error = %v, want a communication error", err)
	}
	if !strings.Contains(out, "HTTP 503") || !strings.Contains(out, "Troubleshooting:") {
		t.Errorf("output should explain the failure:\n%s", out)
	}
	if strings.Contains(out, "║") {
		t.Errorf("output to a non-terminal should not be boxed:\n%s", out)
	}
}

func TestNoHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := run(t, "", path, "status")
	if !errors.Is(err, errNoHost) {
		t.Errorf("error = %v, want errNoHost", err)
	}
}

func TestHostFlagOverridesConfig(t *testing.T) {
	f := &fakeHeater{}
	host := newFakeHeater(t, f)

	_, err := run(t, "", writeConfig(t, "192.0.2.1"), "--host", host, "probe")
	if err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if got := f.paths(); len(got) != 1 {
		t.Errorf("requests = %v, want one", got)
	}
}

func TestCircuitCommands(t *testing.T) {
	f := &fakeHeater{}
	path := writeConfig(t, newFakeHeater(t, f))

	out, err := run(t, "", path, "air", "on")
	if err != nil {
		t.Fatalf("air on error = %v", err)
	}
	if !strings.Contains(out, "Air heating is now ON") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "", path, "air", "toggle")
	if err != nil {
		t.Fatalf("air toggle error = %v", err)
	}
	if !strings.Contains(out, "Air heating is now OFF") {
		t.Errorf("output = %q", out)
	}

	want := []string{heater.EndpointAirOn, "/", "/", heater.EndpointAirOff, "/"}
	if got := f.paths(); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("requests = %v, want %v", got, want)
	}
}

func TestCircuitCommandRejectsUnknownState(t *testing.T) {
	if _, err := run(t, "", writeConfig(t, "unused"), "water", "sideways"); err == nil {
		t.Error("expected an error for an unknown state")
	}
}

func TestTempCommand(t *testing.T) {
	f := &fakeHeater{target: 20}
	path := writeConfig(t, newFakeHeater(t, f))

	out, err := run(t, "", path, "temp", "up")
	if err != nil {
		t.Fatalf("temp up error = %v", err)
	}
	if !strings.Contains(out, "Target temperature is now 21 °C") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "", path, "temp", "down")
	if err != nil {
		t.Fatalf("temp down error = %v", err)
	}
	if !strings.Contains(out, "Target temperature is now 20 °C") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bobil", "config.yaml")

	if _, err := run(t, "", path, "--host", "10.0.0.5", "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}

	out, err := run(t, "", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "host: 10.0.0.5") {
		t.Errorf("config show output missing host:\n%s", out)
	}
	if !strings.Contains(out, "# "+path) {
		t.Errorf("config show output missing path:\n%s", out)
	}
}

func TestConfigInitExistingFile(t *testing.T) {
	path := writeConfig(t, "10.0.0.5")

	_, err := run(t, "n\n", path, "--host", "10.0.0.6", "config", "init")
	if err == nil {
		t.Fatal("declined overwrite should fail")
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "10.0.0.5") {
		t.Errorf("file was modified:\n%s", data)
	}

	if _, err := run(t, "y\n", path, "--host", "10.0.0.6", "config", "init"); err != nil {
		t.Fatalf("confirmed overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "10.0.0.6") {
		t.Errorf("file was not replaced:\n%s", data)
	}

	if _, err := run(t, "", path, "--host", "10.0.0.7", "config", "init", "--force"); err != nil {
		t.Fatalf("forced overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "10.0.0.7") {
		t.Errorf("file was not replaced:\n%s", data)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", filepath.Join(t.TempDir(), "none.yaml"), "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "bobil ") || !strings.Contains(out, "commit:") {
		t.Errorf("output = %q", out)
	}
}

func TestWaitForHeater(t *testing.T) {
	old := waitInitialInterval
	waitInitialInterval = time.Millisecond
	t.Cleanup(func() { waitInitialInterval = old })

	f := &fakeHeater{failures: 2}
	client := heater.NewClient(newFakeHeater(t, f), nil)

	if err := waitForHeater(context.Background(), client, 5*time.Second); err != nil {
		t.Fatalf("waitForHeater() error = %v", err)
	}
	if got := f.paths(); len(got) != 3 {
		t.Errorf("requests = %v, want 3", got)
	}
}

func TestWaitForHeaterStopsOnAPIError(t *testing.T) {
	old := waitInitialInterval
	waitInitialInterval = time.Millisecond
	t.Cleanup(func() { waitInitialInterval = old })

	var calls int
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		// Larger than the client accepts
		_, _ = w.Write(bytes.Repeat([]byte("x"), 1<<20+1))
	}))
	t.Cleanup(ts.Close)

	client := heater.NewClient(strings.TrimPrefix(ts.URL, "http://"), nil)
	err := waitForHeater(context.Background(), client, 5*time.Second)
	if !heater.IsAPIError(err) {
		t.Fatalf("error = %v, want an API error", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
