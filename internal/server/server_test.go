package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/bobil/internal/control"
	"github.com/muurk/bobil/internal/coordinator"
	"github.com/muurk/bobil/internal/heater"
)

const statusPage = `<html><body>
SYSTEM NO: 0042<br>
AIR TEMP: 19.5&deg;C<br>
AIR HEATING STATUS: OFF<br>
</body></html>`

type fakeStatus struct {
	mu         sync.Mutex
	current    *heater.Snapshot
	lastErr    error
	refreshErr error
	updates    chan coordinator.Update
}

func (f *fakeStatus) Current() (*heater.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.current != nil
}

func (f *fakeStatus) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *fakeStatus) Refresh(context.Context) (*heater.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.current, nil
}

func (f *fakeStatus) Subscribe() (<-chan coordinator.Update, func()) {
	return f.updates, func() {}
}

type fakeCommands struct {
	err  error
	sent []heater.Command
}

func (f *fakeCommands) Execute(_ context.Context, cmd heater.Command) (*heater.Snapshot, error) {
	f.sent = append(f.sent, cmd)
	if f.err != nil {
		return nil, f.err
	}
	return heater.Parse(statusPage), nil
}

func newTestServer(t *testing.T, status *fakeStatus, cmds *fakeCommands) *httptest.Server {
	t.Helper()
	if status.updates == nil {
		status.updates = make(chan coordinator.Update, 1)
	}
	s, err := New(&Config{
		Status:   status,
		Commands: cmds,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "bobil_up 1\n")
		}),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(&Config{Commands: &fakeCommands{}}); err == nil {
		t.Error("New() without status source should fail")
	}
	if _, err := New(&Config{Status: &fakeStatus{}}); err == nil {
		t.Error("New() without command executor should fail")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, &fakeStatus{}, &fakeCommands{})

	if code, body := do(t, http.MethodGet, ts.URL+"/healthz"); code != 200 || body != "ok" {
		t.Errorf("/healthz = %d %q", code, body)
	}
	if code, body := do(t, http.MethodGet, ts.URL+"/metrics"); code != 200 || !strings.Contains(body, "bobil_up") {
		t.Errorf("/metrics = %d %q", code, body)
	}
}

func TestStatus(t *testing.T) {
	status := &fakeStatus{
		lastErr: &coordinator.UpdateFailedError{Err: heater.NewHTTPStatusError(500, "heater")},
	}
	ts := newTestServer(t, status, &fakeCommands{})

	code, body := do(t, http.MethodGet, ts.URL+"/api/status")
	if code != http.StatusServiceUnavailable {
		t.Errorf("status before first fetch = %d, want 503", code)
	}
	if !strings.Contains(body, "unexpected status code: 500") {
		t.Errorf("503 body should carry the last refresh error: %s", body)
	}

	status.mu.Lock()
	status.current = heater.Parse(statusPage)
	status.mu.Unlock()

	code, body = do(t, http.MethodGet, ts.URL+"/api/status")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["system_number"] != "0042" || got["air_temperature"] != 19.5 || got["air_heating_status"] != false {
		t.Errorf("unexpected body: %s", body)
	}
	if _, ok := got["water_level"]; ok {
		t.Error("absent fields should be omitted")
	}
}

func TestStatus_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, &fakeStatus{}, &fakeCommands{})
	if code, _ := do(t, http.MethodPost, ts.URL+"/api/status"); code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/status = %d, want 405", code)
	}
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"success", nil, http.StatusOK},
		{"update failed", &coordinator.UpdateFailedError{Err: heater.NewHTTPStatusError(500, "heater")}, http.StatusBadGateway},
		{"caller timed out", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := &fakeStatus{current: heater.Parse(statusPage), refreshErr: tt.err}
			ts := newTestServer(t, status, &fakeCommands{})

			code, body := do(t, http.MethodPost, ts.URL+"/api/refresh")
			if code != tt.wantCode {
				t.Errorf("POST /api/refresh = %d, want %d (%s)", code, tt.wantCode, body)
			}
		})
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
		wantSent heater.Command
	}{
		{"ok", "air_on", nil, http.StatusOK, heater.CommandAirOn},
		{"dashes accepted", "temp-up", nil, http.StatusOK, heater.CommandTempUp},
		{"unknown", "sauna_on", nil, http.StatusBadRequest, ""},
		{"communication error", "water_off", heater.NewHTTPStatusError(503, "heater"), http.StatusBadGateway, heater.CommandWaterOff},
		{"api error", "water_off", heater.NewAPIError("bad", "heater", nil), http.StatusInternalServerError, heater.CommandWaterOff},
		{
			"refresh failed after command",
			"combined_on",
			fmt.Errorf("command combined_on sent, refresh failed: %w",
				&coordinator.UpdateFailedError{Err: heater.NewHTTPStatusError(500, "heater")}),
			http.StatusAccepted,
			heater.CommandCombinedOn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &fakeCommands{err: tt.err}
			ts := newTestServer(t, &fakeStatus{current: heater.Parse(statusPage)}, cmds)

			code, body := do(t, http.MethodPost, ts.URL+"/api/commands/"+tt.path)
			if code != tt.wantCode {
				t.Fatalf("POST %s = %d, want %d (%s)", tt.path, code, tt.wantCode, body)
			}

			if tt.wantSent == "" {
				if len(cmds.sent) != 0 {
					t.Errorf("no command should be sent, got %v", cmds.sent)
				}
				return
			}
			if len(cmds.sent) != 1 || cmds.sent[0] != tt.wantSent {
				t.Errorf("sent = %v, want [%s]", cmds.sent, tt.wantSent)
			}

			if code == http.StatusOK {
				var resp commandResponse
				if err := json.Unmarshal([]byte(body), &resp); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if resp.Command != tt.wantSent.String() || resp.Snapshot == nil || resp.RefreshError != "" {
					t.Errorf("unexpected response: %s", body)
				}
			} else if code == http.StatusAccepted {
				var resp commandResponse
				if err := json.Unmarshal([]byte(body), &resp); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if resp.Command != tt.wantSent.String() || resp.Snapshot == nil {
					t.Errorf("unexpected response: %s", body)
				}
				if resp.RefreshError != "Cannot connect: heater returned HTTP 500" {
					t.Errorf("refresh_error = %q", resp.RefreshError)
				}
			} else {
				var resp errorResponse
				if err := json.Unmarshal([]byte(body), &resp); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if resp.Error == "" || resp.Detail == "" {
					t.Errorf("error response should carry message and detail: %s", body)
				}
			}
		})
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocket_InitialSnapshotAndUpdates(t *testing.T) {
	status := &fakeStatus{current: heater.Parse(statusPage), updates: make(chan coordinator.Update, 3)}
	ts := newTestServer(t, status, &fakeCommands{})
	conn := dialWS(t, ts)

	msg := readMessage(t, conn)
	if msg.Type != MessageSnapshot || msg.Snapshot == nil || *msg.Snapshot.SystemNumber != "0042" {
		t.Fatalf("initial message = %+v", msg)
	}

	cached := heater.Parse(statusPage)
	status.updates <- coordinator.Update{Snapshot: cached, Stale: true, Cause: errors.New("timeout"), At: time.Now()}
	msg = readMessage(t, conn)
	if msg.Type != MessageSnapshot || !msg.Stale {
		t.Errorf("stale update = %+v", msg)
	}

	status.updates <- coordinator.Update{
		Err: &coordinator.UpdateFailedError{Err: heater.NewAPIError("boom", "heater", nil)},
		At:  time.Now(),
	}
	msg = readMessage(t, conn)
	if msg.Type != MessageError || msg.Error != "Unexpected error talking to the heater" || msg.Snapshot != nil {
		t.Errorf("error update = %+v", msg)
	}
}

func TestWebSocket_NoInitialSnapshot(t *testing.T) {
	status := &fakeStatus{updates: make(chan coordinator.Update, 1)}
	ts := newTestServer(t, status, &fakeCommands{})
	conn := dialWS(t, ts)

	status.updates <- coordinator.Update{Snapshot: heater.Parse(statusPage), At: time.Now()}
	msg := readMessage(t, conn)
	if msg.Type != MessageSnapshot || msg.Stale {
		t.Errorf("first message = %+v, want fresh snapshot", msg)
	}
}

func TestWebSocket_ClosedSubscriptionEndsStream(t *testing.T) {
	status := &fakeStatus{updates: make(chan coordinator.Update)}
	ts := newTestServer(t, status, &fakeCommands{})
	conn := dialWS(t, ts)

	close(status.updates)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the stream to end")
	}
}

// TestEndToEnd wires a real client, coordinator and controller against a fake
// heater.
func TestEndToEnd(t *testing.T) {
	var mu sync.Mutex
	airOn := false
	device := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/f1on":
			airOn = true
		case "/f1off":
			airOn = false
		case "/":
			state := "OFF"
			if airOn {
				state = "ON"
			}
			fmt.Fprintf(w, "AIR TEMP: 20&deg;C<br>AIR HEATING STATUS: %s<br>", state)
		default:
			http.NotFound(w, r)
		}
	}))
	defer device.Close()

	client := heater.NewClient(device.URL, device.Client())
	coord := coordinator.New(client)
	ctrl := control.New(client, coord)
	ctrl.SettleDelay = 0

	s, err := New(&Config{Status: coord, Commands: ctrl})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	if code, _ := do(t, http.MethodGet, ts.URL+"/api/status"); code != http.StatusServiceUnavailable {
		t.Errorf("status before refresh = %d, want 503", code)
	}

	code, body := do(t, http.MethodPost, ts.URL+"/api/commands/air_on")
	if code != http.StatusOK {
		t.Fatalf("air_on = %d (%s)", code, body)
	}
	if !strings.Contains(body, `"air_heating_status":true`) {
		t.Errorf("command response should carry the refreshed snapshot: %s", body)
	}

	code, body = do(t, http.MethodGet, ts.URL+"/api/status")
	if code != http.StatusOK || !strings.Contains(body, `"air_heating_status":true`) {
		t.Errorf("status = %d %s", code, body)
	}

	if code, _ := do(t, http.MethodGet, ts.URL+"/metrics"); code != http.StatusNotFound {
		t.Errorf("/metrics without handler = %d, want 404", code)
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	s, err := New(&Config{Listen: "127.0.0.1:0", Status: &fakeStatus{}, Commands: &fakeCommands{}})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Addr() == nil {
		t.Fatal("server did not start listening")
	}

	code, body := do(t, http.MethodGet, "http://"+s.Addr().String()+"/healthz")
	if code != 200 || body != "ok" {
		t.Errorf("/healthz = %d %q", code, body)
	}

	cancel()
	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
