package control

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/muurk/bobil/internal/heater"
)

type fakeSender struct {
	sent []heater.Command
	err  error
}

func (s *fakeSender) SendCommand(_ context.Context, cmd heater.Command) error {
	s.sent = append(s.sent, cmd)
	return s.err
}

type fakeRefresher struct {
	current   *heater.Snapshot
	refreshes int
	err       error
	// order records "refresh" relative to sleeps
	order *[]string
}

func (r *fakeRefresher) Refresh(context.Context) (*heater.Snapshot, error) {
	r.refreshes++
	if r.order != nil {
		*r.order = append(*r.order, "refresh")
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.current, nil
}

func (r *fakeRefresher) Current() (*heater.Snapshot, bool) {
	return r.current, r.current != nil
}

type fakeRecorder struct {
	cmds []heater.Command
	errs []error
}

func (r *fakeRecorder) RecordCommand(cmd heater.Command, err error) {
	r.cmds = append(r.cmds, cmd)
	r.errs = append(r.errs, err)
}

func newTestController(s *fakeSender, r *fakeRefresher) (*Controller, *[]string) {
	order := []string{}
	r.order = &order
	c := New(s, r)
	c.sleep = func(_ context.Context, d time.Duration) error {
		order = append(order, "sleep "+d.String())
		return nil
	}
	return c, &order
}

func TestExecute_SwitchWaitsBeforeRefresh(t *testing.T) {
	s := &fakeSender{}
	r := &fakeRefresher{current: heater.Parse("AIR HEATING STATUS: ON")}
	c, order := newTestController(s, r)

	snapshot, err := c.Execute(context.Background(), heater.CommandAirOn)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if snapshot != r.current {
		t.Error("Execute() should return the refreshed snapshot")
	}

	want := []string{"sleep 2s", "refresh"}
	if strings.Join(*order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", *order, want)
	}
}

func TestExecute_ButtonRefreshesImmediately(t *testing.T) {
	for _, cmd := range []heater.Command{heater.CommandTempUp, heater.CommandTempDown} {
		s := &fakeSender{}
		r := &fakeRefresher{current: heater.Parse("")}
		c, order := newTestController(s, r)

		if _, err := c.Execute(context.Background(), cmd); err != nil {
			t.Fatalf("Execute(%s) error = %v", cmd, err)
		}
		if len(*order) != 1 || (*order)[0] != "refresh" {
			t.Errorf("Execute(%s) order = %v, want [refresh]", cmd, *order)
		}
	}
}

func TestExecute_CustomSettleDelay(t *testing.T) {
	s := &fakeSender{}
	r := &fakeRefresher{current: heater.Parse("")}
	c, order := newTestController(s, r)
	c.SettleDelay = 5 * time.Second

	c.Execute(context.Background(), heater.CommandWaterOff)

	if (*order)[0] != "sleep 5s" {
		t.Errorf("order = %v, want sleep 5s first", *order)
	}

	c.SettleDelay = 0
	*order = nil
	c.Execute(context.Background(), heater.CommandWaterOff)
	if len(*order) != 1 {
		t.Errorf("zero settle delay should skip sleeping, order = %v", *order)
	}
}

func TestExecute_CommandErrorSkipsRefresh(t *testing.T) {
	s := &fakeSender{err: heater.NewHTTPStatusError(500, "heater")}
	r := &fakeRefresher{}
	c, _ := newTestController(s, r)
	rec := &fakeRecorder{}
	c.Recorder = rec

	_, err := c.Execute(context.Background(), heater.CommandAirOn)
	if !heater.IsCommunicationError(err) {
		t.Fatalf("Execute() error = %v, want communication error", err)
	}
	if r.refreshes != 0 {
		t.Errorf("refreshes = %d, want 0", r.refreshes)
	}
	if len(rec.cmds) != 1 || rec.errs[0] == nil {
		t.Errorf("recorder got %v / %v", rec.cmds, rec.errs)
	}
}

func TestExecute_RefreshErrorIsWrapped(t *testing.T) {
	refreshErr := errors.New("update failed")
	s := &fakeSender{}
	r := &fakeRefresher{err: refreshErr}
	c, _ := newTestController(s, r)

	_, err := c.Execute(context.Background(), heater.CommandTempUp)
	if !errors.Is(err, refreshErr) {
		t.Fatalf("Execute() error = %v, want wrapped refresh error", err)
	}
	if !strings.Contains(err.Error(), "temp_up sent") {
		t.Errorf("error should mention the command was sent: %v", err)
	}
}

func TestExecute_CancelledDuringSettle(t *testing.T) {
	s := &fakeSender{}
	r := &fakeRefresher{}
	c := New(s, r)
	c.SettleDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Execute(ctx, heater.CommandCombinedOn)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if r.refreshes != 0 {
		t.Error("refresh should not run after cancellation")
	}
}

func TestToggleAndIsOn(t *testing.T) {
	s := &fakeSender{}
	r := &fakeRefresher{current: heater.Parse("WATER HEATING STATUS: ON")}
	c, _ := newTestController(s, r)

	if !c.IsOn(heater.CircuitWater) {
		t.Error("water should be on")
	}
	if c.IsOn(heater.CircuitAir) {
		t.Error("absent air status should read as off")
	}

	c.Toggle(context.Background(), heater.CircuitWater)
	c.Toggle(context.Background(), heater.CircuitAir)

	want := []heater.Command{heater.CommandWaterOff, heater.CommandAirOn}
	for i := range want {
		if s.sent[i] != want[i] {
			t.Errorf("sent[%d] = %s, want %s", i, s.sent[i], want[i])
		}
	}
}

func TestIsOn_NoSnapshot(t *testing.T) {
	c := New(&fakeSender{}, &fakeRefresher{})
	if c.IsOn(heater.CircuitCombined) {
		t.Error("IsOn() should be false without a snapshot")
	}
}
