// Package control sends commands to the heater and refreshes the coordinator
// afterwards. On/off switches get a settle delay first because the heater is
// slow to report their new state.
package control

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
)

// DefaultSettleDelay is how long to wait after an on/off command before the
// device reports the new status.
const DefaultSettleDelay = 2 * time.Second

// Sender delivers a command to the device. *heater.Client implements it.
type Sender interface {
	SendCommand(ctx context.Context, cmd heater.Command) error
}

// Refresher re-reads device state. *coordinator.Coordinator implements it.
type Refresher interface {
	Refresh(ctx context.Context) (*heater.Snapshot, error)
	Current() (*heater.Snapshot, bool)
}

// CommandRecorder observes sent commands, e.g. to export metrics.
type CommandRecorder interface {
	RecordCommand(cmd heater.Command, err error)
}

// Controller runs command-then-refresh sequences.
type Controller struct {
	sender    Sender
	refresher Refresher

	// SettleDelay is applied after switch commands. Zero or negative disables it.
	SettleDelay time.Duration

	// Recorder is optional
	Recorder CommandRecorder

	// sleep is replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a controller with DefaultSettleDelay.
func New(sender Sender, refresher Refresher) *Controller {
	return &Controller{
		sender:      sender,
		refresher:   refresher,
		SettleDelay: DefaultSettleDelay,
		sleep:       sleepContext,
	}
}

// Execute sends cmd, waits the settle delay for switch commands and then
// refreshes. The command error is returned as is; a refresh failure after a
// successful command is returned wrapped so callers can tell them apart.
func (c *Controller) Execute(ctx context.Context, cmd heater.Command) (*heater.Snapshot, error) {
	err := c.sender.SendCommand(ctx, cmd)
	if c.Recorder != nil {
		c.Recorder.RecordCommand(cmd, err)
	}
	if err != nil {
		return nil, err
	}

	if cmd.IsSwitch() && c.SettleDelay > 0 {
		logging.Debug("Waiting for heater to settle",
			zap.String("command", cmd.String()),
			zap.Duration("settle_delay", c.SettleDelay),
		)
		if err := c.sleep(ctx, c.SettleDelay); err != nil {
			return nil, err
		}
	}

	snapshot, err := c.refresher.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("command %s sent, refresh failed: %w", cmd, err)
	}
	return snapshot, nil
}

// Switch turns a circuit on or off.
func (c *Controller) Switch(ctx context.Context, circuit heater.Circuit, on bool) (*heater.Snapshot, error) {
	cmd, err := heater.SwitchCommand(circuit, on)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, cmd)
}

// Toggle flips a circuit based on the currently published status.
func (c *Controller) Toggle(ctx context.Context, circuit heater.Circuit) (*heater.Snapshot, error) {
	return c.Switch(ctx, circuit, !c.IsOn(circuit))
}

// IsOn reports the published status of a circuit. Unknown reads as off.
func (c *Controller) IsOn(circuit heater.Circuit) bool {
	snapshot, ok := c.refresher.Current()
	if !ok {
		return false
	}
	return snapshot.HeatingOn(circuit)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
