package main

import (
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/bobil/internal/config"
	"github.com/muurk/bobil/internal/control"
	"github.com/muurk/bobil/internal/coordinator"
	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
	"github.com/muurk/bobil/internal/metrics"
	"github.com/muurk/bobil/internal/ui"
)

// errNoHost is returned by commands that talk to the heater when neither
// --host nor the config file name one.
var errNoHost = errors.New("no heater host configured: pass --host or run 'bobil config init --host <addr>'")

// app holds the state shared by all commands: flags, the loaded config and
// the I/O streams.
type app struct {
	in  io.Reader
	out io.Writer

	// persistent flags
	host       string
	timeout    time.Duration
	logLevel   string
	configPath string

	cfg *config.Config

	// httpClient is shared by every heater client. Tests replace it.
	httpClient *http.Client
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{in: in, out: out}
}

// load reads the config file and applies flag overrides. It runs before
// every command.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Device.Host = a.host
	}
	if flags.Changed("timeout") {
		cfg.Device.Timeout = config.Duration(a.timeout)
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	} else if env := os.Getenv(logging.LogLevelEnvVar); env != "" {
		cfg.LogLevel = env
	}

	return logging.Initialize(cfg.LogLevel)
}

func (a *app) printer() *ui.Printer {
	return ui.NewPrinter(a.out)
}

func (a *app) client() (*heater.Client, error) {
	if a.cfg.Device.Host == "" {
		return nil, errNoHost
	}
	c := heater.NewClient(a.cfg.Device.Host, a.httpClient)
	c.SetTimeout(a.cfg.Device.Timeout.Std())
	return c, nil
}

// stack is the client, coordinator and controller for one heater.
type stack struct {
	client      *heater.Client
	coordinator *coordinator.Coordinator
	controller  *control.Controller
	metrics     *metrics.Metrics
}

func (a *app) stack() (*stack, error) {
	return a.newStack(nil)
}

// newStack builds the stack. A non-nil breaker puts fetches behind a circuit
// breaker.
func (a *app) newStack(breaker *coordinator.BreakerSettings) (*stack, error) {
	client, err := a.client()
	if err != nil {
		return nil, err
	}

	var fetcher coordinator.Fetcher = client
	if breaker != nil {
		breaker.Host = client.Host
		fetcher = coordinator.NewBreakerFetcher(client, *breaker)
	}

	m := metrics.New()
	coord := coordinator.New(fetcher, coordinator.WithRecorder(m))
	ctrl := control.New(client, coord)
	ctrl.SettleDelay = a.cfg.Device.SettleDelay.Std()
	ctrl.Recorder = m

	return &stack{client: client, coordinator: coord, controller: ctrl, metrics: m}, nil
}
