// Package cli exposes the property repository and the per-user lists as
// cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rentapp/internal/config"
	"rentapp/internal/core"
	"rentapp/internal/logging"
	"rentapp/pkg/domain"
)

// ErrTechnical is returned in place of storage failures on writes. The
// underlying error is logged.
var ErrTechnical = errors.New("technical issue")

// App holds the lazily opened service shared by every command of one run.
type App struct {
	cfg      config.Config
	log      *logrus.Logger
	userID   string
	svc      *core.Service
	registry *prometheus.Registry
	expvar   *core.ExpvarMetricsRecorder
	tracer   *core.JSONTraceTracer
	open     func(ctx context.Context, storage core.StorageOptions, opts ...core.Option) (*core.Service, error)
}

// New returns an App for cfg. A nil logger discards output.
func New(cfg config.Config, log *logrus.Logger) *App {
	if log == nil {
		log = logging.New("rentapp", cfg.LogLevel, io.Discard)
	}
	return &App{cfg: cfg, log: log, open: core.Open}
}

// RootCmd builds the command tree.
func (a *App) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rentapp",
		Short:         "Browse rental listings and manage bookmarks and follow-ups",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.userID, "user", "u", "", "acting user id (empty for guest)")
	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.mineCmd(),
		a.submitCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.bookmarkCmd(),
		a.followUpCmd(),
		a.closedCmd(),
		a.clearCmd(),
		a.statsCmd(),
	)
	return root
}

// Close releases the service when one was opened.
func (a *App) Close() error {
	if a.svc == nil {
		return nil
	}
	err := a.svc.Close()
	a.svc = nil
	return err
}

func (a *App) service(cmd *cobra.Command) (*core.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	opts := append(a.cfg.Options(), core.WithLogger(logging.Adapter{Logger: a.log}))
	switch a.cfg.Metrics {
	case "expvar":
		a.expvar = core.NewExpvarMetricsRecorder("")
		opts = append(opts, core.WithMetrics(a.expvar))
	case "", "prometheus":
		a.registry = prometheus.NewRegistry()
		rec, err := core.NewPrometheusMetricsRecorder(a.registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, core.WithMetrics(rec))
	default:
		return nil, fmt.Errorf("unknown metrics backend %s", a.cfg.Metrics)
	}
	if a.cfg.Trace {
		a.tracer = core.NewJSONTracer(cmd.ErrOrStderr())
		opts = append(opts, core.WithTracer(a.tracer))
	}
	svc, err := a.open(cmd.Context(), a.cfg.Storage(), opts...)
	if err != nil {
		a.log.WithError(err).Error("storage unavailable")
		return nil, fmt.Errorf("%w: storage is unavailable, contact %s", ErrTechnical, a.cfg.SupportContact)
	}
	a.svc = svc
	return svc, nil
}

// writeFailure hides storage errors behind a generic message. Validation
// and lookup errors are shown as is.
func (a *App) writeFailure(op string, err error) error {
	if errors.Is(err, domain.ErrInvalidProperty) || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	a.log.WithFields(logrus.Fields{"operation": op, "user": a.userID}).WithError(err).Error("write failed")
	return fmt.Errorf("%w: we could not save your changes, please try again later or contact %s", ErrTechnical, a.cfg.SupportContact)
}

// readWarning lets degraded reads through with a note on stderr.
func (a *App) readWarning(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrCorruptData) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: some saved data could not be read and was skipped")
		return nil
	}
	return err
}
