package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"rentapp/pkg/domain"
)

func (a *App) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show listing and list counts plus operation metrics for this run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			props, err := svc.Properties().GetAll(ctx)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			bySource := map[domain.Source]int{}
			for _, p := range props {
				bySource[p.Source]++
			}
			fmt.Fprintf(out, "properties: %d (static %d, submitted %d)\n",
				len(props), bySource[domain.SourceStatic], bySource[domain.SourceSubmitted])

			bookmarks, err := svc.Bookmarks().List(ctx, a.userID)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			followUp, err := svc.Pipeline().ListFollowUp(ctx, a.userID)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			closed, err := svc.Pipeline().ListClosed(ctx, a.userID)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			fmt.Fprintf(out, "bookmarks: %d\nfollow-up: %d\nclosed: %d\n", len(bookmarks), len(followUp), len(closed))

			entries, err := svc.Registry().Entries(ctx)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			fmt.Fprintf(out, "registered list keys: %d\n", len(entries))

			return a.printMetrics(out)
		},
	}
}

func (a *App) printMetrics(out io.Writer) error {
	switch {
	case a.registry != nil:
		families, err := a.registry.Gather()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				fmt.Fprintf(out, "%s%s %s\n", mf.GetName(), formatLabels(m.GetLabel()), formatValue(mf.GetType(), m))
			}
		}
	case a.expvar != nil:
		snap := a.expvar.Snapshot()
		for _, op := range sortedKeys(snap.Results) {
			fmt.Fprintf(out, "%s success=%d error=%d total_ms=%.3f\n",
				op, snap.Results[op]["success"], snap.Results[op]["error"], snap.DurationsMS[op])
		}
		fmt.Fprintf(out, "cache hits=%d misses=%d\n", snap.CacheHits, snap.CacheMisses)
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatValue(kind dto.MetricType, m *dto.Metric) string {
	switch kind {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%gs", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "-"
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
