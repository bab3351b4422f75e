// Package analysis runs the variability engine over archived or ad-hoc
// series, raises limit alerts, and publishes run reports.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glyco/defs"
	"glyco/gvi"
	"glyco/ingest"
	"glyco/metrics"
	"glyco/mg"
	"glyco/notify"
	"glyco/report"
)

const (
	// DefaultLookback is the window analyzed when the caller gives none.
	DefaultLookback = 24 * time.Hour

	// alertCooldown suppresses repeat alerts for the same index.
	alertCooldown = time.Hour

	congaName      = "CONGA 1h"
	episodesName   = "Hypoglycemic episodes"
	episodeDurName = "Mean episode duration (min)"
	timeBelowName  = "Time below range (min)"
	timeAboveName  = "Time above range (min)"
)

type Store interface {
	mg.ReadingStore
	mg.AlertStore
	mg.FileStore
}

type Analyzer struct {
	Store    Store
	Messager notify.Messager

	Logger  *zap.Logger
	Calc    defs.CalcConfig
	Alerts  defs.AlertsConfig
	Indices []string
}

// Run is one completed analysis over a window of readings.
type Run struct {
	ID      string
	Start   time.Time
	End     time.Time
	Results []gvi.Result
}

// IngestSource pulls the latest readings from src into the archive.
func (an *Analyzer) IngestSource(ctx context.Context, src ingest.Source, maxCount int) (int, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() { metrics.ObserveIngest(result, time.Since(start)) }()

	rs, err := src.Readings(ctx, maxCount)
	if err != nil {
		result = metrics.ResultError
		return 0, fmt.Errorf("unable to fetch readings: %w", err)
	}

	written := 0
	for i := range rs {
		res, err := an.Store.WriteReading(ctx, &rs[i])
		if err != nil {
			result = metrics.ResultError
			return written, fmt.Errorf("unable to store reading: %w", err)
		}
		if res.MatchedCount == 0 {
			written++
		}
	}
	metrics.AddReadingsWritten(written)

	an.Logger.Debug("ingested readings",
		zap.Int("fetched", len(rs)),
		zap.Int("written", written),
	)
	return written, nil
}

// AnalyzeWindow loads the archived readings between start and end and
// analyzes them.
func (an *Analyzer) AnalyzeWindow(ctx context.Context, start, end time.Time) (*Run, error) {
	readings, err := an.Store.ReadReadings(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("unable to load window: %w", err)
	}

	run, err := an.AnalyzeFrame(ingest.Frame(readings), start, end)
	if err != nil {
		return nil, err
	}

	if err := an.evaluateAlerts(ctx, run); err != nil {
		an.Logger.Error("unable to evaluate alerts", zap.Error(err))
	}
	return run, nil
}

// AnalyzeFrame computes the configured index batch plus the event block
// over an already prepared frame.
func (an *Analyzer) AnalyzeFrame(frame *defs.Frame, start, end time.Time) (*Run, error) {
	began := time.Now()
	result := metrics.ResultSuccess
	defer func() { metrics.ObserveAnalysis(result, time.Since(began)) }()

	cfg := an.Calc.WithDefaults()

	names := append([]string(nil), an.Indices...)
	if len(names) == 0 {
		names = append(names, gvi.DefaultIndices...)
	}
	if an.Alerts.LBGIMax > 0 {
		names = ensureName(names, "LBGI")
	}
	if an.Alerts.HBGIMax > 0 {
		names = ensureName(names, "HBGI")
	}

	results, err := gvi.Batch(frame, &cfg, names...)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("unable to compute indices: %w", err)
	}
	results = append(results, an.eventResults(frame, &cfg)...)

	run := &Run{
		ID:      uuid.NewString(),
		Start:   start,
		End:     end,
		Results: results,
	}

	an.Logger.Info("analysis complete",
		zap.String("run", run.ID),
		zap.Int("indices", len(run.Results)),
	)
	return run, nil
}

// eventResults computes the parameterized indices the registry does not
// carry. Threshold scans only run when the range is configured.
func (an *Analyzer) eventResults(frame *defs.Frame, cfg *defs.CalcConfig) []gvi.Result {
	var out []gvi.Result

	conga, err := gvi.NewCONGA(frame, cfg)
	if err == nil {
		v, cerr := conga.Calculate(1)
		out = append(out, gvi.Result{Name: congaName, Value: v, Err: cerr})
	}

	if cfg.HypoThreshold > 0 {
		if ix, err := gvi.NewHypoEventCount(frame, cfg); err == nil {
			v, cerr := ix.Calculate(cfg.HypoThreshold, cfg.EventDuration)
			out = append(out, gvi.Result{Name: episodesName, Value: v, Err: cerr})
		}
		if ix, err := gvi.NewMeanHypoEventDuration(frame, cfg); err == nil {
			v, cerr := ix.Calculate(cfg.HypoThreshold, cfg.EventDuration)
			out = append(out, gvi.Result{Name: episodeDurName, Value: v, Err: cerr})
		}
		if ix, err := gvi.NewTimeInHypo(frame, cfg); err == nil {
			v, cerr := ix.Calculate(cfg.HypoThreshold)
			out = append(out, gvi.Result{Name: timeBelowName, Value: v, Err: cerr})
		}
	}

	if cfg.HyperThreshold > 0 {
		if ix, err := gvi.NewTimeInHyper(frame, cfg); err == nil {
			v, cerr := ix.Calculate(cfg.HyperThreshold)
			out = append(out, gvi.Result{Name: timeAboveName, Value: v, Err: cerr})
		}
	}

	return out
}

// evaluateAlerts checks the run against the configured limits, writing
// and sending at most one alert per index per cooldown.
func (an *Analyzer) evaluateAlerts(ctx context.Context, run *Run) error {
	if an.Store == nil {
		return nil
	}

	limits := map[string]float64{}
	if an.Alerts.LBGIMax > 0 {
		limits["LBGI"] = an.Alerts.LBGIMax
	}
	if an.Alerts.HBGIMax > 0 {
		limits["HBGI"] = an.Alerts.HBGIMax
	}
	if an.Alerts.TimeBelowMax > 0 {
		limits[timeBelowName] = an.Alerts.TimeBelowMax
	}
	if len(limits) == 0 {
		return nil
	}

	now := time.Now()
	recent, _ := an.Store.ReadAlerts(ctx, now.Add(-alertCooldown), now)
	alerted := make(map[string]bool, len(recent))
	for _, al := range recent {
		alerted[al.Index] = true
	}

	for _, r := range run.Results {
		limit, ok := limits[r.Name]
		if !ok || !r.Defined() || r.Value <= limit {
			continue
		}
		if alerted[r.Name] {
			an.Logger.Debug("suppressing repeat alert", zap.String("index", r.Name))
			continue
		}
		reason := fmt.Sprintf("%s at %.2f exceeds limit %.2f", r.Name, r.Value, limit)
		if err := an.genAndSendAlert(ctx, r.Name, r.Value, limit, reason); err != nil {
			return err
		}
	}

	return nil
}

func (an *Analyzer) genAndSendAlert(ctx context.Context, index string, value, limit float64, reason string) error {
	_, err := an.Store.WriteAlert(ctx, &defs.Alert{
		Time:   time.Now(),
		Index:  index,
		Value:  value,
		Limit:  limit,
		Reason: reason,
	})
	if err != nil {
		return err
	}
	metrics.IncAlert(index)

	if an.Messager == nil {
		return nil
	}

	_, err = an.Messager.SendMessage(notify.MessageData{
		Content: "@everyone",
		Embeds: []notify.EmbedData{
			{
				Fields: []notify.EmbedField{
					{
						Name:  "⚠️ " + index,
						Value: reason,
					},
				},
			},
		},
		MentionEveryone: true,
	}, notify.AlertsChannel)
	return err
}

// PublishReport renders the run as a PDF, archives it, and posts it to
// the reports channel.
func (an *Analyzer) PublishReport(ctx context.Context, run *Run) error {
	began := time.Now()
	result := metrics.ResultSuccess
	defer func() { metrics.ObserveReport("pdf", result, time.Since(began)) }()

	sum := an.Summary(run)

	b, err := report.BuildPDF(sum)
	if err != nil {
		result = metrics.ResultError
		return fmt.Errorf("unable to build report: %w", err)
	}
	name := report.Filename(run.ID, "pdf")

	if an.Store != nil {
		fid, err := an.Store.SaveFile(ctx, name, bytes.NewReader(b))
		if err != nil {
			result = metrics.ResultError
			return fmt.Errorf("unable to archive report: %w", err)
		}
		an.Logger.Info("archived report", zap.String("run", run.ID), zap.String("file", fid))
	}

	if an.Messager == nil {
		return nil
	}

	_, err = an.Messager.SendMessage(notify.MessageData{
		Embeds: []notify.EmbedData{summaryEmbed(sum)},
		Files: []notify.FileData{
			{Name: name, Reader: bytes.NewReader(b)},
		},
	}, notify.ReportsChannel)
	if err != nil {
		result = metrics.ResultError
	}
	return err
}

// Summary shapes the run for the report builders.
func (an *Analyzer) Summary(run *Run) report.Summary {
	return report.Summary{
		RunID:    run.ID,
		Start:    run.Start,
		End:      run.End,
		Unit:     an.Calc.Unit,
		Interval: an.Calc.Interval,
		Results:  run.Results,
	}
}

// summaryEmbed packs the headline indices into an embed so the channel
// shows them without opening the attachment.
func summaryEmbed(sum report.Summary) notify.EmbedData {
	fields := make([]notify.EmbedField, 0, len(sum.Results))
	for _, r := range sum.Results {
		value := "n/a"
		if r.Defined() {
			value = fmt.Sprintf("%.2f", r.Value)
		}
		fields = append(fields, notify.EmbedField{Name: r.Name, Value: value, Inline: true})
	}

	return notify.EmbedData{
		Title: "Glycemic variability",
		Description: fmt.Sprintf("%s to %s",
			sum.Start.Format(notify.TimeFormat),
			sum.End.Format(notify.TimeFormat),
		),
		Fields: fields,
	}
}

func ensureName(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
