// Package glyco wires the reading archive, the CGM source, Discord,
// the analyzer, and the HTTP API into one long-running service.
package glyco

import (
	"context"
	"time"

	"go.uber.org/zap"

	"glyco/analysis"
	"glyco/api"
	"glyco/defs"
	"glyco/ingest"
	"glyco/metrics"
	"glyco/mg"
	"glyco/notify"
)

const (
	FetcherInterval  = 1 * time.Minute
	AnalysisInterval = 5 * time.Minute
	ReportInterval   = 24 * time.Hour

	// AnalysisLookback is the trailing window each periodic run covers.
	AnalysisLookback = 24 * time.Hour

	DefaultAddr = ":4242"

	timeoutInterval = 2 * time.Second
)

type Server struct {
	Source   ingest.Source
	Discord  *notify.Discord
	Store    *mg.MongoStore
	Analyzer *analysis.Analyzer
	API      *api.Server
	Logger   *zap.Logger
}

func New(config defs.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutInterval)
	defer cancel()

	metrics.Init()

	ms, err := mg.New(ctx, config.Mongo, config.Logger)
	if err != nil {
		return nil, err
	}

	ns := ingest.NewClient(config.Nightscout, config.Calc.Unit, config.Logger)

	var msger notify.Messager
	var discord *notify.Discord
	if config.Discord.Token != "" {
		discord, err = notify.NewDiscord(config.Discord, config.Logger)
		if err != nil {
			return nil, err
		}
		if err = discord.Setup([]string{notify.AlertsChannel, notify.ReportsChannel}); err != nil {
			return nil, err
		}
		msger = discord
	}

	analyzer := &analysis.Analyzer{
		Store:    ms,
		Messager: msger,
		Logger:   config.Logger,
		Calc:     config.Calc.WithDefaults(),
		Alerts:   config.Alerts,
		Indices:  config.Indices,
	}

	config.Logger.Debug("finished server setup")

	return &Server{
		Source:   ns,
		Discord:  discord,
		Store:    ms,
		Analyzer: analyzer,
		API:      api.New(ms, analyzer, config.Logger),
		Logger:   config.Logger,
	}, nil
}

func (s *Server) ExecuteTask(interval time.Duration, task func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for ; true; <-ticker.C {
		task()
	}
}

func (s *Server) FetchReadings() {
	if _, err := s.Analyzer.IngestSource(context.Background(), s.Source, ingest.CountLimit); err != nil {
		s.Logger.Error("unable to ingest readings", zap.Error(err))
	}
}

func (s *Server) AnalyzeRecent() {
	end := time.Now()
	if _, err := s.Analyzer.AnalyzeWindow(context.Background(), end.Add(-AnalysisLookback), end); err != nil {
		s.Logger.Error("unable to analyze window", zap.Error(err))
	}
}

func (s *Server) PublishDailyReport() {
	ctx := context.Background()
	end := time.Now()

	run, err := s.Analyzer.AnalyzeWindow(ctx, end.Add(-ReportInterval), end)
	if err != nil {
		s.Logger.Error("unable to analyze window", zap.Error(err))
		return
	}
	if err := s.Analyzer.PublishReport(ctx, run); err != nil {
		s.Logger.Error("unable to publish report", zap.Error(err))
	}
}

// Run starts the periodic loops and serves the API. It blocks until the
// listener fails.
func (s *Server) Run(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	go s.ExecuteTask(FetcherInterval, s.FetchReadings)
	go s.ExecuteTask(AnalysisInterval, s.AnalyzeRecent)
	go s.ExecuteTask(ReportInterval, s.PublishDailyReport)

	return s.API.Run(addr)
}
