// Package api exposes the reading archive and the analyzer over HTTP.
package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"glyco/analysis"
	"glyco/defs"
	"glyco/gvi"
	"glyco/metrics"
	"glyco/mg"
	"glyco/report"
)

const (
	readTimeout    = 2 * time.Second
	analyzeTimeout = 10 * time.Second
)

type Store interface {
	mg.ReadingStore
	mg.AlertStore
	mg.FileStore
}

type Server struct {
	Store    Store
	Analyzer *analysis.Analyzer
	Logger   *zap.Logger

	engine *gin.Engine
}

func New(store Store, an *analysis.Analyzer, logger *zap.Logger) *Server {
	s := &Server{
		Store:    store,
		Analyzer: an,
		Logger:   logger,
	}
	s.engine = s.routes()
	return s
}

// Engine exposes the router for tests and custom listeners.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.Logger.Info("serving http", zap.String("addr", addr))
	return s.engine.Run(addr)
}

func (s *Server) routes() *gin.Engine {
	r := gin.Default()
	r.GET("/glucose", s.getGlucose)
	r.GET("/alerts", s.getAlerts)
	r.GET("/indices", s.getIndices)
	r.POST("/analyze", s.postAnalyze)
	r.GET("/analysis", s.getAnalysis)
	r.GET("/report", s.getReport)
	r.GET("/files/:fid", s.getFile)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// parseWindow reads the start and end query parameters as unix seconds.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	start := c.DefaultQuery("start", "")
	startUnix, err := strconv.Atoi(start)
	if err != nil {
		c.String(http.StatusBadRequest, "expected unix timestamp for start")
		return time.Time{}, time.Time{}, false
	}

	end := c.DefaultQuery("end", "")
	endUnix, err := strconv.Atoi(end)
	if err != nil {
		c.String(http.StatusBadRequest, "expected unix timestamp for end")
		return time.Time{}, time.Time{}, false
	}

	return time.Unix(int64(startUnix), 0), time.Unix(int64(endUnix), 0), true
}

func (s *Server) getGlucose(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	rs, err := s.Store.ReadReadings(ctx, start, end)
	if err != nil {
		c.String(http.StatusInternalServerError, "unable to read readings: %v", err)
		return
	}

	c.JSON(http.StatusOK, rs)
}

func (s *Server) getAlerts(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	alerts, err := s.Store.ReadAlerts(ctx, start, end)
	if err != nil {
		c.String(http.StatusInternalServerError, "unable to read alerts: %v", err)
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func (s *Server) getIndices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"indices":  gvi.Names(),
		"defaults": gvi.DefaultIndices,
	})
}

type analyzeRequest struct {
	Unit           string     `json:"unit"`
	Interval       float64    `json:"interval"`
	Values         []*float64 `json:"values"`
	Indices        []string   `json:"indices"`
	HypoThreshold  int        `json:"hypoThreshold"`
	HyperThreshold int        `json:"hyperThreshold"`
}

type indexValue struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

type runResponse struct {
	ID      string       `json:"id"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	Results []indexValue `json:"results"`
}

// marshalRun maps undefined statistics to JSON null. NaN never reaches
// the encoder.
func marshalRun(run *analysis.Run) runResponse {
	resp := runResponse{ID: run.ID, Start: run.Start, End: run.End}
	for _, r := range run.Results {
		iv := indexValue{Name: r.Name}
		if r.Defined() {
			v := r.Value
			iv.Value = &v
		}
		resp.Results = append(resp.Results, iv)
	}
	return resp
}

// postAnalyze computes indices over a series supplied in the request
// body. Null entries mark sensor gaps.
func (s *Server) postAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "unable to parse request: %v", err)
		return
	}

	vs := make([]float64, len(req.Values))
	for i, v := range req.Values {
		if v == nil {
			vs[i] = defs.Missing()
		} else {
			vs[i] = *v
		}
	}

	an := *s.Analyzer
	an.Store = nil
	an.Messager = nil
	if req.Unit != "" {
		an.Calc.Unit = req.Unit
	}
	if req.Interval > 0 {
		an.Calc.Interval = req.Interval
	}
	if len(req.Indices) > 0 {
		an.Indices = req.Indices
	}
	if req.HypoThreshold > 0 {
		an.Calc.HypoThreshold = req.HypoThreshold
	}
	if req.HyperThreshold > 0 {
		an.Calc.HyperThreshold = req.HyperThreshold
	}

	now := time.Now()
	run, err := an.AnalyzeFrame(defs.GlucoseFrame(vs), now, now)
	if err != nil {
		c.String(http.StatusBadRequest, "unable to analyze series: %v", err)
		return
	}

	c.JSON(http.StatusOK, marshalRun(run))
}

func (s *Server) getAnalysis(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		c.String(http.StatusBadRequest, "expected positive hour count")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	end := time.Now()
	run, err := s.Analyzer.AnalyzeWindow(ctx, end.Add(-time.Duration(hours)*time.Hour), end)
	if err != nil {
		c.String(http.StatusInternalServerError, "unable to analyze window: %v", err)
		return
	}

	c.JSON(http.StatusOK, marshalRun(run))
}

// getReport analyzes the trailing window and streams the rendered
// report back inline.
func (s *Server) getReport(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		c.String(http.StatusBadRequest, "expected positive hour count")
		return
	}
	format := c.DefaultQuery("format", "pdf")

	began := time.Now()
	result := metrics.ResultSuccess
	defer func() { metrics.ObserveReport(format, result, time.Since(began)) }()

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	end := time.Now()
	run, err := s.Analyzer.AnalyzeWindow(ctx, end.Add(-time.Duration(hours)*time.Hour), end)
	if err != nil {
		result = metrics.ResultError
		c.String(http.StatusInternalServerError, "unable to analyze window: %v", err)
		return
	}

	sum := s.Analyzer.Summary(run)

	var b []byte
	var contentType string
	switch format {
	case "pdf":
		b, err = report.BuildPDF(sum)
		contentType = "application/pdf"
	case "xlsx":
		b, err = report.BuildXLSX(sum)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		result = metrics.ResultError
		c.String(http.StatusBadRequest, "unsupported format %q", format)
		return
	}
	if err != nil {
		result = metrics.ResultError
		c.String(http.StatusInternalServerError, "unable to build report: %v", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(run.ID, format)+`"`)
	c.Data(http.StatusOK, contentType, b)
}

func (s *Server) getFile(c *gin.Context) {
	fid := c.Param("fid")

	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	r, err := s.Store.ReadFile(ctx, fid)
	if err != nil {
		c.String(http.StatusNotFound, "unable to read file: %v", err)
		return
	}

	b, err := io.ReadAll(r)
	if err != nil {
		c.String(http.StatusInternalServerError, "unable to read file: %v", err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", b)
}
