package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"glyco"
	"glyco/analysis"
	"glyco/defs"
	"glyco/ingest"
	"glyco/mg"
	"glyco/report"
)

var (
	configFile  string
	inputFile   string
	outputFile  string
	windowHours int
)

func init() {
	flag.StringVar(&configFile, "f", "config.yaml", "config file")
	flag.StringVar(&inputFile, "in", "", "analyze a CSV or XLSX export and exit")
	flag.IntVar(&windowHours, "hours", 0, "analyze the trailing archive window and exit")
	flag.StringVar(&outputFile, "out", "", "report path for -in or -hours, format by extension")
	flag.Parse()
}

func main() {
	logger, _ := zap.NewDevelopment()
	config := defs.Config{Logger: logger}

	file, err := os.ReadFile(configFile)
	if err != nil {
		panic(err)
	}

	if err = yaml.Unmarshal(file, &config); err != nil {
		panic(err)
	}

	logger.Debug("loaded config file", zap.String("file", configFile))

	switch {
	case inputFile != "":
		err = analyzeFile(config, inputFile, outputFile)
	case windowHours > 0:
		err = analyzeArchive(config, windowHours, outputFile)
	default:
		var s *glyco.Server
		if s, err = glyco.New(config); err == nil {
			err = s.Run(config.HTTP.Addr)
		}
	}
	if err != nil {
		panic(err)
	}
}

// analyzeFile runs one analysis over an exported series and prints the
// indices, optionally writing a report.
func analyzeFile(config defs.Config, path, out string) error {
	rs, err := ingest.ReadFile(path)
	if err != nil {
		return err
	}

	analyzer := &analysis.Analyzer{
		Logger:  config.Logger,
		Calc:    config.Calc.WithDefaults(),
		Alerts:  config.Alerts,
		Indices: config.Indices,
	}

	frame := ingest.Frame(rs)
	var start, end time.Time
	if ts := frame.Times(); len(ts) > 0 {
		start, end = ts[0], ts[len(ts)-1]
	}

	run, err := analyzer.AnalyzeFrame(frame, start, end)
	if err != nil {
		return err
	}

	printRun(run)
	return writeReport(analyzer, run, out)
}

// analyzeArchive runs one analysis over the trailing archive window.
func analyzeArchive(config defs.Config, hours int, out string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ms, err := mg.New(ctx, config.Mongo, config.Logger)
	if err != nil {
		return err
	}

	analyzer := &analysis.Analyzer{
		Store:   ms,
		Logger:  config.Logger,
		Calc:    config.Calc.WithDefaults(),
		Alerts:  config.Alerts,
		Indices: config.Indices,
	}

	end := time.Now()
	run, err := analyzer.AnalyzeWindow(context.Background(), end.Add(-time.Duration(hours)*time.Hour), end)
	if err != nil {
		return err
	}

	printRun(run)
	return writeReport(analyzer, run, out)
}

func printRun(run *analysis.Run) {
	for _, r := range run.Results {
		value := "n/a"
		if r.Defined() {
			value = strconv.FormatFloat(r.Value, 'f', 3, 64)
		}
		fmt.Printf("%-30s %s\n", r.Name, value)
	}
}

func writeReport(analyzer *analysis.Analyzer, run *analysis.Run, out string) error {
	if out == "" {
		return nil
	}

	sum := analyzer.Summary(run)

	var b []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".pdf":
		b, err = report.BuildPDF(sum)
	case ".xlsx":
		b, err = report.BuildXLSX(sum)
	default:
		return fmt.Errorf("unsupported report extension %q", ext)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(out, b, 0o644)
}
