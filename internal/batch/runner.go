// =============================================================================
// XML to JSON Converter - Batch Runner
// =============================================================================
//
// This module converts many files concurrently. Each file runs the full
// pipeline independently, so a failure in one file never affects another.
//
// PIPELINE PER FILE:
//   1. Resolve the output path (mirrored layout, distinct per input,
//      collision policy)
//   2. Back up the input file when requested
//   3. Parse and convert the XML
//   4. Extract the NFe record when an extractor is configured
//   5. Write the JSON atomically
//
// CONCURRENCY:
//   A fixed pool of MaxConcurrency workers pulls files from a queue.
//   Cancelling the context stops dispatching; files never started are
//   reported as skipped with the context error.
//
// =============================================================================

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/converter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/jsonwriter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/nfe"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/xmlparser"
	"github.com/ginjaninja78/XML-to-JSON-conversion/pkg/utils"
)

// Status is the outcome of one file.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result represents the outcome of converting a single file.
type Result struct {
	InputFile  string
	OutputFile string
	BackupFile string
	Status     Status
	Err        error
	Stats      converter.Stats
	Duration   time.Duration

	// NFe is set when extraction ran and the document is an invoice.
	NFe *nfe.Record
}

// Options contains options for a batch run.
type Options struct {
	// MaxConcurrency is the number of worker goroutines.
	// Default: 4
	MaxConcurrency int

	// Backup copies each input file aside before it is converted.
	Backup bool

	// Writer controls JSON generation.
	Writer jsonwriter.Options
}

// Runner converts files with shared, read-only components.
type Runner struct {
	conv   *converter.Converter
	ext    *nfe.Extractor
	files  *utils.FileManager
	opts   Options
	logger *zap.Logger
}

// New creates a Runner. ext may be nil to skip NFe extraction.
func New(conv *converter.Converter, ext *nfe.Extractor, files *utils.FileManager, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 4
	}
	return &Runner{conv: conv, ext: ext, files: files, opts: opts, logger: logger}
}

// Run converts inputs and returns one result per input, in input order.
func (r *Runner) Run(ctx context.Context, inputs []string) *Summary {
	summary := &Summary{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
		Results:   make([]Result, len(inputs)),
	}
	log := r.logger.With(zap.String("run_id", summary.RunID))
	log.Info("batch started", zap.Int("files", len(inputs)), zap.Int("workers", r.opts.MaxConcurrency))

	outputs := r.files.OutputPaths(inputs)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.opts.MaxConcurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				summary.Results[i] = r.process(inputs[i], outputs[i])
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(inputs); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(inputs); i++ {
		summary.Results[i] = Result{InputFile: inputs[i], Status: StatusSkipped, Err: ctx.Err()}
	}
	if next < len(inputs) {
		log.Warn("batch cancelled", zap.Int("not_started", len(inputs)-next))
	}

	summary.EndTime = time.Now()
	log.Info("batch finished",
		zap.Int("converted", summary.Converted()),
		zap.Int("skipped", summary.Skipped()),
		zap.Int("failed", summary.Failed()),
		zap.Duration("duration", summary.EndTime.Sub(summary.StartTime)),
	)
	return summary
}

// Process runs the pipeline for a single file.
func (r *Runner) Process(input string) Result {
	return r.process(input, r.files.OutputPath(input))
}

func (r *Runner) process(input, target string) Result {
	start := time.Now()
	res := Result{InputFile: input}
	log := r.logger.With(zap.String("file", input))

	out, err := r.files.ResolveOutput(target)
	if errors.Is(err, utils.ErrOutputExists) {
		res.Status = StatusSkipped
		res.Err = err
		log.Info("output exists, skipping")
		return res
	}
	res.OutputFile = out

	if r.opts.Backup {
		backup, err := r.files.BackupFile(input)
		if err != nil {
			return r.fail(res, start, err)
		}
		res.BackupFile = backup
	}

	v, stats, err := r.conv.ConvertFileWithStats(input)
	if err != nil {
		return r.fail(res, start, err)
	}
	res.Stats = stats

	if r.ext != nil {
		if rec := r.ext.Extract(v); rec.IsNFe {
			res.NFe = rec
			if err := rec.Err(); err != nil {
				log.Warn("incomplete NFe", zap.Strings("missing", rec.Missing))
			}
		}
	}

	if err := jsonwriter.WriteFile(out, v, r.opts.Writer); err != nil {
		return r.fail(res, start, err)
	}

	res.Status = StatusConverted
	res.Duration = time.Since(start)
	log.Debug("file converted", zap.String("output", out), zap.Duration("duration", res.Duration))
	return res
}

func (r *Runner) fail(res Result, start time.Time, err error) Result {
	res.Status = StatusFailed
	res.Err = err
	res.Duration = time.Since(start)
	r.logger.Error("conversion failed", zap.String("file", res.InputFile), zap.Error(err))
	return res
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary collects the results of one run.
type Summary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Results   []Result
}

func (s *Summary) count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Converted returns the number of files written.
func (s *Summary) Converted() int { return s.count(StatusConverted) }

// Skipped returns the number of files not converted on purpose.
func (s *Summary) Skipped() int { return s.count(StatusSkipped) }

// Failed returns the number of files that could not be converted.
func (s *Summary) Failed() int { return s.count(StatusFailed) }

// Records returns the NFe records of converted invoices, in input order.
func (s *Summary) Records() []*nfe.Record {
	var out []*nfe.Record
	for _, r := range s.Results {
		if r.NFe != nil {
			out = append(out, r.NFe)
		}
	}
	return out
}

// Err joins the per-file failures, or returns nil.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", r.InputFile, r.Err))
		}
	}
	return errors.Join(errs...)
}

// ProcessingSummary converts s for the summary log.
func (s *Summary) ProcessingSummary() utils.ProcessingSummary {
	ps := utils.ProcessingSummary{
		RunID:           s.RunID,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		TotalFiles:      len(s.Results),
		SuccessfulFiles: s.Converted(),
		SkippedFiles:    s.Skipped(),
		FailedFiles:     s.Failed(),
		NFeDocuments:    len(s.Records()),
	}
	for _, r := range s.Results {
		switch r.Status {
		case StatusConverted:
			ps.ProcessedFiles = append(ps.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   r.InputFile,
				OutputFile:  r.OutputFile,
				Elements:    r.Stats.Elements,
				ProcessTime: r.Duration,
			})
		case StatusFailed:
			ps.FailedFilesList = append(ps.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.InputFile,
				ErrorMessage: r.Err.Error(),
				ErrorType:    ErrorType(r.Err),
			})
		}
	}
	return ps
}

// ErrorEntries converts the failures for the error log.
func (s *Summary) ErrorEntries() []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, r := range s.Results {
		if r.Status != StatusFailed {
			continue
		}
		entry := utils.ErrorLogEntry{
			Timestamp:    s.EndTime,
			FileName:     r.InputFile,
			ErrorType:    ErrorType(r.Err),
			ErrorMessage: r.Err.Error(),
		}
		var pe *xmlparser.ParseError
		if errors.As(r.Err, &pe) {
			entry.Line, entry.Column = pe.Line, pe.Column
		}
		entries = append(entries, entry)
	}
	return entries
}

// WriteLogs writes the summary log and, when something failed, the error
// log into dir.
func (s *Summary) WriteLogs(dir string) (summaryPath, errorPath string, err error) {
	summaryPath, err = utils.WriteSummaryLog(s.ProcessingSummary(), dir)
	if err != nil {
		return "", "", err
	}
	errorPath, err = utils.WriteErrorLog(s.ErrorEntries(), dir)
	if err != nil {
		return summaryPath, "", err
	}
	return summaryPath, errorPath, nil
}

// ErrorType classifies err for logs.
func ErrorType(err error) string {
	var pe *xmlparser.ParseError
	var ee *xmlparser.UnsupportedEncodingError
	switch {
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &ee):
		return "encoding"
	case errors.Is(err, xmlparser.ErrFileTooLarge):
		return "size"
	default:
		return "io"
	}
}
