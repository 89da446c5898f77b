package engine

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/clay-good/reviewr/internal/cache"
	"github.com/clay-good/reviewr/internal/fileset"
	"github.com/clay-good/reviewr/internal/finding"
)

// Tool identity stamped into every report.
const (
	ToolName    = "reviewr"
	ToolVersion = "1.0"
)

// InputInfo records what was analyzed.
type InputInfo struct {
	Paths       []string `json:"paths"`
	Parallelism int      `json:"parallelism"`
}

// Timing holds per-phase durations in milliseconds, summed across files.
type Timing struct {
	ParseMs   int64 `json:"parseMs"`
	AnalyzeMs int64 `json:"analyzeMs"`
	TotalMs   int64 `json:"totalMs"`
}

// Report is the complete output of one analysis run.
type Report struct {
	Tool     string            `json:"tool"`
	Version  string            `json:"version"`
	RunID    string            `json:"runId"`
	Inputs   InputInfo         `json:"inputs"`
	Summary  finding.Summary   `json:"summary"`
	Findings []finding.Finding `json:"findings"`
	Files    []*FileResult     `json:"files"`
	Timing   Timing            `json:"timing"`
}

// AnalyzePaths expands the paths and analyzes every selected file on a
// bounded worker pool. Cancellation is cooperative: files not yet started
// are declined, in-flight files finish and stay in the report.
func (e *Engine) AnalyzePaths(ctx context.Context, paths []string, parallelism int) (*Report, error) {
	startTime := time.Now()

	files, err := fileset.Expand(paths, fileset.Options{
		Include: e.cfg.Include,
		Exclude: e.cfg.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("resolving inputs: %w", err)
	}

	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	e.log.Debug("analyzing", "files", len(files), "parallelism", parallelism)

	results := make([]*FileResult, len(files))
	var wg sync.WaitGroup
	sem := make(chan struct{}, parallelism)

	for i, f := range files {
		wg.Add(1)
		go func(i int, f fileset.File) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			if ctx.Err() != nil {
				results[i] = &FileResult{
					Path:     f.Path,
					Language: f.Language,
					Status:   StatusSkipped,
				}
				return
			}

			src, err := os.ReadFile(f.Path)
			if err != nil {
				e.log.Warn("unreadable file", "path", f.Path, "error", err)
				results[i] = &FileResult{
					Path:       f.Path,
					Language:   f.Language,
					Status:     StatusSkipped,
					ParseError: err.Error(),
				}
				return
			}

			results[i] = e.analyzeCached(ctx, f, src)
		}(i, f)
	}

	wg.Wait()

	// Merge in file order so the report is stable for identical inputs.
	var all []finding.Finding
	var timing Timing
	for _, r := range results {
		all = append(all, r.Findings...)
		timing.ParseMs += r.ParseMs
		timing.AnalyzeMs += r.AnalyzeMs
	}
	all = finding.Dedupe(all, finding.DedupeOptions{
		LineWindow: e.cfg.Dedupe.Window,
		Similarity: e.cfg.Dedupe.Similarity,
	})
	timing.TotalMs = time.Since(startTime).Milliseconds()

	return &Report{
		Tool:    ToolName,
		Version: ToolVersion,
		RunID:   generateRunID(),
		Inputs: InputInfo{
			Paths:       paths,
			Parallelism: parallelism,
		},
		Summary:  finding.ComputeSummary(all),
		Findings: all,
		Files:    results,
		Timing:   timing,
	}, nil
}

// analyzeCached consults the result cache before running the pipeline. Only
// fully successful results are cached; skipped or degraded ones are always
// recomputed.
func (e *Engine) analyzeCached(ctx context.Context, f fileset.File, src []byte) *FileResult {
	if !e.cache.Enabled() {
		return e.AnalyzeFile(ctx, f.Path, src, f.Language)
	}

	key := cache.BuildKey(ToolVersion, e.cfgKey, f.Path, src)
	if payload, ok := e.cache.Get(key); ok {
		var res FileResult
		if err := json.Unmarshal([]byte(payload), &res); err == nil {
			res.Cached = true
			e.log.Debug("cache hit", "path", f.Path)
			return &res
		}
	}

	res := e.AnalyzeFile(ctx, f.Path, src, f.Language)
	if res.Status == StatusOK {
		if data, err := json.Marshal(res); err == nil {
			if err := e.cache.Put(key, string(data)); err != nil {
				e.log.Warn("cache write failed", "path", f.Path, "error", err)
			}
		}
	}
	return res
}

func generateRunID() string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	return fmt.Sprintf("%x", h[:16])
}
