package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/clay-good/reviewr/internal/cache"
	"github.com/clay-good/reviewr/internal/catalog"
	"github.com/clay-good/reviewr/internal/config"
	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/metrics"
	"github.com/clay-good/reviewr/internal/security"
	"github.com/clay-good/reviewr/internal/semantic"
	"github.com/clay-good/reviewr/internal/syntax"
	"github.com/clay-good/reviewr/internal/taint"
)

// Stage names, in pipeline order.
const (
	StageSecurity = "security"
	StageTaint    = "taint"
	StageMetrics  = "metrics"
	StageSemantic = "semantic"
)

// Options configures engine construction.
type Options struct {
	Logger hclog.Logger
}

// Engine runs the analysis pipeline. Safe for concurrent use: the catalog,
// rule registry, and thresholds are all read-only after New.
type Engine struct {
	cfg      config.Config
	cat      *catalog.Catalog
	scanner  *security.Scanner
	taint    *taint.Analyzer
	metrics  *metrics.Calculator
	semantic *semantic.Detector
	cache    *cache.Cache
	cfgKey   string // configuration fingerprint for cache keys
	log      hclog.Logger
}

// New builds an engine from the config. A malformed catalog is fatal here,
// before any file is touched.
func New(cfg config.Config, opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("loading taint catalog: %w", err)
	}

	resultCache, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening result cache: %w", err)
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting config: %w", err)
	}

	return &Engine{
		cfg:     cfg,
		cat:     cat,
		scanner: security.New(),
		taint:   taint.New(cat),
		metrics: metrics.New(metrics.Thresholds{
			CyclomaticModerate: cfg.Thresholds.Cyclomatic,
			CyclomaticSevere:   cfg.Thresholds.CyclomaticSevere,
			Cognitive:          cfg.Thresholds.Cognitive,
			Maintainability:    cfg.Thresholds.Maintainability,
		}),
		semantic: semantic.New(),
		cache:    resultCache,
		cfgKey:   cache.HashKey(string(cfgJSON)),
		log:      log,
	}, nil
}

// Catalog returns the loaded taint catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// StageStatus records how one analyzer fared on one file.
type StageStatus struct {
	Name     string `json:"name"`
	Findings int    `json:"findings"`
	Error    string `json:"error,omitempty"`
}

// File statuses.
const (
	StatusOK      = "ok"      // all enabled stages ran
	StatusPartial = "partial" // at least one stage failed
	StatusSkipped = "skipped" // not parsed or cancelled
)

// FileResult is the outcome of analyzing one file.
type FileResult struct {
	Path       string            `json:"path"`
	Language   syntax.Language   `json:"language,omitempty"`
	Status     string            `json:"status"`
	ParseError string            `json:"parseError,omitempty"`
	Findings   []finding.Finding `json:"findings,omitempty"`
	Records    []metrics.Record  `json:"records,omitempty"`
	Stages     []StageStatus     `json:"stages,omitempty"`
	Cached     bool              `json:"cached,omitempty"`
	ParseMs    int64             `json:"parseMs"`
	AnalyzeMs  int64             `json:"analyzeMs"`
}

// AnalyzeFile runs the full pipeline on one file. It always returns a
// result: parse failures and stage panics degrade the result instead of
// propagating. The findings come back normalized (deduplicated, sorted).
func (e *Engine) AnalyzeFile(ctx context.Context, path string, src []byte, lang syntax.Language) *FileResult {
	res := &FileResult{Path: path, Language: lang}

	parseStart := time.Now()
	tree, err := syntax.Parse(ctx, path, src, lang)
	res.ParseMs = time.Since(parseStart).Milliseconds()
	if err != nil {
		res.Status = StatusSkipped
		res.ParseError = err.Error()
		e.log.Warn("skipping file", "path", path, "error", err)
		return res
	}

	type stage struct {
		name string
		run  func(*syntax.Tree) []finding.Finding
	}
	stages := []stage{
		{StageSecurity, e.scanner.Scan},
		{StageTaint, e.taint.Analyze},
		{StageMetrics, func(t *syntax.Tree) []finding.Finding {
			records, fs := e.metrics.Analyze(t)
			res.Records = records
			return fs
		}},
		{StageSemantic, e.semantic.Analyze},
	}

	analyzeStart := time.Now()
	res.Status = StatusOK
	var all []finding.Finding
	for _, st := range stages {
		if !e.cfg.AnalyzerEnabled(st.name) {
			continue
		}
		fs, err := e.runStage(st.name, path, tree, st.run)
		if err != nil {
			res.Status = StatusPartial
			res.Stages = append(res.Stages, StageStatus{Name: st.name, Error: err.Error()})
			e.log.Error("analyzer failed", "stage", st.name, "path", path, "error", err)
			continue
		}
		res.Stages = append(res.Stages, StageStatus{Name: st.name, Findings: len(fs)})
		all = append(all, fs...)
	}
	res.Findings = finding.Dedupe(all, finding.DedupeOptions{
		LineWindow: e.cfg.Dedupe.Window,
		Similarity: e.cfg.Dedupe.Similarity,
	})
	res.AnalyzeMs = time.Since(analyzeStart).Milliseconds()

	return res
}

// runStage executes one analyzer, converting a panic into an InternalError
// so a defective rule cannot take down the batch.
func (e *Engine) runStage(name, path string, tree *syntax.Tree, run func(*syntax.Tree) []finding.Finding) (fs []finding.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			fs = nil
			err = &InternalError{Stage: name, Path: path, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return run(tree), nil
}
