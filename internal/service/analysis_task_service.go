package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/jengzang/geolife-backend-go/internal/analysis"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/observability"
	"github.com/jengzang/geolife-backend-go/internal/repository"
)

// AnalyzerInfo describes one registered analyzer
type AnalyzerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RunResult is the outcome of one analyzer invocation
type RunResult struct {
	Analyzer string               `json:"analyzer"`
	Params   analysis.Params      `json:"params"`
	Result   any                  `json:"result"`
	Cached   bool                 `json:"cached"`
	Task     *models.AnalysisTask `json:"task,omitempty"`
}

// cacheKey identifies a run for the result cache. The dataset version
// keeps results from outliving a re-ingest done by another process.
type cacheKey struct {
	Name    string
	Params  map[string]string
	Dataset repository.DatasetVersion
}

// AnalysisTaskService runs analyzers and records each run as a task
type AnalysisTaskService struct {
	repo    *repository.AnalysisTaskRepository
	dataset *repository.DatasetRepository
	db      *sql.DB
	cache   *ttlcache.Cache[uint64, *RunResult]
}

// NewAnalysisTaskService creates a new analysis task service. A zero ttl disables result caching.
func NewAnalysisTaskService(repo *repository.AnalysisTaskRepository, db *sql.DB, ttl time.Duration) *AnalysisTaskService {
	s := &AnalysisTaskService{repo: repo, dataset: repository.NewDatasetRepository(db), db: db}
	if ttl > 0 {
		s.cache = ttlcache.New[uint64, *RunResult](ttlcache.WithTTL[uint64, *RunResult](ttl))
		go s.cache.Start()
	}
	return s
}

// Close stops the cache janitor
func (s *AnalysisTaskService) Close() {
	if s.cache != nil {
		s.cache.Stop()
	}
}

// ListAnalyzers returns every registered analyzer in name order
func (s *AnalysisTaskService) ListAnalyzers() []AnalyzerInfo {
	names := analysis.AnalyzerNames()
	infos := make([]AnalyzerInfo, 0, len(names))
	for _, name := range names {
		a, err := analysis.GetAnalyzer(name, s.db)
		if err != nil {
			continue
		}
		infos = append(infos, AnalyzerInfo{Name: name, Description: a.Describe()})
	}
	return infos
}

// Run executes the named analyzer synchronously and records the run. A
// result cached for the same name and parameters is returned without a new
// task.
func (s *AnalysisTaskService) Run(ctx context.Context, name string, params analysis.Params, createdBy string) (*RunResult, error) {
	analyzer, err := analysis.GetAnalyzer(name, s.db)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = analysis.Params{}
	}

	var key uint64
	if s.cache != nil {
		version, err := s.dataset.Version(ctx)
		if err != nil {
			return nil, err
		}
		key, err = hashstructure.Hash(cacheKey{Name: name, Params: params, Dataset: version}, hashstructure.FormatV2, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to hash analysis key: %w", err)
		}
		if item := s.cache.Get(key); item != nil {
			observability.RecordCacheHit(name)
			cached := *item.Value()
			cached.Cached = true
			return &cached, nil
		}
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize params: %w", err)
	}
	task := &models.AnalysisTask{
		Analyzer:   name,
		ParamsJSON: string(paramsJSON),
		CreatedBy:  createdBy,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	if err := s.repo.MarkAsRunning(ctx, task.ID); err != nil {
		return nil, err
	}

	logger := slog.With("analyzer", name, "task", task.ID)
	logger.Debug("Running analysis", "params", params)

	started := time.Now()
	result, err := analyzer.Analyze(ctx, params)
	elapsed := time.Since(started)
	if err != nil {
		observability.RecordAnalysis(name, models.TaskStatusFailed, elapsed)
		logger.Warn("Analysis failed", "error", err)
		// The run context may be the reason for the failure
		if markErr := s.repo.MarkAsFailed(context.WithoutCancel(ctx), task.ID, err.Error()); markErr != nil {
			logger.Error("Failed to record analysis failure", "error", markErr)
		}
		return nil, fmt.Errorf("analysis %s failed: %w", name, err)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	if err := s.repo.MarkAsCompleted(ctx, task.ID, string(resultJSON)); err != nil {
		return nil, err
	}
	observability.RecordAnalysis(name, models.TaskStatusCompleted, elapsed)
	logger.Info("Analysis completed", "elapsed", elapsed.Round(time.Millisecond))

	task, err = s.repo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	run := &RunResult{Analyzer: name, Params: params, Result: result, Task: task}
	if s.cache != nil {
		s.cache.Set(key, run, ttlcache.DefaultTTL)
	}
	return run, nil
}

// GetTask retrieves a task by ID
func (s *AnalysisTaskService) GetTask(ctx context.Context, id int64) (*models.AnalysisTask, error) {
	return s.repo.GetByID(ctx, id)
}

// ListTasks retrieves tasks with optional filters
func (s *AnalysisTaskService) ListTasks(ctx context.Context, analyzer string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, analyzer, status, limit, offset)
}
