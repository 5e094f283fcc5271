package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go-wages/internal/wage"
	"go-wages/internal/wagefile"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of ingesting one file in a batch.
type FileResult struct {
	Path      string
	Size      int64
	Partition wage.Partition
	Result    Result
	Coercions wagefile.Coercions
	Err       error
}

// CollectFiles returns the .json files at root, recursing into directories,
// in lexical order.
func CollectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// BatchUploader ingests many files with bounded concurrency. Files that land
// in the same partition run one after another so they never supersede each
// other's jobs.
type BatchUploader struct {
	engine  *Engine
	workers int
	opts    []wagefile.Option
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[wage.Partition]*sync.Mutex
}

func NewBatchUploader(engine *Engine, workers int, opts []wagefile.Option, logger ...*zap.Logger) *BatchUploader {
	l := zap.L().Named("ingest.batch")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ingest.batch")
	}
	return &BatchUploader{
		engine:  engine,
		workers: max(workers, 1),
		opts:    opts,
		logger:  l,
		locks:   map[wage.Partition]*sync.Mutex{},
	}
}

// Run ingests every path and calls onDone as each file finishes. A failing
// file does not stop the others; cancelling ctx stops files not yet started.
func (b *BatchUploader) Run(ctx context.Context, paths []string, onDone func(FileResult)) []FileResult {
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			results[i] = FileResult{Path: path, Err: gctx.Err()}
			continue
		}
		g.Go(func() error {
			results[i] = b.uploadFile(gctx, path)
			if onDone != nil {
				onDone(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (b *BatchUploader) uploadFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}

	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()
	if info, err := f.Stat(); err == nil {
		res.Size = info.Size()
	}

	payload, err := wagefile.ParseReader(f, b.opts...)
	if err != nil {
		b.logger.Warn("skipping unreadable wage file", zap.String("path", path), zap.Error(err))
		res.Err = err
		return res
	}
	res.Partition = payload.Partition()

	unlock := b.lockPartition(res.Partition)
	defer unlock()

	res.Result, res.Err = b.engine.Ingest(ctx, res.Partition, payload)
	res.Coercions = payload.Coercions()
	if n := res.Coercions.Total(); n > 0 {
		b.logger.Warn("applied defaults to malformed fields",
			zap.String("path", path),
			zap.Int("total", n),
			zap.Any("fields", res.Coercions),
		)
	}
	return res
}

func (b *BatchUploader) lockPartition(p wage.Partition) func() {
	b.mu.Lock()
	m, ok := b.locks[p]
	if !ok {
		m = &sync.Mutex{}
		b.locks[p] = m
	}
	b.mu.Unlock()

	m.Lock()
	return m.Unlock
}
