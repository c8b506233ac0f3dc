package scanner

import (
	"context"
	"runtime"
	"sync"
)

// FileResult pairs a scanned path with its outcome. Err is set only for
// load failures; scan-stage problems are reported inside Result.
type FileResult struct {
	Path   string
	Result Result
	Err    error
}

type fileJob struct {
	index int
	path  string
}

type fileJobResult struct {
	index int
	res   FileResult
}

// ScanFilesParallel scans many files with a worker pool, returning results
// in input order. workers <= 0 uses all CPUs. The context cancels pending
// work; already-finished results are discarded and ctx.Err() returned.
func (s *Scanner) ScanFilesParallel(ctx context.Context, paths []string,
	workers int, progress ProgressCallback,
) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if progress == nil {
		progress = NoOpProgressCallback{}
	}

	progress.OnStart(len(paths))
	defer progress.OnComplete()

	if len(paths) == 1 || workers == 1 {
		return s.scanFilesSequential(ctx, paths, progress)
	}

	jobs := make(chan fileJob, len(paths))
	results := make(chan fileJobResult, len(paths))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go s.fileWorker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, p := range paths {
			select {
			case jobs <- fileJob{index: i, path: p}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]FileResult, len(paths))
	done := 0
	for r := range results {
		ordered[r.index] = r.res
		done++
		if r.res.Err != nil {
			progress.OnError(done, r.res.Err)
		}
		progress.OnProgress(done, len(paths))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ordered, nil
}

func (s *Scanner) scanFilesSequential(ctx context.Context, paths []string,
	progress ProgressCallback,
) ([]FileResult, error) {
	ordered := make([]FileResult, len(paths))
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ordered[i] = s.scanOne(p)
		if ordered[i].Err != nil {
			progress.OnError(i+1, ordered[i].Err)
		}
		progress.OnProgress(i+1, len(paths))
	}
	return ordered, nil
}

func (s *Scanner) fileWorker(ctx context.Context, jobs <-chan fileJob,
	results chan<- fileJobResult, wg *sync.WaitGroup,
) {
	defer wg.Done()
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			select {
			case results <- fileJobResult{index: job.index, res: s.scanOne(job.path)}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scanner) scanOne(path string) FileResult {
	res, err := s.ScanFile(path)
	return FileResult{Path: path, Result: res, Err: err}
}
