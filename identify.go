package mqaid

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	// FLAC decoding and tag editing register themselves here.
	_ "github.com/simonhull/mqaid/internal/flac"
	"github.com/simonhull/mqaid/internal/types"
)

// Result is the outcome of identifying one file. A file without a
// watermark is a successful result with Watermarked false; Err is set only
// when the file could not be examined.
type Result = types.DetectionResult

// Match locates the sync word inside the scanned samples.
type Match = types.Match

// Identify inspects the first seconds of a FLAC file for an MQA watermark.
//
// The returned error mirrors Result.Err so callers can use the usual
// if err != nil form:
//
//	res, err := mqaid.Identify(ctx, "song.flac")
//	if err != nil {
//		return err
//	}
//	if res.Watermarked {
//		fmt.Println(res.OriginalSampleRate, res.Studio)
//	}
func Identify(ctx context.Context, path string, opts ...Option) (Result, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := options.detector().Detect(ctx, options.resolve(path))
	return res, res.Err
}

// IdentifyMany identifies files concurrently, up to runtime.NumCPU() at a
// time unless WithWorkers says otherwise. Results come back in input order.
//
// Per-file failures are reported in each Result's Err and never stop the
// batch. The returned error is non-nil only when ctx is cancelled; files
// not yet started at that point are left as zero Results.
//
// Example:
//
//	results, err := mqaid.IdentifyMany(ctx, paths)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for i, res := range results {
//		fmt.Printf("%s: %v\n", paths[i], res.Watermarked)
//	}
func IdentifyMany(ctx context.Context, paths []string, opts ...Option) ([]Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	limit := options.workers
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	det := options.detector()
	results := make([]Result, len(paths))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = det.Detect(ctx, options.resolve(path))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
