// Package crawler walks the remote repository tree recursively and
// rebuilds the local search index from every markdown document it finds.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gitjrnl/gitjrnl/internal/github"
	"github.com/gitjrnl/gitjrnl/internal/index"
)

// defaultConcurrency bounds simultaneous in-flight fetches across the
// whole crawl. Without a bound a wide repository fans out one request per
// file at once.
const defaultConcurrency = 8

// Repository is the slice of the API client the crawler uses. The crawler
// deliberately never uses content search: the remote search index is not
// guaranteed exhaustive, while a recursive listing is.
type Repository interface {
	List(ctx context.Context, path string) ([]github.Entry, error)
	GetFile(ctx context.Context, path string) (*github.Document, error)
}

// Crawler fetches every eligible document in the repository tree and hands
// the results, one directory batch at a time, to the index sink.
type Crawler struct {
	client Repository
	sink   index.Sink
	domain string
	limit  int
	logger *slog.Logger
}

// Option configures the crawler.
type Option func(*Crawler)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = l
	}
}

// WithConcurrency bounds the number of simultaneous fetches.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.limit = n
		}
	}
}

// New creates a crawler feeding the given sink under the given index domain.
func New(client Repository, sink index.Sink, domain string, opts ...Option) *Crawler {
	crawler := &Crawler{
		client: client,
		sink:   sink,
		domain: domain,
		limit:  defaultConcurrency,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(crawler)
	}

	return crawler
}

// Result summarizes one crawl: how many documents were indexed and which
// paths failed. A non-empty error list alongside a non-zero count means
// partial success; the crawl never aborts on individual file failures.
type Result struct {
	Indexed int
	Errors  []string
}

// Rebuild performs a full index rebuild: delete everything previously
// indexed for the domain, then crawl from the repository root. A failed
// delete means the crawl is not started at all.
func (c *Crawler) Rebuild(ctx context.Context) (*Result, error) {
	if err := c.sink.DeleteAll(ctx, c.domain); err != nil {
		return nil, fmt.Errorf("clear index: %w", err)
	}
	return c.Crawl(ctx, "")
}

// Crawl walks the tree rooted at root. Only a failure of the root listing
// is total failure; everything below it is collected into Result.Errors.
func (c *Crawler) Crawl(ctx context.Context, root string) (*Result, error) {
	entries, err := c.client.List(ctx, root)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()

	// One token per in-flight request, shared across the whole recursion.
	sem := make(chan struct{}, c.limit)

	indexed, errs := c.crawlLevel(ctx, root, entries, sem)

	c.logger.InfoContext(ctx, "crawl complete",
		"root", root,
		"indexed", indexed,
		"errors", len(errs),
		"duration", time.Since(startTime))

	return &Result{Indexed: indexed, Errors: errs}, nil
}

// crawlLevel indexes one directory: fetch all eligible files concurrently,
// join, hand the batch to the sink, then recurse into subdirectories
// (also concurrently, joined before returning).
func (c *Crawler) crawlLevel(
	ctx context.Context, dir string, entries []github.Entry, sem chan struct{},
) (int, []string) {
	var directories, files []github.Entry
	for _, entry := range entries {
		switch {
		case entry.IsDir():
			directories = append(directories, entry)
		case entry.IsMarkdown():
			files = append(files, entry)
		}
	}

	var mu sync.Mutex
	var items []index.Entry
	var errs []string

	var fileGroup errgroup.Group
	for _, file := range files {
		fileGroup.Go(func() error {
			if err := acquire(ctx, sem); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("%s: %v", file.Path, err))
				mu.Unlock()
				return nil
			}
			defer release(sem)

			doc, err := c.client.GetFile(ctx, file.Path)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs = append(errs, fmt.Sprintf("%s: %v", file.Path, err))
			case !doc.Exists:
				// Removed between listing and fetch.
				errs = append(errs, fmt.Sprintf("%s: removed during crawl", file.Path))
			default:
				items = append(items, index.Entry{
					Name:      file.Name,
					Path:      file.Path,
					Content:   doc.Content,
					CreatedAt: time.Now(),
				})
			}
			return nil
		})
	}
	_ = fileGroup.Wait()

	indexed := 0
	if len(items) > 0 {
		if err := c.sink.AddBatch(ctx, c.domain, items); err != nil {
			errs = append(errs, fmt.Sprintf("index batch for %s: %v", displayDir(dir), err))
		} else {
			indexed = len(items)
		}
	}

	var dirGroup errgroup.Group
	for _, directory := range directories {
		dirGroup.Go(func() error {
			subIndexed, subErrs := c.crawlDir(ctx, directory.Path, sem)
			mu.Lock()
			indexed += subIndexed
			errs = append(errs, subErrs...)
			mu.Unlock()
			return nil
		})
	}
	_ = dirGroup.Wait()

	return indexed, errs
}

// crawlDir lists one subdirectory and crawls it. A failed listing is
// collected as that directory's error instead of aborting the crawl.
func (c *Crawler) crawlDir(ctx context.Context, dir string, sem chan struct{}) (int, []string) {
	if err := acquire(ctx, sem); err != nil {
		return 0, []string{fmt.Sprintf("%s: %v", dir, err)}
	}
	entries, err := c.client.List(ctx, dir)
	release(sem)
	if err != nil {
		return 0, []string{fmt.Sprintf("%s: %v", dir, err)}
	}

	return c.crawlLevel(ctx, dir, entries, sem)
}

// acquire takes a concurrency token, giving up when the crawl is canceled.
func acquire(ctx context.Context, sem chan struct{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func release(sem chan struct{}) {
	<-sem
}

func displayDir(dir string) string {
	if dir == "" {
		return "/"
	}
	return dir
}
