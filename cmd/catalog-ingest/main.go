// Command catalog-ingest imports legacy catalog dumps into the products
// table. Dumps are gzip-compressed JSONL files, one listing per line. The
// legacy system also exports sold-item id lists; listings whose id appears
// there are imported hidden so they never show up in the storefront. The
// sold lists are far too large to hold as a set, so membership is checked
// against bloom filters. A false positive hides a listing that was actually
// unsold, which an admin can undo later; the trade is deliberate.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/thriftease/marketplace/internal/repository"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

type listingJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
	ImageURL string          `json:"image_url"`
}

const upsertListingSQL = `
INSERT INTO products (id, name, price, stock, category, visible, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    category = EXCLUDED.category,
    visible = EXCLUDED.visible,
    image_url = EXCLUDED.image_url
`

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog*.jsonl.gz and sold*.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	catalogs, err := filepath.Glob(filepath.Join(dataDir, "catalog*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob catalog files")
	}
	if len(catalogs) == 0 {
		return errors.Errorf("no catalog*.jsonl.gz files in %s", dataDir)
	}

	soldFiles, err := filepath.Glob(filepath.Join(dataDir, "sold*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob sold files")
	}

	// Pass 1: one bloom filter per sold-ids file, built concurrently.
	slog.Info("pass 1: building sold-id filters", slog.Int("files", len(soldFiles)))

	filters, err := buildSoldFilters(ctx, soldFiles)
	if err != nil {
		return errors.Wrap(err, "build sold filters")
	}

	// Pass 2: stream catalogs and upsert listings.
	slog.Info("pass 2: importing catalogs",
		slog.Int("files", len(catalogs)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return importCatalogs(ctx, pool, catalogs, filters)
}

// buildSoldFilters creates one bloom filter per sold-ids file, concurrently.
func buildSoldFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzLines(ctx, path, func(id string) {
			if id == "" {
				return
			}
			filter.AddString(id)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("ids", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for %s", path)
		}

		slog.Info("pass 1 complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("total_ids", count),
		)

		filters[idx] = filter
		return nil
	}
}

// importCatalogs streams every catalog file concurrently, marking listings
// found in any sold filter as hidden. Upserts go through the shared pool, so
// a listing duplicated across dumps resolves last-write-wins.
func importCatalogs(ctx context.Context, pool *pgxpool.Pool, catalogs []string, filters []*bloom.BloomFilter) error {
	var imported, hidden atomic.Uint64

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range catalogs {
		g.Go(importCatalogFile(ctx, pool, path, filters, &imported, &hidden))
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("import complete",
		slog.Uint64("imported", imported.Load()),
		slog.Uint64("hidden_as_sold", hidden.Load()),
	)

	return nil
}

func importCatalogFile(
	ctx context.Context,
	pool *pgxpool.Pool,
	path string,
	filters []*bloom.BloomFilter,
	imported, hidden *atomic.Uint64,
) func() error {
	return func() error {
		var lineNo uint64

		if err := streamGzLines(ctx, path, func(line string) {
			lineNo++
			if line == "" {
				return
			}

			var l listingJSON
			if err := json.Unmarshal([]byte(line), &l); err != nil {
				slog.Warn("skipping malformed listing",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("line", lineNo),
					slog.String("error", err.Error()),
				)
				return
			}
			if l.ID == "" {
				return
			}

			visible := l.Stock > 0
			for _, f := range filters {
				if f.TestString(l.ID) {
					visible = false
					hidden.Add(1)
					break
				}
			}

			if _, err := pool.Exec(ctx, upsertListingSQL,
				l.ID, l.Name, l.Price, l.Stock, l.Category, visible, l.ImageURL); err != nil {
				slog.Warn("upsert failed",
					slog.String("id", l.ID),
					slog.String("error", err.Error()),
				)
				return
			}

			if n := imported.Add(1); n%progressEvery == 0 {
				slog.Info("pass 2 progress", slog.Uint64("listings", n))
			}
		}); err != nil {
			return errors.Wrapf(err, "import %s", path)
		}

		return nil
	}
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
