package services

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

const (
	cacheVersion    = "v2"
	defaultCacheDir = ".cache"
	defaultTopN     = 10
)

var (
	tracer = otel.Tracer("sales-dashboard/services")

	ErrNotLoaded = errors.New("dataset not loaded")
)

// FileVersion identifies one input file by path, size and modification time.
type FileVersion struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Fingerprint is the identity of a whole load: the versions of the
// transactions, products and customers files, in that order.
type Fingerprint [3]FileVersion

// Key derives a stable name for the fingerprint, used for snapshot files.
func (f Fingerprint) Key() string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s|%v", cacheVersion, f))).String()
}

func (f Fingerprint) Equal(other Fingerprint) bool {
	for i := range f {
		if f[i].Path != other[i].Path || f[i].Size != other[i].Size || !f[i].ModTime.Equal(other[i].ModTime) {
			return false
		}
	}
	return true
}

func (f Fingerprint) IsZero() bool {
	return f.Equal(Fingerprint{})
}

func fingerprintOf(paths dataset.Paths) (Fingerprint, error) {
	var fp Fingerprint
	for i, path := range []string{paths.Transactions, paths.Products, paths.Customers} {
		info, err := os.Stat(path)
		if err != nil {
			return Fingerprint{}, &dataset.LoadError{Path: path, Err: err}
		}
		fp[i] = FileVersion{Path: path, Size: info.Size(), ModTime: info.ModTime().UTC()}
	}
	return fp, nil
}

type snapshot struct {
	Fingerprint  Fingerprint
	Transactions []models.Transaction
	Products     []models.Product
	Customers    []models.Customer
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

// WithCacheDir sets where load snapshots are written. An empty dir disables
// snapshots.
func WithCacheDir(dir string) Option {
	return func(a *Analytics) { a.cacheDir = dir }
}

func WithTopN(n int) Option {
	return func(a *Analytics) { a.topN = n }
}

// Analytics owns the loaded dataset and recomputes filtered reports from it.
// The dataset is cached per Fingerprint: it is reloaded only when one of the
// input files changes or Invalidate is called.
type Analytics struct {
	mu          sync.RWMutex
	data        *dataset.Dataset
	options     models.FilterOptions
	paths       dataset.Paths
	fingerprint Fingerprint
	loadedAt    time.Time
	cacheDir    string
	topN        int
	loads       atomic.Int64
	reports     atomic.Int64
	logger      *slog.Logger
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		cacheDir: defaultCacheDir,
		topN:     defaultTopN,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData installs an in-memory dataset with no backing files.
func (a *Analytics) SetData(ds *dataset.Dataset) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.install(ds)
	a.paths = dataset.Paths{}
	a.fingerprint = Fingerprint{}
}

func (a *Analytics) install(ds *dataset.Dataset) {
	a.data = ds
	a.options = dataset.Options(ds.Records)
	a.loadedAt = time.Now()
}

// Load reads the three input files unless the cached dataset already has
// their current fingerprint.
func (a *Analytics) Load(ctx context.Context, paths dataset.Paths) (err error) {
	ctx, span := tracer.Start(ctx, "analytics.load")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	fp, err := fingerprintOf(paths)
	if err != nil {
		return err
	}

	a.mu.RLock()
	fresh := a.data != nil && a.fingerprint.Equal(fp)
	a.mu.RUnlock()
	if fresh {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return nil
	}

	start := time.Now()
	ds, fromSnapshot, err := a.loadDataset(ctx, paths, fp)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.install(ds)
	a.paths = paths
	a.fingerprint = fp
	a.mu.Unlock()
	a.loads.Add(1)

	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Bool("snapshot", fromSnapshot),
		attribute.Int("records", len(ds.Records)),
	)

	if ds.Stats.UnmatchedProducts > 0 || ds.Stats.UnmatchedCustomers > 0 {
		a.logger.Warn("transactions with unmatched keys",
			"unmatched_products", ds.Stats.UnmatchedProducts,
			"unmatched_customers", ds.Stats.UnmatchedCustomers)
	}
	if ds.Stats.DuplicateProducts > 0 || ds.Stats.DuplicateCustomers > 0 {
		a.logger.Warn("duplicate ids ignored, first occurrence kept",
			"duplicate_products", ds.Stats.DuplicateProducts,
			"duplicate_customers", ds.Stats.DuplicateCustomers)
	}
	a.logger.Info("dataset loaded",
		"transactions", len(ds.Transactions),
		"products", len(ds.Products),
		"customers", len(ds.Customers),
		"snapshot", fromSnapshot,
		"duration", time.Since(start))

	return nil
}

func (a *Analytics) loadDataset(ctx context.Context, paths dataset.Paths, fp Fingerprint) (*dataset.Dataset, bool, error) {
	if snap, err := a.loadSnapshot(fp); err == nil {
		ds := &dataset.Dataset{
			Transactions: snap.Transactions,
			Products:     snap.Products,
			Customers:    snap.Customers,
		}
		ds.Records, ds.Stats = dataset.JoinWithStats(ds.Transactions, ds.Products, ds.Customers)
		return ds, true, nil
	}

	ds, err := dataset.Load(ctx, paths)
	if err != nil {
		return nil, false, err
	}

	if err := a.saveSnapshot(fp, ds); err != nil {
		a.logger.Warn("failed to save snapshot", "error", err)
	}
	return ds, false, nil
}

// Refresh reloads the dataset if any input file changed since the last load.
// It is a no-op for data installed with SetData.
func (a *Analytics) Refresh(ctx context.Context) error {
	a.mu.RLock()
	paths := a.paths
	a.mu.RUnlock()

	if paths == (dataset.Paths{}) {
		return nil
	}
	return a.Load(ctx, paths)
}

// Invalidate forgets the cached dataset and its snapshot so the next
// Refresh reads the input files again.
func (a *Analytics) Invalidate() {
	a.mu.Lock()
	fp := a.fingerprint
	a.fingerprint = Fingerprint{}
	a.mu.Unlock()

	if a.cacheDir != "" && !fp.IsZero() {
		if err := os.Remove(a.snapshotPath(fp)); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("failed to remove snapshot", "error", err)
		}
	}
	a.logger.Info("dataset cache invalidated")
}

// Reload invalidates the cache and loads the input files again.
func (a *Analytics) Reload(ctx context.Context) error {
	a.mu.RLock()
	paths := a.paths
	a.mu.RUnlock()

	a.Invalidate()
	if paths == (dataset.Paths{}) {
		return nil
	}
	return a.Load(ctx, paths)
}

func (a *Analytics) current(ctx context.Context) (*dataset.Dataset, error) {
	if err := a.Refresh(ctx); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.data == nil {
		return nil, ErrNotLoaded
	}
	return a.data, nil
}

// View returns the joined records matching p.
func (a *Analytics) View(ctx context.Context, p dataset.Predicate) ([]models.JoinedRecord, error) {
	ds, err := a.current(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.Filter(ds.Records, p), nil
}

// Report filters the dataset with p and recomputes every aggregate table.
func (a *Analytics) Report(ctx context.Context, p dataset.Predicate) (report models.Report, err error) {
	ctx, span := tracer.Start(ctx, "analytics.report")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	view, err := a.View(ctx, p)
	if err != nil {
		return models.Report{}, err
	}
	a.reports.Add(1)
	span.SetAttributes(attribute.Int("view.records", len(view)))

	return dataset.BuildReport(view, a.topN), nil
}

// Options lists the selectable filter values of the loaded dataset.
func (a *Analytics) Options(ctx context.Context) (models.FilterOptions, error) {
	if _, err := a.current(ctx); err != nil {
		return models.FilterOptions{}, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.options, nil
}

// DefaultPredicate selects everything in the loaded dataset.
func (a *Analytics) DefaultPredicate(ctx context.Context) (dataset.Predicate, error) {
	ds, err := a.current(ctx)
	if err != nil {
		return dataset.Predicate{}, err
	}
	return dataset.FullPredicate(ds.Records), nil
}

func (a *Analytics) TopN() int {
	return a.topN
}

// Stats reports cache state for monitoring.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"loads":       a.loads.Load(),
		"reports":     a.reports.Load(),
		"loaded_at":   a.loadedAt,
		"fingerprint": "",
		"records":     0,
	}
	if !a.fingerprint.IsZero() {
		stats["fingerprint"] = a.fingerprint.Key()
	}
	if a.data != nil {
		stats["records"] = len(a.data.Records)
		stats["products"] = len(a.data.Products)
		stats["customers"] = len(a.data.Customers)
		stats["join"] = a.data.Stats
	}
	return stats
}

// Snapshot management
func (a *Analytics) snapshotPath(fp Fingerprint) string {
	return filepath.Join(a.cacheDir, fmt.Sprintf("dataset_%s.gob", fp.Key()))
}

func (a *Analytics) saveSnapshot(fp Fingerprint, ds *dataset.Dataset) error {
	if a.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(a.snapshotPath(fp))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snapshot{
		Fingerprint:  fp,
		Transactions: ds.Transactions,
		Products:     ds.Products,
		Customers:    ds.Customers,
	})
}

func (a *Analytics) loadSnapshot(fp Fingerprint) (*snapshot, error) {
	if a.cacheDir == "" {
		return nil, os.ErrNotExist
	}

	file, err := os.Open(a.snapshotPath(fp))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	if !snap.Fingerprint.Equal(fp) {
		return nil, fmt.Errorf("snapshot fingerprint mismatch")
	}
	return &snap, nil
}
