package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

type reportFlags struct {
	transactions   string
	products       string
	customers      string
	cacheDir       string
	from           string
	to             string
	categories     []string
	segments       []string
	paymentMethods []string
	limit          int
	verbose        bool
}

// app is the state shared by every subcommand once the dataset is loaded.
type app struct {
	flags     reportFlags
	analytics *services.Analytics
	out       io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "salesreport [command]",
		Short: "Compute sales dashboard reports from the transaction, product and customer files",
		Long: `Loads the three CSV record sets, applies the filter flags and prints the
requested aggregate as JSON. File paths default to the DATA_* environment
variables used by the web dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.load(cmd, errOut)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	f := root.PersistentFlags()
	f.StringVar(&a.flags.transactions, "transactions", "", "Transactions CSV (or DATA_TRANSACTIONS_FILE env)")
	f.StringVar(&a.flags.products, "products", "", "Products CSV (or DATA_PRODUCTS_FILE env)")
	f.StringVar(&a.flags.customers, "customers", "", "Customers CSV (or DATA_CUSTOMERS_FILE env)")
	f.StringVar(&a.flags.cacheDir, "cache-dir", "", "Snapshot directory, empty to disable (or DATA_CACHE_DIR env)")
	f.StringVar(&a.flags.from, "from", "", "First day to include, YYYY-MM-DD")
	f.StringVar(&a.flags.to, "to", "", "Last day to include, YYYY-MM-DD")
	f.StringSliceVar(&a.flags.categories, "category", nil, "Category to include; repeatable, all when omitted")
	f.StringSliceVar(&a.flags.segments, "segment", nil, "Customer segment to include; repeatable, all when omitted")
	f.StringSliceVar(&a.flags.paymentMethods, "payment-method", nil, "Payment method to include; repeatable, all when omitted")
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Log load progress to stderr")

	root.AddCommand(
		a.jsonCmd("summary", "Headline metrics and severity tier", func(v []models.JoinedRecord) any {
			return dataset.Summarize(v)
		}),
		a.jsonCmd("monthly", "Sales per calendar month", func(v []models.JoinedRecord) any {
			return dataset.MonthlySeries(v)
		}),
		a.jsonCmd("locations", "Per-location rollup with principal segment and tier", func(v []models.JoinedRecord) any {
			return dataset.Locations(v)
		}),
		a.jsonCmd("categories", "Sales per product category", func(v []models.JoinedRecord) any {
			return dataset.CategoryTotals(v)
		}),
		a.jsonCmd("report", "Every aggregate table at once", func(v []models.JoinedRecord) any {
			return dataset.BuildReport(v, a.flags.limit)
		}),
		a.topProductsCmd(),
		a.filtersCmd(),
	)

	return root
}

// load resolves file paths from flags and config, then loads the dataset.
func (a *app) load(cmd *cobra.Command, errOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("transactions") {
		a.flags.transactions = cfg.Data.TransactionsFile
	}
	if !flags.Changed("products") {
		a.flags.products = cfg.Data.ProductsFile
	}
	if !flags.Changed("customers") {
		a.flags.customers = cfg.Data.CustomersFile
	}
	if !flags.Changed("cache-dir") {
		a.flags.cacheDir = cfg.Data.CacheDir
	}
	if flags.Lookup("limit") != nil && !flags.Changed("limit") {
		a.flags.limit = cfg.Data.TopN
	}

	level := slog.LevelError
	if a.flags.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	a.analytics = services.NewAnalytics(
		services.WithLogger(logger),
		services.WithCacheDir(a.flags.cacheDir),
		services.WithTopN(cfg.Data.TopN),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Data.LoadTimeout)
	defer cancel()

	return a.analytics.Load(ctx, dataset.Paths{
		Transactions: a.flags.transactions,
		Products:     a.flags.products,
		Customers:    a.flags.customers,
	})
}

// predicate narrows the full selection with the filter flags.
func (a *app) predicate(ctx context.Context) (dataset.Predicate, error) {
	p, err := a.analytics.DefaultPredicate(ctx)
	if err != nil {
		return dataset.Predicate{}, err
	}

	if a.flags.from != "" {
		if p.From, err = parseDay("from", a.flags.from); err != nil {
			return dataset.Predicate{}, err
		}
	}
	if a.flags.to != "" {
		if p.To, err = parseDay("to", a.flags.to); err != nil {
			return dataset.Predicate{}, err
		}
	}
	if a.flags.categories != nil {
		p.Categories = labels(a.flags.categories)
	}
	if a.flags.segments != nil {
		p.Segments = labels(a.flags.segments)
	}
	if a.flags.paymentMethods != nil {
		p.PaymentMethods = labels(a.flags.paymentMethods)
	}

	if err := p.Validate(); err != nil {
		return dataset.Predicate{}, fmt.Errorf("--from %s is after --to %s: %w", a.flags.from, a.flags.to, err)
	}
	return p, nil
}

func (a *app) view(ctx context.Context) ([]models.JoinedRecord, error) {
	p, err := a.predicate(ctx)
	if err != nil {
		return nil, err
	}
	return a.analytics.View(ctx, p)
}

func (a *app) jsonCmd(use, short string, compute func([]models.JoinedRecord) any) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.view(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(compute(view))
		},
	}
	if use == "report" {
		cmd.Flags().IntVarP(&a.flags.limit, "limit", "n", 10, "Products in the top products table, 0 for all (or DATA_TOP_N env)")
	}
	return cmd
}

func (a *app) topProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top-products",
		Short: "Products with the largest quantity sold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", a.flags.limit)
			}
			view, err := a.view(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(dataset.TopProducts(view, a.flags.limit))
		},
	}
	cmd.Flags().IntVarP(&a.flags.limit, "limit", "n", 10, "Number of products, 0 for all (or DATA_TOP_N env)")
	return cmd
}

func (a *app) filtersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "Selectable filter values and the date range of the data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := a.analytics.Options(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(options)
		},
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDay(flag, value string) (time.Time, error) {
	t, err := time.Parse(dataset.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", flag, value)
	}
	return t, nil
}

func labels(values []string) dataset.Set {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if label := dataset.NormalizeLabel(v); label != "" {
			out = append(out, label)
		}
	}
	return dataset.NewSet(out...)
}
