package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-metrics/internal/config"
	"github.com/dvloznov/finance-metrics/internal/domain"
	infraBQ "github.com/dvloznov/finance-metrics/internal/infra/bigquery"
	"github.com/dvloznov/finance-metrics/internal/logger"
	"github.com/dvloznov/finance-metrics/internal/metrics"
	"github.com/dvloznov/finance-metrics/internal/pipeline"
	"github.com/dvloznov/finance-metrics/internal/report"
	"github.com/dvloznov/finance-metrics/internal/source"
	"github.com/dvloznov/finance-metrics/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "summary":
		runSummary(cfg, log)
	case "profit-centers":
		runProfitCenters(cfg, log)
	case "timeseries":
		runTimeSeries(cfg, log)
	case "explain":
		runExplain(cfg, log)
	case "upload":
		runUpload(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Metrics CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  summary          Country summaries with the grand total")
	fmt.Println("  profit-centers   Profit center summaries, optionally for one country")
	fmt.Println("  timeseries       Monthly series per country or per profit center")
	fmt.Println("  explain          Classification rule counts and sample traces")
	fmt.Println("  upload           Upload a dataset file to GCS")
	fmt.Println("  help             Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// load reads the dataset at uri and returns a report service over it.
func load(cfg *config.Config, log zerolog.Logger, uri string) (*report.Service, *store.Snapshot) {
	if uri == "" {
		log.Fatal().Msg("Error: -source is required (or set DATA_SOURCE)")
	}

	window, err := cfg.ReportWindow()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid reporting window")
	}
	names, err := cfg.CountryNames()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load country names")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	router := source.NewRouter(source.Options{HTTPTimeout: cfg.HTTPTimeout, GCSAnonymous: cfg.GCSAnonymous})
	defer router.Close()
	tables := infraBQ.NewTransactionSource(cfg.BigQueryProject)
	defer tables.Close()

	dataset := store.New()
	res, err := pipeline.LoadDataset(ctx, uri, pipeline.Deps{Source: router, Table: tables, Publisher: dataset})
	if err != nil {
		log.Fatal().Err(err).Msg("Load failed")
	}

	svc := report.NewService(dataset, report.Options{
		Window:       window,
		CountryNames: names,
		CacheTTL:     -1,
		Parallelism:  cfg.ReportParallelism,
	})
	return svc, res.Snapshot
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
}

const metricsHeader = "NTI\tOther\tTotal\tOpEx\tMargin\tNonOpEx\tPBT\tTax\tPAT\tCapital\tROE\t"

func metricsRow(m domain.Metrics) string {
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t",
		metrics.FormatCurrency(m.NetTradingIncome),
		metrics.FormatCurrency(m.OtherIncome),
		metrics.FormatCurrency(m.TotalIncome),
		metrics.FormatCurrency(m.OperatingExpense),
		metrics.FormatPercentage(m.OperatingMargin),
		metrics.FormatCurrency(m.NonOperatingExpense),
		metrics.FormatCurrency(m.ProfitBeforeTax),
		metrics.FormatCurrency(m.Tax),
		metrics.FormatCurrency(m.ProfitAfterTax),
		metrics.FormatCurrency(m.Capital),
		metrics.FormatPercentage(m.ReturnOnEquity),
	)
}

func windowFlags(fs *flag.FlagSet) (start, end, period *string) {
	start = fs.String("start", "", "Window start (YYYY-MM-DD or RFC 3339)")
	end = fs.String("end", "", "Window end, inclusive (YYYY-MM-DD or RFC 3339)")
	period = fs.String("period", "", "daily, weekly or monthly, relative to the window end")
	return start, end, period
}

func printWindow(w report.Window) {
	if w.IsZero() {
		fmt.Println("Window: whole dataset")
		return
	}
	fmt.Printf("Window: %s .. %s\n", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

func runSummary(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	uri := fs.String("source", cfg.DataSource, "Dataset URI (path, file://, http(s)://, gs://, bq://)")
	start, end, period := windowFlags(fs)
	fs.Parse(os.Args[2:])

	svc, _ := load(cfg, log, *uri)

	window, err := svc.SummaryWindow(*start, *end, *period)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid window")
	}
	rep, err := svc.Countries(context.Background(), window)
	if err != nil {
		log.Fatal().Err(err).Msg("Summary failed")
	}

	printWindow(rep.Window)
	tw := newTable()
	fmt.Fprintln(tw, "Code\tCountry\t"+metricsHeader)
	for _, c := range append(rep.Countries, rep.Total) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Code, c.Name, metricsRow(c.Metrics))
	}
	tw.Flush()
}

func runProfitCenters(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("profit-centers", flag.ExitOnError)
	uri := fs.String("source", cfg.DataSource, "Dataset URI")
	country := fs.String("country", "", "Country code filter")
	start, end, period := windowFlags(fs)
	fs.Parse(os.Args[2:])

	svc, _ := load(cfg, log, *uri)

	window, err := svc.SummaryWindow(*start, *end, *period)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid window")
	}
	rep, err := svc.ProfitCenters(context.Background(), *country, window)
	if err != nil {
		log.Fatal().Err(err).Msg("Profit center summary failed")
	}

	printWindow(rep.Window)
	tw := newTable()
	fmt.Fprintln(tw, "ID\tProfit Center\tCountry\t"+metricsHeader)
	for _, pc := range append(rep.ProfitCenters, rep.Total) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", pc.ID, pc.Name, pc.Country, metricsRow(pc.Metrics))
	}
	tw.Flush()
}

func runTimeSeries(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("timeseries", flag.ExitOnError)
	uri := fs.String("source", cfg.DataSource, "Dataset URI")
	country := fs.String("country", "", "Show profit centers of this country instead of countries")
	start := fs.String("start", "", "Window start (defaults to the whole dataset)")
	end := fs.String("end", "", "Window end, inclusive")
	fs.Parse(os.Args[2:])

	svc, _ := load(cfg, log, *uri)

	window, err := svc.SeriesWindow(*start, *end)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid window")
	}

	ctx := context.Background()
	tw := newTable()
	fmt.Fprintln(tw, "Entity\tMonth\tMoM\t"+metricsHeader)

	if *country == "" {
		series, err := svc.CountryTimeSeries(ctx, window)
		if err != nil {
			log.Fatal().Err(err).Msg("Time series failed")
		}
		for _, s := range series {
			writeBuckets(tw, s.Country.Name, s.TimeSeries)
		}
	} else {
		series, err := svc.ProfitCenterTimeSeries(ctx, *country, window)
		if err != nil {
			log.Fatal().Err(err).Msg("Time series failed")
		}
		for _, s := range series {
			writeBuckets(tw, s.ProfitCenter.Name, s.TimeSeries)
		}
	}
	tw.Flush()
}

func writeBuckets(tw *tabwriter.Writer, entity string, buckets []domain.TimeBucket) {
	for _, b := range buckets {
		mom := "-"
		if b.MoMChange != nil {
			mom = metrics.FormatPercentage(*b.MoMChange)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entity, b.Month, mom, metricsRow(b.Metrics))
	}
}

func runExplain(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("explain", flag.ExitOnError)
	uri := fs.String("source", cfg.DataSource, "Dataset URI")
	limit := fs.Int("limit", 10, "Number of sample traces to print")
	fs.Parse(os.Args[2:])

	_, snap := load(cfg, log, *uri)
	txs := snap.Transactions()

	counts := make(map[string]int)
	for i, tx := range txs {
		ex := metrics.Explain(tx)
		counts[ex.Rule]++
		if i < *limit {
			fmt.Printf("%s  rule=%s bucket=%s amount=%q parsed=%g contributes=%g capital=%t income_statement=%t l1=%q l2=%q\n",
				tx.TransactionID, ex.Rule, ex.Bucket, ex.RawAmount, ex.ParsedAmount, ex.Amount,
				ex.IsCapital, ex.IsIncomeStatement, ex.Labels["account_l1_name"], ex.Labels["account_l2_name"])
		}
	}

	rules := make([]string, 0, len(counts))
	for rule := range counts {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		if counts[rules[i]] != counts[rules[j]] {
			return counts[rules[i]] > counts[rules[j]]
		}
		return rules[i] < rules[j]
	})

	fmt.Printf("\n%d transactions, %d undated\n", len(txs), snap.Undated())
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Rule\tCount")
	for _, rule := range rules {
		fmt.Fprintf(tw, "%s\t%d\n", rule, counts[rule])
	}
	tw.Flush()
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", "", "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local dataset file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	uri, err := source.UploadFile(ctx, *bucketName, *objectName, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}
