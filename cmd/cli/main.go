package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/app"
	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/notionsync"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithConfig(logger.Config{Level: cfg.LogLevel, Out: os.Stderr})

	switch os.Args[1] {
	case "recommend":
		runRecommend(cfg, log)
	case "analyze":
		runAnalyze(cfg, log)
	case "insights":
		runInsights(cfg, log)
	case "bills":
		runBills(cfg, log)
	case "categorize":
		runCategorize(cfg, log)
	case "import-statement":
		runImportStatement(cfg, log)
	case "attach":
		runAttach(cfg, log)
	case "sync-notion":
		runSyncNotion(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Advisor CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  recommend         Show budget recommendations for a user")
	fmt.Println("  analyze           Run a full analysis and store new insights")
	fmt.Println("  insights          List a user's stored insights")
	fmt.Println("  bills             Predict a user's upcoming bills")
	fmt.Println("  categorize        Categorize a transaction description")
	fmt.Println("  import-statement  Extract transactions from a bank statement and save them")
	fmt.Println("  attach            Attach a receipt file to a transaction")
	fmt.Println("  sync-notion       Mirror a user's insights into Notion")
	fmt.Println("  help              Show this help message")
	fmt.Println("\nConfiguration comes from .env and the environment; see internal/config.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// setup builds the application with a bounded context for one command.
func setup(cfg *config.Config, log zerolog.Logger, timeout time.Duration) (context.Context, context.CancelFunc, *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = logger.WithContext(ctx, log)

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to build application")
	}
	return ctx, func() {
		a.Close()
		cancel()
	}, a
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}

func requireUser(fs *flag.FlagSet, log zerolog.Logger, userID string) {
	if userID == "" {
		log.Fatal().Msgf("Usage: cli %s -user ID", fs.Name())
	}
}

func runRecommend(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	apply := fs.String("apply", "", "Budget ID whose recommendation should be applied")
	fs.Parse(os.Args[2:])
	requireUser(fs, log, *userID)

	ctx, done, a := setup(cfg, log, time.Minute)
	defer done()

	if *apply != "" {
		b, err := a.Advisor.ApplyRecommendation(ctx, *userID, *apply)
		if err != nil {
			log.Fatal().Err(err).Msg("Apply failed")
		}
		printJSON(b)
		return
	}

	recs, err := a.Advisor.Recommendations(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Recommendation failed")
	}
	printJSON(recs)
}

func runAnalyze(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	fs.Parse(os.Args[2:])
	requireUser(fs, log, *userID)

	ctx, done, a := setup(cfg, log, 2*time.Minute)
	defer done()

	report, err := a.Advisor.Analyze(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
	printJSON(report)
}

func runInsights(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	unread := fs.Bool("unread", false, "Only show unread insights")
	markRead := fs.String("mark-read", "", "Insight ID to mark as read")
	fs.Parse(os.Args[2:])
	requireUser(fs, log, *userID)

	ctx, done, a := setup(cfg, log, time.Minute)
	defer done()

	if *markRead != "" {
		if err := a.Advisor.MarkInsightRead(ctx, *userID, *markRead); err != nil {
			log.Fatal().Err(err).Msg("Mark read failed")
		}
	}

	list, err := a.Advisor.ListInsights(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Listing insights failed")
	}
	if *unread {
		filtered := list[:0]
		for _, in := range list {
			if !in.IsRead {
				filtered = append(filtered, in)
			}
		}
		list = filtered
	}
	printJSON(list)
}

func runBills(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("bills", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	fs.Parse(os.Args[2:])
	requireUser(fs, log, *userID)

	ctx, done, a := setup(cfg, log, time.Minute)
	defer done()

	out, err := a.Advisor.PredictBills(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Bill prediction failed")
	}
	printJSON(out)
}

func runCategorize(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	description := fs.String("description", "", "Transaction description")
	amount := fs.String("amount", "0", "Transaction amount")
	fs.Parse(os.Args[2:])

	if *description == "" {
		log.Fatal().Msg("Usage: cli categorize -description TEXT [-amount N]")
	}
	amt, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatal().Err(err).Str("amount", *amount).Msg("Invalid amount")
	}

	ctx, done, a := setup(cfg, log, time.Minute)
	defer done()

	label, err := a.Categorizer.Categorize(ctx, *description, amt)
	if err != nil {
		log.Fatal().Err(err).Msg("Categorization failed")
	}
	printJSON(label)
}

func runImportStatement(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("import-statement", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	filePath := fs.String("file", "", "Statement file (PDF or text)")
	dryRun := fs.Bool("dry-run", false, "Print extracted transactions without saving")
	fs.Parse(os.Args[2:])

	if *userID == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli import-statement -user ID -file PATH [-dry-run]")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read statement")
	}

	ctx, done, a := setup(cfg, log, 5*time.Minute)
	defer done()

	analyzer, err := a.Statements()
	if err != nil {
		log.Fatal().Err(err).Msg("Statement import unavailable")
	}

	var txs []domain.Transaction
	if strings.EqualFold(filepath.Ext(*filePath), ".pdf") {
		txs, err = analyzer.AnalyzePDF(ctx, *userID, data)
	} else {
		txs, err = analyzer.AnalyzeText(ctx, *userID, string(data))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Statement analysis failed")
	}

	if *dryRun {
		printJSON(txs)
		return
	}

	saved, err := a.Advisor.ImportTransactions(ctx, *userID, txs)
	if err != nil {
		log.Fatal().Err(err).Int("saved", saved).Msg("Import failed")
	}
	fmt.Printf("Imported %d transactions from %s\n", saved, *filePath)
}

func runAttach(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("attach", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	txID := fs.String("tx", "", "Transaction ID")
	filePath := fs.String("file", "", "Receipt file to upload")
	fs.Parse(os.Args[2:])

	if *userID == "" || *txID == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli attach -user ID -tx ID -file PATH")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to open file")
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(*filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, done, a := setup(cfg, log, 5*time.Minute)
	defer done()

	tx, err := a.Advisor.AttachFile(ctx, *userID, *txID, contentType, f)
	if err != nil {
		log.Fatal().Err(err).Msg("Attach failed")
	}
	fmt.Printf("Attached %s to %s: %s\n", *filePath, tx.ID, tx.AttachmentURI)
}

func runSyncNotion(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	dryRun := fs.Bool("dry-run", false, "Log changes without writing to Notion")
	fs.Parse(os.Args[2:])
	requireUser(fs, log, *userID)

	if !cfg.NotionEnabled() {
		log.Fatal().Msg("NOTION_TOKEN and NOTION_INSIGHTS_DB_ID must be set")
	}

	ctx, done, a := setup(cfg, log, 10*time.Minute)
	defer done()

	client := notionsync.NewNotionClient(cfg.NotionToken)
	res, err := notionsync.SyncInsights(ctx, a.Advisor, client, cfg.NotionInsightsDBID, *userID, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Notion sync failed")
	}
	printJSON(res)
}
