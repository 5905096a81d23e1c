// Command pubmed provides a CLI for NCBI PubMed E-utilities.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/henrybloomingdale/pubmed-go/internal/config"
	"github.com/henrybloomingdale/pubmed-go/internal/eutils"
	"github.com/henrybloomingdale/pubmed-go/internal/ncbi"
	"github.com/henrybloomingdale/pubmed-go/internal/observability"
	"github.com/henrybloomingdale/pubmed-go/internal/output"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagJSON        bool
	flagHuman       bool
	flagFull        bool
	flagCSV         string
	flagRIS         string
	flagXLSX        string
	flagLimit       int
	flagStart       int
	flagDB          string
	flagConcurrency int
	flagYear        string
	flagType        string
	flagAPIKey      string
	flagLogLevel    string
)

// Populated by the root command's PersistentPreRunE.
var (
	appCfg *config.Config
	logger = zerolog.Nop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubmed",
	Short: "PubMed E-utilities CLI",
	Long: `A command-line interface for searching and retrieving articles from NCBI PubMed using the E-utilities API.

Defaults come from pubmed.yaml (./ or ~/.config/pubmed), a .env file and
PUBMED_* environment variables; flags override them.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "Output as structured JSON")
	pf.BoolVarP(&flagHuman, "human", "H", false, "Rich colorful terminal output")
	pf.BoolVar(&flagFull, "full", false, "Show full abstract (with --human)")
	pf.StringVar(&flagCSV, "csv", "", "Export results to CSV file")
	pf.StringVar(&flagRIS, "ris", "", "Export results to RIS file")
	pf.StringVar(&flagXLSX, "xlsx", "", "Export results to Excel file")
	pf.StringVar(&flagDB, "db", "", "Entrez database (default from config, PubMed)")
	pf.StringVar(&flagAPIKey, "api-key", "", "NCBI API key (or set NCBI_API_KEY env var)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	searchCmd.Flags().IntVar(&flagLimit, "limit", eutils.DefaultReturnMax, "Maximum number of results")
	searchCmd.Flags().IntVar(&flagStart, "start", eutils.DefaultReturnStart, "Offset into the ranked results")
	searchCmd.Flags().IntVar(&flagConcurrency, "concurrency", 1, "Parallel article fetches (1-10)")
	searchCmd.Flags().StringVar(&flagYear, "year", "", "Filter by year range (e.g., 2020-2025)")
	searchCmd.Flags().StringVar(&flagType, "type", "", "Filter by publication type (review, trial, meta-analysis)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(fetchCmd)
}

// setup validates flags, loads configuration and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := validateGlobalFlags(cmd); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	appCfg = cfg
	logger = observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	return nil
}

// applyFlags overrides configuration with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flagAPIKey != "" {
		cfg.NCBI.APIKey = flagAPIKey
	}
	if flags.Changed("db") {
		cfg.Search.Database = flagDB
	}
	if flags.Changed("limit") {
		cfg.Search.ReturnMax = flagLimit
	}
	if flags.Changed("start") {
		cfg.Search.ReturnStart = flagStart
	}
	if flags.Changed("concurrency") {
		cfg.Search.Concurrency = flagConcurrency
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
}

func validateGlobalFlags(cmd *cobra.Command) error {
	if flagJSON && flagHuman {
		return errors.New("--json and --human are mutually exclusive")
	}
	if flagFull && !flagHuman {
		return errors.New("--full requires --human")
	}
	if cmd.Name() != "search" {
		return nil
	}
	if flagLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", flagLimit)
	}
	if flagStart < 0 {
		return fmt.Errorf("--start must not be negative, got %d", flagStart)
	}
	if flagConcurrency < 1 || flagConcurrency > 10 {
		return fmt.Errorf("--concurrency must be between 1 and 10, got %d", flagConcurrency)
	}
	if flagYear != "" {
		if _, _, err := parseYearRange(flagYear); err != nil {
			return err
		}
	}
	return nil
}

func outputCfg() output.OutputConfig {
	return output.OutputConfig{
		JSON:     flagJSON,
		Human:    flagHuman,
		Full:     flagFull,
		CSVFile:  flagCSV,
		RISFile:  flagRIS,
		XLSXFile: flagXLSX,
	}
}

func newBaseClient(cfg *config.Config) *ncbi.BaseClient {
	opts := []ncbi.Option{
		ncbi.WithBaseURL(cfg.NCBI.BaseURL),
		ncbi.WithTool(cfg.NCBI.Tool),
		ncbi.WithTimeout(cfg.NCBI.Timeout),
		ncbi.WithConnectTimeout(cfg.NCBI.ConnectTimeout),
		ncbi.WithMaxResponseBytes(cfg.NCBI.MaxResponseBytes),
		ncbi.WithLogger(logger),
	}
	if cfg.NCBI.Email != "" {
		opts = append(opts, ncbi.WithEmail(cfg.NCBI.Email))
	}
	if cfg.NCBI.APIKey != "" {
		opts = append(opts, ncbi.WithAPIKey(cfg.NCBI.APIKey))
	}
	return ncbi.NewBaseClient(opts...)
}

func newEutilsClient(cfg *config.Config) *eutils.Client {
	return eutils.New(newBaseClient(cfg),
		eutils.WithDatabase(cfg.Search.Database),
		eutils.WithReturnMax(cfg.Search.ReturnMax),
		eutils.WithReturnStart(cfg.Search.ReturnStart),
		eutils.WithConcurrency(cfg.Search.Concurrency),
		eutils.WithLogger(logger),
	)
}

// parseYearRange accepts "YYYY" or "YYYY-YYYY" with an ascending range.
func parseYearRange(s string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	for _, p := range parts {
		if len(p) != 4 {
			return "", "", fmt.Errorf("invalid year %q in %q: want YYYY or YYYY-YYYY", p, s)
		}
		if _, err := strconv.Atoi(p); err != nil {
			return "", "", fmt.Errorf("invalid year %q in %q: want YYYY or YYYY-YYYY", p, s)
		}
	}
	if len(parts) == 1 {
		return parts[0], parts[0], nil
	}
	if parts[0] > parts[1] {
		return "", "", fmt.Errorf("year range %q is descending", s)
	}
	return parts[0], parts[1], nil
}

func buildQuery(args []string) string {
	query := strings.Join(args, " ")

	// Multi-word publication types must be quoted.
	if flagType != "" {
		typeMap := map[string]string{
			"review":        `"review"[pt]`,
			"trial":         `"clinical trial"[pt]`,
			"meta-analysis": `"meta-analysis"[pt]`,
			"randomized":    `"randomized controlled trial"[pt]`,
			"case-report":   `"case reports"[pt]`,
		}
		if mapped, ok := typeMap[strings.ToLower(flagType)]; ok {
			query += " AND " + mapped
		} else {
			query += fmt.Sprintf(` AND "%s"[pt]`, flagType)
		}
	}

	// Year filter; the flag was validated in setup.
	if flagYear != "" {
		if minYear, maxYear, err := parseYearRange(flagYear); err == nil {
			if minYear == maxYear {
				query += fmt.Sprintf(" AND %s[pdat]", minYear)
			} else {
				query += fmt.Sprintf(" AND %s:%s[pdat]", minYear, maxYear)
			}
		}
	}

	return query
}

// normalizePMIDArgs splits comma separated arguments and checks that each
// PMID is a positive integer.
func normalizePMIDArgs(args []string) ([]string, error) {
	var pmids []string
	for _, arg := range args {
		for _, p := range strings.Split(arg, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if n, err := strconv.ParseUint(p, 10, 64); err != nil || n == 0 {
				return nil, fmt.Errorf("invalid PMID %q", p)
			}
			pmids = append(pmids, p)
		}
	}
	if len(pmids) == 0 {
		return nil, errors.New("no PMIDs given")
	}
	return pmids, nil
}

// searchCmd implements the search subcommand.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search PubMed and fetch the matching articles",
	Long:  `Search PubMed using Boolean operators and MeSH terms, then fetch every returned PMID in ranked order.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newEutilsClient(appCfg)
		query := buildQuery(args)
		log := observability.WithSearchContext(logger, query)

		articles, err := client.Search(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		log.Info().Int("count", client.ArticleCount()).Int("fetched", len(articles)).Msg("search complete")

		summary := output.SearchSummary{
			Term:  query,
			Count: client.ArticleCount(),
			Start: client.ReturnStart(),
		}
		return output.FormatSearchResult(cmd.OutOrStdout(), summary, output.Records(articles), outputCfg())
	},
}

// fetchCmd implements the fetch subcommand.
var fetchCmd = &cobra.Command{
	Use:   "fetch <pmid> [pmid...]",
	Short: "Fetch full article details",
	Long:  `Retrieve article details including abstract, authors, DOI and PII for one or more PMIDs.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pmids, err := normalizePMIDArgs(args)
		if err != nil {
			return err
		}
		client := newEutilsClient(appCfg)

		articles := make([]*eutils.Article, 0, len(pmids))
		for _, pmid := range pmids {
			a, ok, err := client.FetchByID(cmd.Context(), pmid)
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}
			if !ok {
				articleLog := observability.WithArticleContext(logger, pmid)
				articleLog.Warn().Msg("no article found")
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: no article found for PMID %s\n", pmid)
				continue
			}
			articles = append(articles, a)
		}

		return output.FormatArticles(cmd.OutOrStdout(), output.Records(articles), outputCfg())
	},
}
