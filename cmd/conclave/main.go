// conclave runs multi-agent deliberations from the command line: triage a
// query into an execution plan, run the council, print the synthesized
// answer.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"golang.org/x/term"

	"conclave/pkg/archive"
	"conclave/pkg/config"
	"conclave/pkg/council"
	"conclave/pkg/engine"
	"conclave/pkg/logx"
	"conclave/pkg/metrics"
	"conclave/pkg/tokens"
	"conclave/pkg/version"
)

// EnvPassword allows passwordless startup when a secrets file exists.
const EnvPassword = "CONCLAVE_PASSWORD"

type cliOptions struct {
	ConfigPath  string
	Strategy    string
	Model       string
	ArchiveDB   string
	Prometheus  string
	Transcript  bool
	JSONOutput  bool
	Debug       bool
	Preview     bool
	ListRuns    bool
	ShowRun     string
	Usage       bool
	InitSecrets bool
	Version     bool
}

func main() {
	var opts cliOptions

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	flag.StringVar(&opts.Strategy, "strategy", "", "Routing strategy override (auto/pool/diversity/role/specialized/tiered/cost)")
	flag.StringVar(&opts.Model, "model", "", "Default model override (vendor/model)")
	flag.StringVar(&opts.ArchiveDB, "archive", "", "SQLite file for transcript archival (implies -transcript)")
	flag.StringVar(&opts.Prometheus, "prometheus", "", "Prometheus endpoint for -usage reports")
	flag.BoolVar(&opts.Transcript, "transcript", false, "Retain and print the deliberation transcript")
	flag.BoolVar(&opts.JSONOutput, "json", false, "Print the result as JSON")
	flag.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&opts.Preview, "preview", false, "Print a token and cost estimate before the run")
	flag.BoolVar(&opts.ListRuns, "list", false, "List archived runs and exit")
	flag.StringVar(&opts.ShowRun, "show", "", "Print one archived run by ID and exit")
	flag.BoolVar(&opts.Usage, "usage", false, "Print recorded token and cost totals and exit")
	flag.BoolVar(&opts.InitSecrets, "init-secrets", false, "Store encrypted vendor API keys and exit")
	flag.BoolVar(&opts.Version, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "conclave - multi-agent deliberation engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options] \"your question\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  echo \"your question\" | %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s \"Should we migrate the billing service to gRPC?\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -strategy diversity -transcript \"Evaluate our caching options\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -archive runs.db -list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -usage -prometheus http://localhost:9090\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if opts.Debug {
		logx.SetDebug(true, nil)
	}

	if err := run(&opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *cliOptions) error {
	if opts.Version {
		fmt.Printf("conclave %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return nil
	}
	if opts.InitSecrets {
		return initSecrets()
	}

	if err := loadSecrets(); err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.ListRuns {
		return listRuns(ctx, cfg.ArchivePath)
	}
	if opts.ShowRun != "" {
		return showRun(ctx, cfg.ArchivePath, opts.ShowRun)
	}
	if opts.Usage {
		return showUsage(ctx, cfg.PrometheusURL)
	}

	query, err := readQuery()
	if err != nil {
		return err
	}

	if clamped, truncated := clampQuery(cfg.DefaultModel, query); truncated {
		fmt.Fprintf(os.Stderr, "Warning: query truncated to roughly %d tokens\n", maxQueryTokens)
		query = clamped
	}
	if opts.Preview {
		fmt.Fprintln(os.Stderr, previewCost(cfg, query))
	}

	eng, err := engine.New(cfg, engine.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	outcome, err := eng.Run(ctx, query)
	if err != nil {
		return err
	}

	if opts.JSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	if opts.Transcript && len(outcome.Transcript) > 0 {
		printTranscript(outcome)
	}

	fmt.Println(outcome.FinalResponse)

	if outcome.RunID != "" {
		fmt.Fprintf(os.Stderr, "\n(archived as run %s)\n", outcome.RunID)
	}
	return nil
}

// applyOverrides layers CLI flags over the loaded config.
func applyOverrides(cfg *config.Config, opts *cliOptions) {
	if opts.Model != "" {
		cfg.DefaultModel = opts.Model
	}
	if opts.Strategy != "" {
		cfg.Routing.Strategy = opts.Strategy
	}
	if opts.ArchiveDB != "" {
		cfg.ArchivePath = opts.ArchiveDB
		cfg.Observability = true
	}
	if opts.Transcript {
		cfg.Observability = true
	}
	if opts.Prometheus != "" {
		cfg.PrometheusURL = opts.Prometheus
	}
}

// maxQueryTokens bounds the user query so triage and seat prompts, which all
// embed it, stay well inside model context windows.
const maxQueryTokens = 12000

// clampQuery truncates an oversized query and reports whether it did.
func clampQuery(modelID, query string) (string, bool) {
	counter, err := tokens.NewCounter(modelID)
	if err != nil {
		return query, false
	}
	if counter.WithinLimit(query, maxQueryTokens) {
		return query, false
	}
	return counter.Truncate(query, maxQueryTokens), true
}

// previewCompletionTokens is the assumed completion length per call when
// estimating cost up front.
const previewCompletionTokens = 1024

// previewCost renders a rough pre-run estimate at the default model's rates.
// Later rounds carry prior positions in their prompts, so real spend runs
// higher than query tokens alone suggest; this is a floor, not a quote.
func previewCost(cfg *config.Config, query string) string {
	queryTokens := tokens.CountSimple(query)
	perCall := config.EstimateCostUSD(cfg.DefaultModel, queryTokens, previewCompletionTokens)
	if perCall == 0 {
		return fmt.Sprintf("Preview: %d query tokens; no cost table entry for %s", queryTokens, cfg.DefaultModel)
	}

	// A typical council: four seats over three rounds, plus triage, three
	// critiques, two judge checks and the synthesis.
	const typicalCalls = 4*3 + 7
	return fmt.Sprintf("Preview: %d query tokens; at least $%.4f per call at %s rates, about $%.2f for a typical council (%d calls)",
		queryTokens, perCall, cfg.DefaultModel, perCall*typicalCalls, typicalCalls)
}

// readQuery takes the query from the positional arguments, or from stdin
// when none were given.
func readQuery() (string, error) {
	if args := flag.Args(); len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	info, err := os.Stdin.Stat()
	if err == nil && (info.Mode()&os.ModeCharDevice) != 0 {
		return "", fmt.Errorf("no query given: pass it as an argument or pipe it on stdin")
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read query from stdin: %w", err)
	}

	query := strings.TrimSpace(sb.String())
	if query == "" {
		return "", fmt.Errorf("empty query")
	}
	return query, nil
}

func printTranscript(outcome *engine.Outcome) {
	for i := range outcome.Transcript {
		record := &outcome.Transcript[i]
		fmt.Printf("--- Round %d ---\n", record.Number)

		roles := make([]string, 0, len(record.Responses))
		for role := range record.Responses {
			roles = append(roles, string(role))
		}
		sort.Strings(roles)
		for _, role := range roles {
			fmt.Printf("[%s]\n%s\n\n", strings.ToUpper(role), record.Responses[council.Role(role)])
		}
		if record.Critique != "" {
			fmt.Printf("[RED TEAM]\n%s\n\n", record.Critique)
		}
	}
	fmt.Println("--- Synthesis ---")
}

func listRuns(ctx context.Context, archivePath string) error {
	if archivePath == "" {
		return fmt.Errorf("no archive configured: set archive_path or pass -archive")
	}
	store, err := archive.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx, 50)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	for _, r := range runs {
		exit := ""
		if r.EarlyExit {
			exit = " (early exit)"
		}
		fmt.Printf("%s  %s  %s/%d rounds%s\n  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Pattern, r.RoundsExecuted, exit, r.Query)
	}
	return nil
}

// showUsage prints recorded token and cost totals from Prometheus, broken
// down by model and by role.
func showUsage(ctx context.Context, prometheusURL string) error {
	if prometheusURL == "" {
		return fmt.Errorf("no Prometheus endpoint configured: set prometheus_url or pass -prometheus")
	}
	svc, err := metrics.NewQueryService(prometheusURL)
	if err != nil {
		return err
	}

	byModel, err := svc.GetUsageByModel(ctx)
	if err != nil {
		return err
	}
	byRole, err := svc.GetUsageByRole(ctx)
	if err != nil {
		return err
	}
	if len(byModel) == 0 {
		fmt.Println("No usage recorded.")
		return nil
	}

	total := metrics.Usage{}
	fmt.Println("By model:")
	printUsageTable(byModel, &total)
	fmt.Println("\nBy role:")
	printUsageTable(byRole, nil)
	fmt.Printf("\nTotal: %d prompt + %d completion = %d tokens, $%.4f\n",
		total.PromptTokens, total.CompletionTokens, total.TotalTokens, total.TotalCost)
	return nil
}

func printUsageTable(usages map[string]*metrics.Usage, total *metrics.Usage) {
	names := make([]string, 0, len(usages))
	for name := range usages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		u := usages[name]
		fmt.Printf("  %-40s %10d tokens  $%.4f\n", name, u.TotalTokens, u.TotalCost)
		if total != nil {
			total.PromptTokens += u.PromptTokens
			total.CompletionTokens += u.CompletionTokens
			total.TotalTokens += u.TotalTokens
			total.TotalCost += u.TotalCost
		}
	}
}

func showRun(ctx context.Context, archivePath, id string) error {
	if archivePath == "" {
		return fmt.Errorf("no archive configured: set archive_path or pass -archive")
	}
	store, err := archive.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// loadSecrets decrypts the project secrets file when one exists so that
// config normalization can resolve vendor keys from it.
func loadSecrets() error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if !config.SecretsFileExists(dir) {
		return nil
	}

	password := os.Getenv(EnvPassword)
	if password == "" {
		fmt.Fprint(os.Stderr, "Secrets file password: ")
		raw, err := term.ReadPassword(syscall.Stdin)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	secrets, err := config.DecryptSecretsFile(dir, password)
	if err != nil {
		return err
	}
	config.SetDecryptedSecrets(secrets)
	return nil
}

// initSecrets interactively collects vendor API keys and writes them to the
// encrypted secrets file in the current directory.
func initSecrets() error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	password, err := promptForPassword()
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	secrets := make(map[string]string)
	for _, name := range []string{config.EnvAnthropicKey, config.EnvOpenAIKey, config.EnvGoogleKey} {
		fmt.Printf("Enter %s (press Enter to skip): ", name)
		if scanner.Scan() {
			if value := strings.TrimSpace(scanner.Text()); value != "" {
				secrets[name] = value
			}
		}
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no keys entered, nothing to store")
	}

	if err := config.EncryptSecretsFile(dir, password, secrets); err != nil {
		return err
	}
	fmt.Printf("Stored %d key(s) in %s\n", len(secrets), config.SecretsFilePath(dir))
	fmt.Printf("Set %s to skip the password prompt at startup.\n", EnvPassword)
	return nil
}

// promptForPassword reads a password twice without echo and requires a match.
func promptForPassword() (string, error) {
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Print("Enter a password for the secrets file: ")
		first, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		second, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		if !bytes.Equal(first, second) {
			if attempt < maxAttempts {
				fmt.Println("Passwords do not match. Please try again.")
				continue
			}
			return "", fmt.Errorf("passwords do not match after %d attempts", maxAttempts)
		}

		password := string(first)
		for i := range first {
			first[i] = 0
		}
		for i := range second {
			second[i] = 0
		}
		return password, nil
	}
	return "", fmt.Errorf("failed to get matching passwords")
}
