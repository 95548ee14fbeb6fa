// Package main is the askme CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/askme/internal/cli"
	"github.com/hyperjump/askme/internal/config"
	"github.com/hyperjump/askme/internal/fileid"
	"github.com/hyperjump/askme/internal/indexer"
	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/server"
	"github.com/hyperjump/askme/internal/watcher"
	"github.com/hyperjump/askme/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/askme/config.yaml"
	defaultServerURL  = "http://localhost:8000"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	if debug || cfg.Debug {
		return utils.NewLogger(true)
	}
	return utils.NewLoggerAtLevel(cfg.LogLevel)
}

// setup loads config, builds a logger and initializes every component. Failures exit.
func setup(ctx context.Context, configPath string, debug bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("askme version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, resolved, logger, components := setup(ctx, *configPath, *debug)
	defer logger.Sync()
	defer components.Close()
	logger.Info("config loaded", zap.String("config_path", resolved))

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithVectorStore(components.Vectors),
	}
	if components.Keywords != nil {
		opts = append(opts, server.WithKeywordIndex(components.Keywords))
	}
	if components.Reranker != nil {
		opts = append(opts, server.WithRerankHealth(components.Reranker))
	}
	srv := server.NewServer(components.Engine, components.Indexer, components.Storage, cfg, opts...)

	if dirs := cfg.Indexer.WatchDirs; len(dirs) > 0 {
		w := watcher.New(dirs, components.Indexer.WatchHandler(ctx, dirs),
			watcher.WithExtensions(cfg.Indexer.Extensions...),
			watcher.WithRecursive(cfg.Indexer.RecursiveOrDefault()),
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		go w.Sync()
		logger.Info("watching import directories", zap.Strings("dirs", dirs))
	}

	cw, err := config.Watch(ctx, resolved, srv.Reload, logger)
	if err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
	} else {
		defer cw.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: askme search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Prefix it with /<team> to scope it.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  askme search 部署流程
  askme search /研发部 部署流程                    # scoped to one team
  askme search --rerank=false --fusion weighted deploy guide
  askme search --output json --explain "配置问题"
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func searchConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// searchMinScoreFromConfig returns search.min_score from the config at path, or 0 when the
// config cannot be loaded.
func searchMinScoreFromConfig(path string) float64 {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return 0
	}
	return cfg.Search.MinScore
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// optionalBool parses a tri-state flag: empty means "use the configured default".
func optionalBool(v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func parseOutputFormat(v string) (cli.OutputFormat, error) {
	switch v {
	case "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", v)
	}
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])
	configPath := searchConfigPathFromArgs(searchArgs, defaultConfigPath)

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local indices directly)")
	limit := fs.Int("limit", 0, "number of results (0 = configured default)")
	team := fs.String("team", "", "restrict to one team (overrides a /<team> prefix)")
	rerank := fs.String("rerank", "", "true/false; empty uses the configured default")
	enhance := fs.String("enhance", "", "true/false query variants; empty uses the configured default")
	diversity := fs.String("diversity", "", "true/false; empty uses the configured default")
	fusion := fs.String("fusion", "", "rrf or weighted; empty uses the configured default")
	recallSize := fs.Int("recall-size", 0, "per-channel recall depth (0 = derived from limit)")
	minScore := fs.Float64("min-score", searchMinScoreFromConfig(configPath), "drop results below this final score")
	explain := fs.Bool("explain", false, "include score breakdowns")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req := &models.SearchRequest{
		Query:      queryStr,
		Limit:      *limit,
		Scope:      *team,
		Fusion:     *fusion,
		RecallSize: *recallSize,
		MinScore:   *minScore,
		Explain:    *explain,
	}
	for name, pair := range map[string]struct {
		raw string
		dst **bool
	}{
		"rerank":    {*rerank, &req.UseRerank},
		"enhance":   {*enhance, &req.UseQueryEnhance},
		"diversity": {*diversity, &req.UseDiversity},
	} {
		if *pair.dst, err = optionalBool(pair.raw); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -%s: %v\n", name, err)
			os.Exit(1)
		}
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// The server holds the bleve and sqlite locks, so go through its API when it is running.
		response, err = searchViaHTTP(*serverURL, req)
	} else {
		ctx := context.Background()
		_, _, logger, components := setup(ctx, *configPathFlag, false)
		defer logger.Sync()
		defer components.Close()
		if req.UseRerank == nil && !components.Engine.HasReranker() {
			req.UseRerank = models.Bool(false)
		}
		response, err = components.Engine.Search(ctx, req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	status, err := statusViaHTTP(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	writeStatusText(os.Stdout, "", status)
}

// writeStatusText prints a status map as sorted "key: value" lines, nesting objects.
func writeStatusText(w io.Writer, indent string, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nested, ok := m[k].(map[string]interface{}); ok {
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			writeStatusText(w, indent+"  ", nested)
			continue
		}
		fmt.Fprintf(w, "%s%s: %v\n", indent, k, m[k])
	}
}

func statusViaHTTP(serverURL string) (map[string]interface{}, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return s, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	team := fs.String("team", "", "team id for a single file (directories derive it from subfolders)")
	jsonl := fs.Bool("jsonl", false, "treat the file as JSON Lines documents")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: askme index [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, _, logger, components := setup(ctx, *configPath, false)
	defer logger.Sync()
	defer components.Close()

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}

	var res *indexer.BatchResult
	switch {
	case info.IsDir():
		res, err = components.Indexer.IndexDirectory(ctx, path, cfg.Indexer.Extensions, cfg.Indexer.RecursiveOrDefault())
	case *jsonl || strings.EqualFold(filepath.Ext(path), ".jsonl"):
		f, openErr := os.Open(path)
		if openErr != nil {
			fmt.Printf("Failed to open %s: %v\n", path, openErr)
			os.Exit(1)
		}
		defer f.Close()
		res, err = components.Indexer.IndexJSONL(ctx, f)
	default:
		doc, fileErr := components.Indexer.IndexFile(ctx, path, *team)
		if fileErr != nil {
			fmt.Printf("Indexing failed: %v\n", fileErr)
			os.Exit(1)
		}
		id, _ := fileid.ForFile(path)
		if doc != nil {
			id = doc.ID
		}
		fmt.Printf("Document indexed successfully: %s\n", id)
		return
	}
	if res != nil {
		_ = cli.WriteBatchResult(os.Stdout, res, format)
	}
	if err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: askme delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	req, err := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/documents/"+url.PathEscape(docID), nil)
	if err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Deletion failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func printUsage() {
	fmt.Println(`askme - team knowledge search with hybrid recall and reranking

Usage:
  askme server [flags]               Start the HTTP server
  askme search [flags] <query>       Search documents
  askme index [flags] <path>         Index a file, a JSONL file or a directory
  askme delete [flags] <id>          Delete a document (via the server)
  askme status [flags]               Show server status
  askme version                      Show version
  askme help                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/askme/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --server string    Server URL (default: http://localhost:8000); empty opens local indices
  --limit int        Number of results
  --team string      Restrict to one team
  --rerank, --enhance, --diversity   true/false overrides of the configured defaults
  --fusion string    rrf or weighted
  --min-score float  Drop results below this final score
  --explain          Include score breakdowns
  --output string    text or json

Index Flags:
  --config string    Config file path
  --team string      Team id for a single file
  --jsonl            Read JSON Lines documents ({"id","filename","team_id","content","metadata"})

Examples:
  askme server
  askme search /研发部 部署流程
  askme search --output json "配置问题"
  askme index ./imports
  askme index --team 研发部 handbook.pdf
  askme index docs.jsonl
  askme delete 0d7c...`)
}
