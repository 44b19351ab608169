package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/poe2tools/patchwatch/app/analyze"
	"github.com/poe2tools/patchwatch/app/api"
	"github.com/poe2tools/patchwatch/app/cache"
	"github.com/poe2tools/patchwatch/app/cfg"
	"github.com/poe2tools/patchwatch/app/patch"
	"github.com/poe2tools/patchwatch/app/pipeline"
	"github.com/poe2tools/patchwatch/app/pob"
	"github.com/poe2tools/patchwatch/app/scrape"
	"github.com/poe2tools/patchwatch/app/storage"
	"github.com/poe2tools/patchwatch/app/tasks"
)

func main() {
	c, args, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse configuration: %v\n", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(c)

	if len(args) == 0 {
		printUsage()
		return
	}

	command, commandArgs := args[0], args[1:]

	switch command {
	case "latest":
		err = runLatest(c)
	case "summarize":
		err = runSummarize(c)
	case "scrape":
		err = runScrape(c)
	case "analyze":
		err = runAnalyze(c, commandArgs)
	case "serve":
		err = runServe(c)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func setupLogging(c *cfg.Cfg) {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func printUsage() {
	fmt.Printf("patchwatch %s - Path of Exile 2 patch-note aggregator\n\n", cfg.GetVersion())
	fmt.Println("Usage: patchwatch [options] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  latest               Show the most recently stored patch note")
	fmt.Println("  summarize            LLM digest of the latest note (needs ANTHROPIC_API_KEY)")
	fmt.Println("  scrape               Fetch, normalize and store patch notes from all sources")
	fmt.Println("  analyze <build.xml>  Analyze a Path of Building export (needs ANTHROPIC_API_KEY)")
	fmt.Println("  serve                Run the HTTP server with the background scheduler")
	fmt.Println()
	fmt.Println("Run with --help for configuration options.")
}

// buildSources assembles the configured fetchers plus the shared
// pipeline components.
func buildSources(c *cfg.Cfg) ([]tasks.SourceFetcher, *pipeline.Orchestrator, *storage.Store, error) {
	sources, err := scrape.LoadSources(c.SourcesFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load sources: %w", err)
	}

	client := scrape.NewClient(c.UserAgent)
	ttl := time.Duration(c.CacheTTLHours) * time.Hour

	var fetchers []tasks.SourceFetcher
	if sources.Forum.Enabled {
		forumCache := cache.NewStore(c.CacheDir, "patch_notes", ttl)
		fetchers = append(fetchers, scrape.NewForumFetcher(client, forumCache, sources.Forum.URL))
	}
	if sources.NewsFeed.Enabled {
		newsCache := cache.NewStore(c.CacheDir, "news", ttl)
		fetchers = append(fetchers, scrape.NewNewsFeedFetcher(client, newsCache, sources.NewsFeed.URL))
	}

	store := storage.NewStore(c.DataDir)
	orchestrator := pipeline.NewOrchestrator(patch.NewNormalizer(), store)

	return fetchers, orchestrator, store, nil
}

func runLatest(c *cfg.Cfg) error {
	store := storage.NewStore(c.DataDir)

	note, err := store.LoadLatest()
	if err != nil {
		return err
	}
	if note == nil {
		fmt.Println("No patch notes stored yet. Run 'patchwatch scrape' first.")
		return nil
	}

	title := color.New(color.Bold, color.FgCyan)
	title.Println(note.Title)
	fmt.Printf("Date: %s\n", note.Date)
	if note.URL != "" {
		fmt.Printf("URL:  %s\n", note.URL)
	}
	if len(note.Keywords) > 0 {
		color.Yellow("Keywords: %s", strings.Join(note.Keywords, ", "))
	}
	if note.Summary != "" {
		fmt.Println()
		fmt.Println(note.Summary)
	}
	return nil
}

func runSummarize(c *cfg.Cfg) error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required for summarization")
	}

	store := storage.NewStore(c.DataDir)
	note, err := store.LoadLatest()
	if err != nil {
		return err
	}
	if note == nil {
		fmt.Println("No patch notes stored yet. Run 'patchwatch scrape' first.")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	color.Cyan("Summarizing: %s", note.Title)

	analyzer := analyze.New(c.AnthropicAPIKey, c.AnthropicModel)
	summary, err := analyzer.SummarizePatchNote(ctx, note)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(summary)
	return nil
}

func runScrape(c *cfg.Cfg) error {
	fetchers, orchestrator, _, err := buildSources(c)
	if err != nil {
		return err
	}
	if len(fetchers) == 0 {
		return fmt.Errorf("no sources enabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var total pipeline.Tally
	for _, fetcher := range fetchers {
		color.Cyan("Scraping source: %s", fetcher.Name())

		result, err := fetcher.FetchAll(ctx)
		if err != nil {
			color.Red("Source %s failed: %v", fetcher.Name(), err)
			continue
		}

		tally := orchestrator.Run(result.All, func(msg string) {
			fmt.Println(msg)
		})
		total.New += tally.New
		total.Skipped += tally.Skipped
		total.Errors += tally.Errors
	}

	fmt.Println()
	color.Green("Scrape complete: %d new, %d skipped, %d errors.",
		total.New, total.Skipped, total.Errors)
	return nil
}

func runAnalyze(c *cfg.Cfg, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: patchwatch analyze <build.xml> [goals...]")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required for build analysis")
	}

	buildPath := args[0]
	userGoals := strings.Join(args[1:], " ")

	build, err := pob.ParseFile(buildPath)
	if err != nil {
		return err
	}

	color.Cyan("Parsed build: %s %s (level %s), main skill %s",
		build.ClassName, build.AscendClassName, build.Level, build.MainSkillName)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	analyzer := analyze.New(c.AnthropicAPIKey, c.AnthropicModel)

	fmt.Println("Generating community search suggestions...")
	suggestions, err := analyzer.SearchSuggestions(ctx, build)
	if err != nil {
		slog.Warn("Search suggestion generation failed", "error", err)
	}
	for _, suggestion := range suggestions {
		fmt.Printf("  - %s\n", suggestion)
	}

	sources, err := scrape.LoadSources(c.SourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	client := scrape.NewClient(c.UserAgent)
	ttl := time.Duration(c.CacheTTLHours) * time.Hour

	gatherer := &analyze.ContextGatherer{
		Wiki:      scrape.NewWikiFetcher(client, cache.NewStore(c.CacheDir, "wiki", ttl), sources.Wiki.BaseURL),
		Community: scrape.NewCommunityFetcher(client, cache.NewStore(c.CacheDir, "community", ttl), sources),
		Details:   scrape.NewPoE2DBFetcher(client, cache.NewStore(c.CacheDir, "poe2db", ttl), sources.PoE2DB.BaseURL),
		Notes:     storage.NewStore(c.DataDir),
	}

	fmt.Println("Gathering wiki, community and patch-note context...")
	additionalData := gatherer.Gather(ctx, build, suggestions)

	fmt.Println("Requesting build analysis...")
	analysis, err := analyzer.AnalyzeBuild(ctx, build, additionalData, userGoals)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(analysis)
	return nil
}

func runServe(c *cfg.Cfg) error {
	fetchers, orchestrator, store, err := buildSources(c)
	if err != nil {
		return err
	}

	slog.Info("Starting background scheduler", "interval_seconds", c.SchedulerInterval)
	scheduler := tasks.NewScheduler(fetchers, orchestrator)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(store, scheduler, fetchers, orchestrator)
	server := api.NewServer(handler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("PatchWatch server started", "version", cfg.GetVersion())

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return nil
}
