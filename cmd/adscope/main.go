package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/veredas/adscope/internal/calc"
	"github.com/veredas/adscope/internal/config"
	"github.com/veredas/adscope/internal/ingest"
	"github.com/veredas/adscope/internal/mcp"
	"github.com/veredas/adscope/internal/metrics"
	"github.com/veredas/adscope/internal/query"
	"github.com/veredas/adscope/internal/store"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "metrics":
		err = runMetrics(os.Args[2:])
	case "calc":
		err = runCalc(os.Args[2:])
	case "serve-mcp":
		err = runServeMCP(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("adscope %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// argSet is a minimal --flag value parser shared by the subcommands.
type argSet struct {
	flags      map[string]string
	bools      map[string]bool
	positional []string
}

func parseArgs(args []string, boolFlags ...string) (*argSet, error) {
	isBool := make(map[string]bool, len(boolFlags))
	for _, f := range boolFlags {
		isBool[f] = true
	}

	out := &argSet{flags: map[string]string{}, bools: map[string]bool{}}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			out.positional = append(out.positional, arg)
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if isBool[name] {
			out.bools[name] = true
			continue
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("flag --%s needs a value", name)
		}
		i++
		out.flags[name] = args[i]
	}
	return out, nil
}

func openStore(dbFlag string) (store.Store, config.ResolvedConfig, error) {
	cfg, err := config.ResolveConfig(config.ResolveOptions{CLIDBPath: dbFlag})
	if err != nil {
		return nil, cfg, fmt.Errorf("resolving config: %w", err)
	}
	s, err := store.NewStore(store.StoreConfig{DBPath: cfg.DBPath.Value})
	if err != nil {
		return nil, cfg, fmt.Errorf("opening store: %w", err)
	}
	return s, cfg, nil
}

func runImport(args []string) error {
	set, err := parseArgs(args, "dry-run")
	if err != nil {
		return err
	}
	if len(set.positional) == 0 {
		return fmt.Errorf("usage: adscope import <file.json> [--db path] [--dry-run]")
	}

	s, _, err := openStore(set.flags["db"])
	if err != nil {
		return err
	}
	defer s.Close()

	opts := ingest.ImportOptions{DryRun: set.bools["dry-run"]}
	if opts.DryRun {
		fmt.Println("Dry run mode — no changes will be written")
	}

	engine := ingest.NewEngine(s)
	total := &ingest.ImportResult{}
	for _, path := range set.positional {
		fmt.Printf("Importing %s...\n", path)
		result, err := engine.ImportFile(context.Background(), path, opts)
		if err != nil {
			return err
		}
		total.Add(result)
	}

	fmt.Print(ingest.FormatImportResult(total))
	return nil
}

func runMetrics(args []string) error {
	set, err := parseArgs(args)
	if err != nil {
		return err
	}

	s, cfg, err := openStore(set.flags["db"])
	if err != nil {
		return err
	}
	defer s.Close()

	criteria := query.Criteria{
		Perspective: set.flags["perspective"],
		Platform:    set.flags["platform"],
		DateFrom:    set.flags["from"],
		DateTo:      set.flags["to"],
		Search:      set.flags["search"],
	}
	if v := set.flags["competitors"]; v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid competitor id %q", part)
			}
			criteria.CompetitorIDs = append(criteria.CompetitorIDs, id)
		}
	}
	if v := set.flags["media"]; v != "" {
		for _, part := range strings.Split(v, ",") {
			criteria.MediaTypes = append(criteria.MediaTypes, strings.TrimSpace(part))
		}
	}

	var opts metrics.Options
	if v := set.flags["weeks"]; v != "" {
		if opts.TrailingWeeks, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid --weeks %q", v)
		}
	}
	if v := set.flags["top"]; v != "" {
		if opts.TopTags, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid --top %q", v)
		}
	}

	engine := metrics.NewEngine(s, cfg.Tables)
	report, err := engine.Compute(context.Background(), criteria, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runCalc(args []string) error {
	set, err := parseArgs(args)
	if err != nil {
		return err
	}
	if len(set.positional) == 0 {
		return fmt.Errorf("usage: adscope calc <operation> [--values 1,2,3] [--numerator x] [--denominator y] [--old x] [--new y] [--precision n]")
	}

	req := calc.Request{Op: strings.ToLower(set.positional[0])}
	if v := set.flags["values"]; v != "" {
		for _, part := range strings.Split(v, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return fmt.Errorf("invalid value %q", part)
			}
			req.Values = append(req.Values, f)
		}
	}
	for flag, dst := range map[string]*float64{
		"numerator":   &req.Numerator,
		"denominator": &req.Denominator,
		"old":         &req.OldValue,
		"new":         &req.NewValue,
	} {
		if v := set.flags[flag]; v != "" {
			if *dst, err = strconv.ParseFloat(v, 64); err != nil {
				return fmt.Errorf("invalid --%s %q", flag, v)
			}
		}
	}
	if v := set.flags["precision"]; v != "" {
		if req.Precision, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid --precision %q", v)
		}
	}

	result, err := calc.Eval(req)
	if err != nil {
		return err
	}

	data, _ := json.Marshal(result)
	fmt.Println(string(data))
	return nil
}

func runServeMCP(args []string) error {
	set, err := parseArgs(args)
	if err != nil {
		return err
	}

	s, cfg, err := openStore(set.flags["db"])
	if err != nil {
		return err
	}
	defer s.Close()

	srv := mcp.NewServer(mcp.ServerConfig{
		Store:   s,
		Tables:  cfg.Tables,
		Version: version,
	})
	return mcpserver.ServeStdio(srv)
}

func runStats(args []string) error {
	set, err := parseArgs(args)
	if err != nil {
		return err
	}

	s, _, err := openStore(set.flags["db"])
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Ads:         %d\n", stats.AdCount)
	fmt.Printf("Competitors: %d\n", stats.CompetitorCount)
	if stats.DBSizeBytes > 0 {
		fmt.Printf("DB size:     %d bytes\n", stats.DBSizeBytes)
	}
	return nil
}

func printUsage() {
	fmt.Println(`adscope — competitive ad intelligence engine

Usage:
  adscope import <file.json> [--db path] [--dry-run]   Load a harvested ad dump
  adscope metrics [filters] [--db path]                Compute aggregated metrics (JSON)
  adscope calc <op> [--values 1,2,3] [...]             Deterministic arithmetic
  adscope serve-mcp [--db path]                        Serve tools over MCP stdio
  adscope stats [--db path]                            Show store counts
  adscope version                                      Print version

Metrics filters:
  --perspective <tag>       Named competitor viewpoint
  --competitors <ids>       Comma-separated competitor ids
  --platform <hint>         Platform hint (meta, google, tiktok, ...)
  --media <types>           image,video
  --from / --to <date>      Inclusive date bounds, YYYY-MM-DD
  --search <term>           Free-text filter
  --weeks <n>               Fixed trailing-week window (zero-filled)
  --top <n>                 Top-N tags (default 20)

Calc operations: sum, avg, ratio, percentage, growth_rate, round`)
}
