package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nodeadmin/owlstore/config"
	"github.com/nodeadmin/owlstore/journal"
	"github.com/nodeadmin/owlstore/ontology"
	"github.com/nodeadmin/owlstore/reasoner"
	"github.com/nodeadmin/owlstore/store"
)

const usage = "Usage: owlstore [-input <file> | -replay <session>] [-config <file>] [-format auto|rdfxml|ntriples|obo] [-journal <db>] [-query \"s p o\"] [-classify] [-output <file>] [-pretty]"

// errUsage is returned for an invalid flag combination; main prints the
// usage line for it.
var errUsage = errors.New("invalid arguments")

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to YAML config file")
	input := flag.String("input", "", "Path to ontology file (.owl, .rdf, .nt, .obo)")
	output := flag.String("output", "", "Path to output file (default: stdout)")
	format := flag.String("format", "", "Input format: auto, rdfxml, ntriples, obo")
	base := flag.String("base", "", "Base IRI for relative references")
	journalPath := flag.String("journal", "", "Path to sqlite triple journal")
	replay := flag.String("replay", "", "Journal session to replay instead of reading -input")
	sessions := flag.Bool("sessions", false, "List journal sessions and exit")
	query := flag.String("query", "", "Triple pattern \"s p o\", ? matches anything")
	classify := flag.Bool("classify", false, "Write the classified concept hierarchy as JSON")
	pretty := flag.Bool("pretty", false, "Pretty-print JSON output")
	metricsAddr := flag.String("metrics-addr", "", "Serve prometheus metrics on this address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	overrides(cfg, map[string]*string{
		"format":       format,
		"base":         base,
		"journal":      journalPath,
		"metrics-addr": metricsAddr,
	})
	if *pretty {
		cfg.Output.Pretty = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	cfg.RegisterPrefixes()

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var j *journal.Journal
	if cfg.Journal.Path != "" {
		j, err = journal.Open(ctx, cfg.Journal.Path, logger)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer j.Close()
	}

	if *sessions {
		if j == nil {
			return fmt.Errorf("%w: -sessions requires -journal", errUsage)
		}
		if err := listSessions(ctx, j, os.Stdout); err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		return nil
	}

	if *replay != "" {
		cfg.Journal.Session = *replay
	}
	switch {
	case *input == "" && cfg.Journal.Session == "":
		return fmt.Errorf("%w: -input or -replay is required", errUsage)
	case *input != "" && *replay != "":
		return fmt.Errorf("%w: -input and -replay are exclusive", errUsage)
	case *input == "" && j == nil:
		return fmt.Errorf("%w: replaying a session requires -journal", errUsage)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics, reg, logger)
	}

	kernel := reasoner.NewKernel(logger)
	s := store.New(kernel, store.WithLogger(logger), store.WithMetrics(store.NewMetrics(reg)))

	start := time.Now()
	var n int
	if *input != "" {
		n, err = load(ctx, cfg, j, *input, s)
	} else {
		fmt.Fprintf(os.Stderr, "Replaying session %s...\n", cfg.Journal.Session)
		n, err = j.Replay(ctx, cfg.Journal.Session, s)
	}
	if err != nil {
		return fmt.Errorf("loading triples: %w", err)
	}
	parseTime := time.Since(start)
	fmt.Fprintf(os.Stderr, "Loaded %d triples in %v\n", n, parseTime)

	if unresolved := s.Unresolved(); len(unresolved) > 0 {
		logger.Warn("properties with unknown kind", "count", len(unresolved), "properties", unresolved)
	}

	out, closeOut, err := openOutput(*output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer closeOut()

	start = time.Now()
	if err := answer(kernel, s, out, *classify, *query, cfg.Output.Pretty, parseTime); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Answered in %v\n", time.Since(start))
	return nil
}

// answer writes the classified hierarchy, the query matches, or the
// consistency verdict.
func answer(kernel *reasoner.Kernel, s *store.Store, out io.Writer, classify bool, query string, pretty bool, parseTime time.Duration) error {
	switch {
	case classify:
		hierarchy, err := kernel.Classify()
		if err != nil {
			return fmt.Errorf("classifying: %w", err)
		}
		hierarchy.Stats.ParseTimeMs = parseTime.Milliseconds()
		hierarchy.Stats.TotalTimeMs += parseTime.Milliseconds()
		fmt.Fprintf(os.Stderr, "Classified %d concepts, %d inferred subsumptions (consistent: %v)\n",
			hierarchy.Stats.ConceptCount, hierarchy.Stats.InferredSubsumptions, hierarchy.Stats.Consistent)
		if err := reasoner.WriteClassifiedJSON(out, hierarchy, pretty); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	case query != "":
		pattern, err := parsePattern(query)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		written, err := ontology.WriteNQuads(out, s.Triples(pattern))
		if err != nil {
			return fmt.Errorf("answering query: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Matched %d triples\n", written)
	default:
		ok, err := kernel.IsConsistent()
		if err != nil {
			return fmt.Errorf("checking consistency: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Consistent: %v\n", ok)
	}
	return nil
}

// overrides copies the flags that were set on the command line over the
// config file values.
func overrides(cfg *config.Config, values map[string]*string) {
	flag.Visit(func(f *flag.Flag) {
		v, ok := values[f.Name]
		if !ok {
			return
		}
		switch f.Name {
		case "format":
			cfg.Format = *v
		case "base":
			cfg.BaseIRI = *v
		case "journal":
			cfg.Journal.Path = *v
		case "metrics-addr":
			cfg.Metrics.Addr = *v
		}
	})
}

// load parses path into s, recording every accepted triple in a new journal
// session when a journal is open.
func load(ctx context.Context, cfg *config.Config, j *journal.Journal, path string, s *store.Store) (int, error) {
	inputFmt, err := ontology.DetectFormat(path, cfg.Format)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if j == nil {
		fmt.Fprintf(os.Stderr, "Parsing %s as %s...\n", filepath.Base(path), inputFmt)
		return ontology.Load(ctx, f, inputFmt, cfg.BaseIRI, s)
	}

	session, err := j.NewSession(ctx, filepath.Base(path))
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(os.Stderr, "Recording session %s\n", session)
	rec := j.Recorder(ctx, session, s)

	fmt.Fprintf(os.Stderr, "Parsing %s as %s...\n", filepath.Base(path), inputFmt)
	n, err := ontology.Load(ctx, f, inputFmt, cfg.BaseIRI, rec)
	// Triples the store accepted before a failure are still recorded.
	return n, errors.Join(err, rec.Flush())
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing output: %v\n", err)
		}
	}, nil
}

func listSessions(ctx context.Context, j *journal.Journal, w io.Writer) error {
	list, err := j.Sessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Created.Format(time.RFC3339), s.Triples, s.Label)
	}
	return nil
}

var errPattern = errors.New("pattern needs three terms")

// parsePattern reads "s p o" where each term is ?, <iri>, _:label, a quoted
// string or a prefixed name.
func parsePattern(text string) (quad.Quad, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return quad.Quad{}, fmt.Errorf("%w: %q", errPattern, text)
	}
	terms := make([]quad.Value, 3)
	for i, f := range fields {
		terms[i] = parseTerm(f)
	}
	return quad.Quad{Subject: terms[0], Predicate: terms[1], Object: terms[2]}, nil
}

func parseTerm(f string) quad.Value {
	switch {
	case f == "?":
		return nil
	case strings.HasPrefix(f, "<") && strings.HasSuffix(f, ">"):
		return quad.IRI(f[1 : len(f)-1])
	case strings.HasPrefix(f, "_:"):
		return quad.BNode(f[2:])
	case len(f) >= 2 && strings.HasPrefix(f, `"`) && strings.HasSuffix(f, `"`):
		return quad.String(f[1 : len(f)-1])
	}
	return quad.IRI(f).Full()
}

func serveMetrics(m config.Metrics, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(m.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", m.Addr, "path", m.Path)
	if err := http.ListenAndServe(m.Addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "error", err)
	}
}
