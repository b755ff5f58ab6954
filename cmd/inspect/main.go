// Command inspect runs one fetch-extract-locate-normalize pass against the
// AOAWS page (or a saved copy of it) and reports each phase as PASS or FAIL.
// It is the quickest way to check that the page layout still matches the
// column map after ANWS changes something.
//
// Usage:
//
//	go run ./cmd/inspect -lang en -station Taoyuan,Kinmen
//	go run ./cmd/inspect -file mainRight.html -station Taoyuan
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/adapter/aoaws"
	"github.com/couchcryptid/aoaws-etl/internal/domain"
	json "github.com/goccy/go-json"
)

// phase tracks pass/fail for an inspection phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	file     string
	lang     string
	url      string
	timeout  time.Duration
	stations []string
}

func main() {
	file := flag.String("file", "", "read a saved AOAWS page instead of fetching")
	lang := flag.String("lang", domain.DefaultLanguage, "page language (en or tw)")
	url := flag.String("url", "", "page URL template with %s for the language")
	timeout := flag.Duration("timeout", aoaws.DefaultTimeout, "fetch timeout")
	station := flag.String("station", "Taoyuan", "comma-separated station names")
	flag.Parse()

	opts := options{
		file:     *file,
		lang:     *lang,
		url:      *url,
		timeout:  *timeout,
		stations: splitStations(*station),
	}
	if len(opts.stations) == 0 || !domain.IsSupportedLanguage(opts.lang) {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(context.Background(), opts, os.Stdout))
}

func run(ctx context.Context, opts options, out io.Writer) int {
	fmt.Fprintln(out, "=== AOAWS Inspection ===")
	fmt.Fprintln(out)

	page, err := loadPage(ctx, opts)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	table := aoaws.ExtractTable(page)

	extract := &phase{name: "Extract table"}
	if len(table) == 0 {
		extract.errorf("no rows under #%s (%d bytes of markup)", aoaws.TableAnchorID, len(page))
	}
	for i, row := range table {
		if err := row.Validate(); err != nil {
			extract.errorf("row %d: %v", i, err)
		}
	}

	locate := &phase{name: "Locate stations"}
	normalize := &phase{name: "Normalize observations"}
	var observations []domain.Observation
	for _, station := range opts.stations {
		row, ok := domain.LocateStation(table, station)
		if !ok {
			locate.errorf("%s: %v", station, domain.ErrStationNotFound)
			continue
		}
		obs, err := domain.Normalize(row, station)
		if err != nil {
			normalize.errorf("%s: %v", station, err)
			continue
		}
		if obs.Condition == domain.ConditionUnknown && obs.Weather != nil {
			normalize.errorf("%s: weather %q has no condition", station, obs.Weather.Text)
		}
		observations = append(observations, obs)
	}

	phases := []*phase{extract, locate, normalize}
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d extracted, %d stations requested, %d observations\n",
		len(table), len(opts.stations), len(observations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	for _, obs := range observations {
		printObservation(out, obs)
	}

	fmt.Fprintf(out, "\n%s\n", domain.Attribution)
	if allPassed {
		fmt.Fprintln(out, "\nAll phases passed.")
		return 0
	}
	fmt.Fprintln(out, "\nInspection FAILED.")
	return 1
}

func loadPage(ctx context.Context, opts options) (string, error) {
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", fmt.Errorf("read page: %w", err)
		}
		return string(data), nil
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := aoaws.NewClient(opts.url, opts.timeout, logger)
	page, err := client.FetchPage(ctx, opts.lang)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", client.PageURL(opts.lang), err)
	}
	return page, nil
}

func printObservation(out io.Writer, obs domain.Observation) {
	fmt.Fprintf(out, "\n--- %s (%s) ---\n", obs.StationName, obs.Timestamp)
	for _, m := range obs.Measurements() {
		fmt.Fprintf(out, "  %-18s %-22s raw=%q\n", m.Code, m.String(), m.RawText)
	}
	if band, ok := obs.VisibilityBand(); ok {
		fmt.Fprintf(out, "  %-18s %s\n", "visibility_band", band)
	}
	data, err := json.MarshalIndent(obs, "  ", "  ")
	if err != nil {
		fmt.Fprintf(out, "  encode: %v\n", err)
		return
	}
	fmt.Fprintf(out, "  %s\n", data)
}

func splitStations(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
