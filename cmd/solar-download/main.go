// solar-download - Download the GFZ Potsdam index files used for IRI runs
//
// Data sources:
//   - GFZ definitive: Kp, ap, Ap, SN and F10.7 since 1932
//   - GFZ nowcast: the same columns for the last 30 days
//
// Each file is parsed after download so a truncated or HTML error page is
// reported instead of being handed to iri-sweep -gfz.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-download ./cmd/solar-download

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KI7MT/ki7mt-iri-apps/internal/common"
	"github.com/KI7MT/ki7mt-iri-apps/internal/solar"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// DataSource defines a GFZ index file
type DataSource struct {
	Name     string
	URL      string
	Filename string
	Desc     string
}

var sources = []DataSource{
	{
		Name:     "gfz_definitive",
		URL:      solar.GFZURL,
		Filename: "Kp_ap_Ap_SN_F107_since_1932.txt",
		Desc:     "GFZ Kp/ap/Ap/SN/F10.7 daily (1932-present)",
	},
	{
		Name:     "gfz_nowcast",
		URL:      "https://kp.gfz-potsdam.de/app/files/Kp_ap_Ap_SN_F107_nowcast.txt",
		Filename: "Kp_ap_Ap_SN_F107_nowcast.txt",
		Desc:     "GFZ Kp/ap/Ap/SN/F10.7 nowcast (last 30 days)",
	},
}

// verify parses a downloaded GFZ file and returns the day count and the
// last day carrying an observed F10.7.
func verify(path string) (int, time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, time.Time{}, err
	}
	defer f.Close()

	days, err := solar.ParseGFZ(f, time.Time{}, time.Time{})
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(days) == 0 {
		return 0, time.Time{}, fmt.Errorf("no GFZ data lines in %s", filepath.Base(path))
	}

	var last time.Time
	for _, d := range days {
		if d.SFIObs > 0 && d.Date.After(last) {
			last = d.Date
		}
	}
	return len(days), last, nil
}

func main() {
	cfg := common.DefaultConfig()

	destDir := flag.String("dest", cfg.SolarDataDir(), "Destination directory")
	timeout := flag.Duration("timeout", 60*time.Second, "HTTP timeout per request")
	retry := flag.Duration("retry", 2*time.Minute, "Give up retrying a source after this long")
	listSources := flag.Bool("list", false, "List available data sources")
	source := flag.String("source", "all", "Source to download (or 'all')")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-download v%s - GFZ Index Downloader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Downloads the GFZ Potsdam F10.7/Ap files read by iri-profile and iri-sweep -gfz.\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nData Sources:\n")
		for _, s := range sources {
			fmt.Fprintf(os.Stderr, "  %-15s %s\n", s.Name, s.Desc)
		}
	}

	flag.Parse()

	if *listSources {
		fmt.Printf("Available GFZ data sources:\n\n")
		for _, s := range sources {
			fmt.Printf("  %-15s %s\n", s.Name, s.Desc)
			fmt.Printf("                  URL: %s\n", s.URL)
			fmt.Printf("                  File: %s\n\n", s.Filename)
		}
		return
	}

	fmt.Println("=========================================================")
	fmt.Printf("Solar Download v%s\n", Version)
	fmt.Println("=========================================================")
	fmt.Printf("Destination: %s\n", *destDir)
	fmt.Printf("Timeout:     %v\n", *timeout)
	fmt.Println()

	if err := os.MkdirAll(*destDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot create directory: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := &http.Client{Timeout: *timeout}
	startTime := time.Now()
	downloaded := 0
	failed := 0

	for _, src := range sources {
		if *source != "all" && *source != src.Name {
			continue
		}

		destPath := filepath.Join(*destDir, src.Filename)
		fmt.Printf("[%s] Downloading from %s...\n", src.Name, src.URL)

		n, err := solar.Download(ctx, client, src.URL, destPath, *retry)
		if err != nil {
			fmt.Printf("  ERROR: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("  Downloaded %s (%d bytes)\n", src.Filename, n)

		days, last, err := verify(destPath)
		if err != nil {
			fmt.Printf("  ERROR: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("  Parsed %d days, F10.7 through %s\n", days, last.Format("2006-01-02"))
		downloaded++
	}

	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Println("=========================================================")
	fmt.Println("Download Summary")
	fmt.Println("=========================================================")
	fmt.Printf("Downloaded: %d files\n", downloaded)
	fmt.Printf("Failed:     %d files\n", failed)
	fmt.Printf("Elapsed:    %v\n", elapsed.Round(time.Millisecond))
	fmt.Println("=========================================================")

	if failed > 0 {
		os.Exit(1)
	}
}
