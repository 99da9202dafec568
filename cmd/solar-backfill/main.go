// solar-backfill - Solar index backfill from GFZ Potsdam for IRI runs
//
// Loads the definitive Kp/ap/Ap/SN/F10.7 dataset from GFZ Potsdam into
// ClickHouse solar.indices_raw, the table iri-profile and iri-sweep read
// with -solar-ch.
//
// Source: https://kp.gfz-potsdam.de (Helmholtz Centre Potsdam, GFZ)
// Format: Daily SSN + F10.7 (SFI) + 8x 3-hourly Kp/ap values per day
//
// Each day produces 8 rows (one per 3-hour bucket: 00, 03, 06, ..., 21 UTC).
// ReplacingMergeTree(updated_at) on (date, time) handles deduplication.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-backfill ./cmd/solar-backfill

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ClickHouse/ch-go"

	"github.com/KI7MT/ki7mt-iri-apps/internal/common"
	"github.com/KI7MT/ki7mt-iri-apps/internal/solar"
	"github.com/KI7MT/ki7mt-iri-apps/internal/store"
)

var Version = "1.0.0"

const (
	sourceTag  = "gfz-kp-backfill"
	batchLimit = 50000 // flush every 50k rows (~6250 days)
)

// coverage summarises the parsed days for the log.
type coverage struct {
	sfiDays, ssnDays int
	sfiMin, sfiMax   float32
	ssnMin, ssnMax   float32
}

func summarize(days []solar.GFZDay) coverage {
	c := coverage{sfiMin: 999, ssnMin: 9999}
	for _, d := range days {
		if d.SFIObs > 0 {
			c.sfiDays++
			c.sfiMin = min(c.sfiMin, d.SFIObs)
			c.sfiMax = max(c.sfiMax, d.SFIObs)
		}
		if d.SSN > 0 {
			c.ssnDays++
			c.ssnMin = min(c.ssnMin, d.SSN)
			c.ssnMax = max(c.ssnMax, d.SSN)
		}
	}
	return c
}

func readGFZ(path string, start, end time.Time) ([]solar.GFZDay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return solar.ParseGFZ(f, start, end)
}

func main() {
	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", cfg.ClickHouseAddr(), "ClickHouse native protocol address")
	chDB := flag.String("ch-db", cfg.SolarDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "indices_raw", "ClickHouse table")
	createSchema := flag.Bool("create-schema", false, "Create database and table if missing")
	startStr := flag.String("start", "2020-01-01", "Start date (YYYY-MM-DD)")
	endStr := flag.String("end", "", "End date (default: today)")
	localFile := flag.String("file", "", "Local GFZ file (skip download)")
	dryRun := flag.Bool("dry-run", false, "Parse only, no ClickHouse insert")
	httpTimeout := flag.Duration("timeout", 120*time.Second, "HTTP download timeout")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-backfill v%s - Solar Index Backfill (GFZ Potsdam)\n\n", Version)
		fmt.Fprintf(os.Stderr, "Loads SSN, SFI (F10.7), and 3-hourly Kp/ap from GFZ Potsdam\n")
		fmt.Fprintf(os.Stderr, "into ClickHouse solar.indices_raw.\n\n")
		fmt.Fprintf(os.Stderr, "Source: %s\n\n", solar.GFZURL)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -ch-host 192.168.1.90:9000 -start 2013-01-01 -create-schema\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -file /tmp/Kp_ap_Ap_SN_F107_since_1932.txt -dry-run\n", os.Args[0])
	}
	flag.Parse()

	log.Println("=========================================================")
	log.Printf("solar-backfill v%s - GFZ Potsdam Solar Index Backfill", Version)
	log.Println("=========================================================")

	startDate, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	if *endStr != "" {
		endDate, err = time.Parse("2006-01-02", *endStr)
		if err != nil {
			log.Fatalf("Invalid end date: %v", err)
		}
	}
	log.Printf("Date range: %s to %s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := *localFile
	if path == "" {
		tmp, err := os.MkdirTemp("", "solar-backfill-")
		if err != nil {
			log.Fatalf("Temp dir: %v", err)
		}
		defer os.RemoveAll(tmp)
		path = filepath.Join(tmp, "gfz.txt")

		log.Printf("Downloading from GFZ Potsdam...")
		log.Printf("  URL: %s", solar.GFZURL)
		n, err := solar.Download(ctx, &http.Client{Timeout: *httpTimeout}, solar.GFZURL, path, 2*time.Minute)
		if err != nil {
			log.Fatalf("Download failed: %v", err)
		}
		log.Printf("  %d bytes", n)
	} else {
		log.Printf("Reading local file: %s", path)
	}

	t0 := time.Now()
	days, err := readGFZ(path, startDate, endDate)
	if err != nil {
		log.Fatalf("Parse error: %v", err)
	}
	log.Printf("Parsed %d days in %v", len(days), time.Since(t0).Round(time.Millisecond))
	if len(days) == 0 {
		log.Fatal("No data found in date range")
	}

	cov := summarize(days)
	log.Printf("Coverage (%s to %s):", days[0].Date.Format("2006-01-02"), days[len(days)-1].Date.Format("2006-01-02"))
	if cov.ssnDays > 0 {
		log.Printf("  SSN: %d days with data (%.0f - %.0f)", cov.ssnDays, cov.ssnMin, cov.ssnMax)
	} else {
		log.Printf("  SSN: no data")
	}
	if cov.sfiDays > 0 {
		log.Printf("  SFI: %d days with data (%.1f - %.1f SFU)", cov.sfiDays, cov.sfiMin, cov.sfiMax)
	} else {
		log.Printf("  SFI: no data")
	}

	totalRows := len(days) * len(solar.BucketHours)
	log.Printf("Will insert: %d rows (%d days x 8 buckets)", totalRows, len(days))

	if *dryRun {
		log.Println("Dry run, skipping ClickHouse insert")
		return
	}

	log.Printf("Connecting to ClickHouse at %s...", *chHost)
	conn, err := store.Dial(ctx, store.Options{
		Address:  *chHost,
		Database: *chDB,
		User:     cfg.ClickHouseUser,
		Password: cfg.ClickHousePassword,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer conn.Close()

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	if *createSchema {
		for _, stmt := range []string{
			fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", *chDB),
			solar.IndicesDDL(tableFQN),
		} {
			if err := conn.Do(ctx, ch.Query{Body: stmt}); err != nil {
				log.Fatalf("Create schema: %v", err)
			}
		}
	}
	log.Printf("Table: %s", tableFQN)

	t0 = time.Now()
	batch := solar.NewIndexBatch(sourceTag)
	inserted := 0

	for _, d := range days {
		if ctx.Err() != nil {
			log.Printf("Interrupted after %d rows", inserted)
			return
		}

		batch.AddDay(d)
		if batch.Len() >= batchLimit {
			n := batch.Len()
			if err := store.Flush(ctx, conn, tableFQN, batch); err != nil {
				log.Fatalf("Insert error at row %d: %v", inserted, err)
			}
			inserted += n
			rps := float64(inserted) / time.Since(t0).Seconds()
			log.Printf("  Inserted %d / %d rows (%.0f rows/sec)", inserted, totalRows, rps)
		}
	}

	n := batch.Len()
	if err := store.Flush(ctx, conn, tableFQN, batch); err != nil {
		log.Fatalf("Final insert error: %v", err)
	}
	inserted += n

	elapsed := time.Since(t0)

	log.Println()
	log.Println("=========================================================")
	log.Println("Backfill Complete")
	log.Println("=========================================================")
	log.Printf("Days:    %d (%s to %s)", len(days), days[0].Date.Format("2006-01-02"), days[len(days)-1].Date.Format("2006-01-02"))
	log.Printf("Rows:    %d (8 per day)", inserted)
	log.Printf("Elapsed: %v", elapsed.Round(time.Millisecond))
	log.Printf("Rate:    %.0f rows/sec", float64(inserted)/elapsed.Seconds())
	log.Printf("Source:  %s", sourceTag)
	log.Println("=========================================================")
	log.Println()
	log.Printf("Run OPTIMIZE TABLE %s FINAL to merge duplicates.", tableFQN)
}
