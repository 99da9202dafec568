// iri-load - Load exported IRI profile files into ClickHouse
//
// Reads profile tables written by iri-profile or iri-sweep (-out) and inserts
// them into ClickHouse iri.profiles via the native protocol.
//
// Supported formats:
//   - CSV (.csv)
//   - gzip CSV (.csv.gz)
//   - Parquet (.parquet)
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/iri-load ./cmd/iri-load

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KI7MT/ki7mt-iri-apps/internal/common"
	"github.com/KI7MT/ki7mt-iri-apps/internal/export"
	"github.com/KI7MT/ki7mt-iri-apps/internal/store"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// addRows appends file rows to the batch and returns the number added.
func addRows(batch *store.ProfileBatch, rows []export.Row) (int, error) {
	for i, r := range rows {
		run, err := r.Run()
		if err != nil {
			return i, fmt.Errorf("row %d: %w", i+1, err)
		}
		batch.AddSample(run, r.Sample())
	}
	return len(rows), nil
}

// discoverFiles returns the supported files among args, expanding
// directories one level deep.
func discoverFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(arg, e.Name())
			if _, err := export.DetectFormat(path); err == nil {
				files = append(files, path)
			}
		}
	}
	return files, nil
}

func main() {
	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", cfg.ClickHouseAddr(), "ClickHouse native protocol address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", store.DefaultProfileTable, "ClickHouse profile table")
	createSchema := flag.Bool("create-schema", false, "Create database and tables if missing")
	dryRun := flag.Bool("dry-run", false, "Parse only, no ClickHouse insert")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "iri-load v%s - IRI Profile Loader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] files-or-dirs...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Loads .csv, .csv.gz and .parquet profile exports into ClickHouse.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Println("=========================================================")
	log.Printf("IRI Load v%s", Version)
	log.Println("=========================================================")

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	files, err := discoverFiles(flag.Args())
	if err != nil {
		log.Fatalf("Cannot read input: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("No files to process")
	}
	log.Printf("Found %d file(s)", len(files))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	var flush func(*store.ProfileBatch) error
	if *dryRun {
		log.Println("Dry run, skipping ClickHouse insert")
		flush = func(b *store.ProfileBatch) error {
			b.Reset()
			return nil
		}
	} else {
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

		if *createSchema {
			if err := store.EnsureSchema(ctx, conn, *chDB, *chTable, store.DefaultPeakTable); err != nil {
				log.Fatalf("Create schema: %v", err)
			}
		}
		log.Printf("Table: %s", tableFQN)
		flush = func(b *store.ProfileBatch) error {
			return store.Flush(ctx, conn, tableFQN, b)
		}
	}

	startTime := time.Now()
	totalRows := 0
	batch := store.NewProfileBatch()

	for _, path := range files {
		if ctx.Err() != nil {
			log.Println("Interrupted")
			break
		}
		name := filepath.Base(path)

		rows, err := export.ReadFile(path)
		if errors.Is(err, export.ErrUnknownFormat) {
			log.Printf("[%s] Skipping (unknown format)", name)
			continue
		}
		if err != nil {
			log.Printf("[%s] Read error: %v", name, err)
			continue
		}

		n, err := addRows(batch, rows)
		if err != nil {
			log.Printf("[%s] Parse error: %v", name, err)
			batch.Reset()
			continue
		}
		if err := flush(batch); err != nil {
			log.Fatalf("[%s] Insert error: %v", name, err)
		}

		log.Printf("[%s] Loaded %d rows", name, n)
		totalRows += n
	}

	elapsed := time.Since(startTime)

	log.Println()
	log.Println("=========================================================")
	log.Println("Final Statistics")
	log.Println("=========================================================")
	log.Printf("Total Rows: %d", totalRows)
	log.Printf("Elapsed:    %v", elapsed.Round(time.Millisecond))
	log.Printf("Rate:       %.0f rows/sec", float64(totalRows)/elapsed.Seconds())
	log.Println("=========================================================")
}
