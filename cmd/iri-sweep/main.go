// iri-sweep - IRI-90 profile sweep into ClickHouse
//
// Runs one IRI-90 profile every -step over a date range at a fixed location
// and inserts the tables into ClickHouse iri.profiles (one row per altitude)
// and iri.peaks (one row per run, decoded OARR).
//
// Each kernel run is a separate driver process started in the install
// directory, so runs proceed in parallel without touching the working
// directory of this process.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/iri-sweep ./cmd/iri-sweep

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KI7MT/ki7mt-iri-apps/internal/common"
	"github.com/KI7MT/ki7mt-iri-apps/internal/export"
	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
	"github.com/KI7MT/ki7mt-iri-apps/internal/solar"
	"github.com/KI7MT/ki7mt-iri-apps/internal/store"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

const sourceTag = "iri-sweep"

// result is one finished run handed to the writer.
type result struct {
	run     store.Run
	profile *iri.Profile
}

// sweepTimes returns start, start+step, ... strictly before end.
func sweepTimes(start, end time.Time, step time.Duration) []time.Time {
	var times []time.Time
	for t := start; t.Before(end); t = t.Add(step) {
		times = append(times, t)
	}
	return times
}

// writer drains results into ClickHouse batches, or only counts them on a
// dry run (conn == nil).
type writer struct {
	conn       store.Doer
	profileFQN string
	peakFQN    string
	batchLimit int
	profiles   *store.ProfileBatch
	peaks      *store.PeakBatch
	rows       []export.Row
	keepRows   bool
	inserted   int
}

func (w *writer) add(ctx context.Context, r result) error {
	w.profiles.AddProfile(r.run, r.profile)
	w.peaks.AddPeaks(r.run, r.profile.Aux)
	if w.keepRows {
		w.rows = append(w.rows, export.Rows(r.run, r.profile)...)
	}
	if w.profiles.Len() >= w.batchLimit {
		return w.flush(ctx)
	}
	return nil
}

func (w *writer) flush(ctx context.Context) error {
	n := w.profiles.Len()
	if w.conn == nil {
		w.profiles.Reset()
		w.peaks.Reset()
		return nil
	}
	if err := store.FlushAll(ctx, w.conn,
		store.Insert{Table: w.profileFQN, Batch: w.profiles},
		store.Insert{Table: w.peakFQN, Batch: w.peaks},
	); err != nil {
		return err
	}
	w.inserted += n
	return nil
}

// drain consumes results until the channel closes, then flushes. On the
// first write error it calls stop so no further kernel runs start, and
// discards the remaining results.
func (w *writer) drain(ctx context.Context, results <-chan result, stop func()) error {
	var err error
	for r := range results {
		if err != nil {
			continue
		}
		if err = w.add(ctx, r); err != nil {
			stop()
		}
	}
	if err != nil {
		return err
	}
	return w.flush(ctx)
}

func main() {
	cfg := common.DefaultConfig()

	startStr := flag.String("start", "", "Start date/time (YYYY-MM-DD or RFC 3339, UTC)")
	endStr := flag.String("end", "", "End date/time, exclusive (default: start + 1 day)")
	step := flag.Duration("step", time.Hour, "Time between profiles")
	lat := flag.Float64("lat", 65.1, "Latitude (deg)")
	lon := flag.Float64("lon", -147.5, "Longitude (deg, any range)")
	magnetic := flag.Bool("magnetic", false, "Lat/lon are geomagnetic")
	f107 := flag.Float64("f107", 0, "Fixed F10.7 (SFU); 0 looks it up per day")
	gfzFile := flag.String("gfz", "", "Local GFZ Kp_ap_Ap_SN_F107 file")
	solarCH := flag.Bool("solar-ch", false, "Read F10.7 from ClickHouse solar.indices_raw")
	altStart := flag.Float64("alt-start", 60, "Grid start altitude (km)")
	altStop := flag.Float64("alt-stop", 1000, "Grid stop altitude (km)")
	altStep := flag.Float64("alt-step", 10, "Grid step (km)")
	jf := flag.String("jf", iri.DefaultFlags.String(), "IRI-90 JF switches (12 values)")
	home := flag.String("home", cfg.IRIHome, "IRI-90 install directory containing data/ (env IRI90_HOME)")
	driver := flag.String("driver", cfg.IRIDriver, "IRI-90 driver executable (default <home>/iri90drv)")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent kernel runs")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-run kernel timeout")
	chHost := flag.String("ch-host", cfg.ClickHouseAddr(), "ClickHouse native protocol address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	profileTable := flag.String("profile-table", store.DefaultProfileTable, "Profile table")
	peakTable := flag.String("peak-table", store.DefaultPeakTable, "Peak parameter table")
	createSchema := flag.Bool("create-schema", false, "Create database and tables if missing")
	batchLimit := flag.Int("batch", 50000, "Flush every N profile rows")
	out := flag.String("out", "", "Also write all rows to .csv, .csv.gz or .parquet")
	dryRun := flag.Bool("dry-run", false, "Run the kernel only, no ClickHouse insert")
	silent := flag.Bool("silent", false, "Disable progress lines")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "iri-sweep v%s - IRI-90 Profile Sweep\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -start 2013-03-01 -end 2013-04-01 -gfz Kp_ap_Ap_SN_F107_since_1932.txt\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -start 2024-01-01 -solar-ch -ch-host 192.168.1.90:9000 -create-schema\n", os.Args[0])
	}
	flag.Parse()

	cfg.IRIHome = *home
	cfg.IRIDriver = *driver

	log.Println("=========================================================")
	log.Printf("IRI Sweep v%s", Version)
	log.Println("=========================================================")

	start, err := parseTime(*startStr)
	if err != nil {
		log.Fatalf("Invalid start: %v", err)
	}
	end := start.AddDate(0, 0, 1)
	if *endStr != "" {
		if end, err = parseTime(*endStr); err != nil {
			log.Fatalf("Invalid end: %v", err)
		}
	}
	if *step <= 0 {
		log.Fatal("-step must be positive")
	}
	flags, err := iri.ParseFlags(*jf)
	if err != nil {
		log.Fatalf("Invalid -jf: %v", err)
	}
	alts := iri.AltitudeGrid(*altStart, *altStop, *altStep)
	times := sweepTimes(start, end, *step)
	if len(times) == 0 {
		log.Fatal("Empty time range")
	}

	log.Printf("Range:     %s to %s every %v (%d runs)", start.Format(time.RFC3339), end.Format(time.RFC3339), *step, len(times))
	log.Printf("Location:  %.3f, %.3f (magnetic=%v)", *lat, *lon, *magnetic)
	log.Printf("Altitudes: %d (%.0f-%.0f km)", len(alts), alts[0], alts[len(alts)-1])
	log.Printf("JF:        %s", flags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, closeSrc, err := cfg.OpenFluxSource(ctx, common.FluxOptions{
		Fixed:      *f107,
		GFZFile:    *gfzFile,
		ClickHouse: *solarCH,
		Start:      start,
		End:        end,
	})
	if err != nil {
		log.Fatalf("F10.7 source: %v", err)
	}
	defer closeSrc()

	kernel, err := cfg.NewKernel()
	if err != nil {
		log.Fatalf("IRI-90 install: %v", err)
	}
	log.Printf("Driver:    %s (in %s)", kernel.Path, kernel.Dir)
	model := iri.NewModel(kernel)

	w := &writer{
		profileFQN: fmt.Sprintf("%s.%s", *chDB, *profileTable),
		peakFQN:    fmt.Sprintf("%s.%s", *chDB, *peakTable),
		batchLimit: *batchLimit,
		profiles:   store.NewProfileBatch(),
		peaks:      store.NewPeakBatch(),
		keepRows:   *out != "",
	}

	if !*dryRun {
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
		w.conn = conn

		if *createSchema {
			if err := store.EnsureSchema(ctx, conn, *chDB, *profileTable, *peakTable); err != nil {
				log.Fatalf("Create schema: %v", err)
			}
		}
		log.Printf("Tables: %s, %s", w.profileFQN, w.peakFQN)
	} else {
		log.Println("Dry run, skipping ClickHouse insert")
	}

	stats := common.NewStats()
	stats.SetSilent(*silent)
	stats.StartReporter()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()

	results := make(chan result, *workers*2)
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- w.drain(ctx, results, stopSweep)
	}()

	t0 := time.Now()
	g, gctx := errgroup.WithContext(sweepCtx)
	g.SetLimit(*workers)

	for _, ts := range times {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			req := iri.NewRequest(ts, *lat, *lon, 0, alts...)
			req.Flags = flags
			if *magnetic {
				req.Coord = iri.Magnetic
			}
			req, err := common.BuildRequest(gctx, src, req)
			if errors.Is(err, solar.ErrNoData) {
				log.Printf("[%s] Skipping: %v", ts.Format(time.RFC3339), err)
				stats.AddFailure()
				return nil
			}
			if err != nil {
				return err
			}

			runCtx, runCancel := context.WithTimeout(gctx, *timeout)
			defer runCancel()

			t := time.Now()
			p, err := model.Run(runCtx, req)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil {
				stats.AddFailure()
				log.Printf("[%s] IRI-90 error: %v", ts.Format(time.RFC3339), err)
				return nil
			}
			stats.AddProfile(p.Len(), time.Since(t))

			select {
			case results <- result{run: store.RunFromRequest(req, sourceTag), profile: p}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	runErr := g.Wait()
	close(results)
	flushErr := <-writeErr
	stats.StopReporter()

	if flushErr != nil {
		log.Fatalf("Insert error: %v", flushErr)
	}
	if runErr != nil {
		log.Fatalf("Sweep aborted: %v", runErr)
	}

	if *out != "" {
		if err := export.WriteFile(*out, w.rows); err != nil {
			log.Fatalf("Export: %v", err)
		}
		log.Printf("Wrote %d rows to %s", len(w.rows), *out)
	}

	elapsed := time.Since(t0)
	profiles := stats.GetTotalProfiles()

	log.Println()
	log.Println("=========================================================")
	log.Println("Sweep Complete")
	log.Println("=========================================================")
	log.Printf("Profiles: %d (%d failed)", profiles, stats.GetFailedRuns())
	log.Printf("Rows:     %d samples, %d inserted", stats.GetTotalSamples(), w.inserted)
	log.Printf("Elapsed:  %v", elapsed.Round(time.Millisecond))
	log.Printf("Rate:     %.1f profiles/sec", float64(profiles)/elapsed.Seconds())
	log.Println("=========================================================")
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}
