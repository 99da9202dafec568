// iri-profile - Run one IRI-90 ionospheric profile
//
// Converts a UTC time, location and F10.7 into the IRI-90 argument layout,
// runs the kernel driver from its install directory, and prints the
// density/temperature table with the derived ion densities.
//
// F10.7 comes from -f107, a local GFZ Potsdam file (-gfz), or the lab's
// ClickHouse solar.indices_raw table (-solar-ch).
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/iri-profile ./cmd/iri-profile

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/KI7MT/ki7mt-iri-apps/internal/common"
	"github.com/KI7MT/ki7mt-iri-apps/internal/export"
	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
	"github.com/KI7MT/ki7mt-iri-apps/internal/store"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

func parseAltitudes(list string, start, stop, step float64) ([]float64, error) {
	if list == "" {
		return iri.AltitudeGrid(start, stop, step), nil
	}
	var alts []float64
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("altitude %q: %w", field, err)
		}
		alts = append(alts, v)
	}
	return alts, nil
}

func printProfile(req iri.Request, p *iri.Profile) {
	fmt.Printf("IRI-90 %s  lat %.3f  lon %.3f (%s)  F10.7 %.1f  JF %s\n\n",
		req.Time.UTC().Format(time.RFC3339), req.Lat, iri.WrapLongitude(req.Lon), req.Coord, req.F107, req.Flags)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "alt_km\t")
	for _, c := range iri.Columns {
		fmt.Fprintf(tw, "%s\t", c)
	}
	fmt.Fprintln(tw)
	for _, s := range p.Samples {
		fmt.Fprintf(tw, "%.1f\t", s.Altitude)
		for i, v := range s.Values() {
			if i >= 1 && i <= 3 {
				fmt.Fprintf(tw, "%.0f\t", v)
			} else {
				fmt.Fprintf(tw, "%.3e\t", v)
			}
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()

	a := p.Aux
	fmt.Println()
	fmt.Printf("NmF2 %.3e m-3  hmF2 %.1f km   NmF1 %.3e m-3  hmF1 %.1f km\n", a.NmF2, a.HmF2, a.NmF1, a.HmF1)
	fmt.Printf("NmE  %.3e m-3  hmE  %.1f km   NmD  %.3e m-3  hmD  %.1f km\n", a.NmE, a.HmE, a.NmD, a.HmD)
	fmt.Printf("hhalf %.1f km  B0 %.1f km  valley %.1f-%.1f km\n", a.HHalf, a.B0, a.ValleyBase, a.ValleyTop)
	fmt.Printf("Te peak %.0f K at %.1f km   Te=Ti at %.1f km\n", a.TePeak, a.TePeakHeight, a.TeTiHeight)
	fmt.Printf("SZA %.2f deg  decl %.2f deg  dip %.2f deg  dip lat %.2f deg  modip %.2f deg\n",
		a.SZA, a.SunDecl, a.Dip, a.DipLat, a.ModDipLat)
}

func main() {
	cfg := common.DefaultConfig()

	timeStr := flag.String("time", "", "UTC time, RFC 3339 (default: now)")
	lat := flag.Float64("lat", 65.1, "Latitude (deg)")
	lon := flag.Float64("lon", -147.5, "Longitude (deg, any range)")
	magnetic := flag.Bool("magnetic", false, "Lat/lon are geomagnetic")
	f107 := flag.Float64("f107", 0, "F10.7 (SFU); 0 looks it up")
	gfzFile := flag.String("gfz", "", "Local GFZ Kp_ap_Ap_SN_F107 file")
	solarCH := flag.Bool("solar-ch", false, "Read F10.7 from ClickHouse solar.indices_raw")
	altList := flag.String("alts", "", "Comma separated altitudes (km); overrides the grid")
	altStart := flag.Float64("alt-start", 60, "Grid start altitude (km)")
	altStop := flag.Float64("alt-stop", 1000, "Grid stop altitude (km)")
	altStep := flag.Float64("alt-step", 20, "Grid step (km)")
	jf := flag.String("jf", iri.DefaultFlags.String(), "IRI-90 JF switches (12 values)")
	home := flag.String("home", cfg.IRIHome, "IRI-90 install directory containing data/ (env IRI90_HOME)")
	driver := flag.String("driver", cfg.IRIDriver, "IRI-90 driver executable (default <home>/iri90drv)")
	out := flag.String("out", "", "Write the table to .csv, .csv.gz or .parquet")
	timeout := flag.Duration("timeout", 30*time.Second, "Kernel timeout")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "iri-profile v%s - IRI-90 Profile Runner\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -time 2013-03-31T12:00:00Z -f107 150 -alts 100,200,300\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -gfz /tmp/Kp_ap_Ap_SN_F107_since_1932.txt -out profile.parquet\n", os.Args[0])
	}
	flag.Parse()

	cfg.IRIHome = *home
	cfg.IRIDriver = *driver

	ts := time.Now().UTC()
	if *timeStr != "" {
		var err error
		ts, err = time.Parse(time.RFC3339, *timeStr)
		if err != nil {
			log.Fatalf("Invalid time: %v", err)
		}
	}

	flags, err := iri.ParseFlags(*jf)
	if err != nil {
		log.Fatalf("Invalid -jf: %v", err)
	}
	alts, err := parseAltitudes(*altList, *altStart, *altStop, *altStep)
	if err != nil {
		log.Fatalf("Invalid altitudes: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, closeSrc, err := cfg.OpenFluxSource(ctx, common.FluxOptions{
		Fixed:      *f107,
		GFZFile:    *gfzFile,
		ClickHouse: *solarCH,
		Start:      ts,
		End:        ts,
	})
	if err != nil {
		log.Fatalf("F10.7 source: %v", err)
	}
	defer closeSrc()

	req := iri.NewRequest(ts, *lat, *lon, 0, alts...)
	req.Flags = flags
	if *magnetic {
		req.Coord = iri.Magnetic
	}
	req, err = common.BuildRequest(ctx, src, req)
	if err != nil {
		log.Fatalf("F10.7 lookup: %v", err)
	}

	kernel, err := cfg.NewKernel()
	if err != nil {
		log.Fatalf("IRI-90 install: %v", err)
	}

	runCtx, runCancel := context.WithTimeout(ctx, *timeout)
	defer runCancel()

	t0 := time.Now()
	p, err := iri.NewModel(kernel).Run(runCtx, req)
	if err != nil {
		log.Fatalf("IRI-90: %v", err)
	}
	if cfg.Debug() {
		log.Printf("Kernel run took %v", time.Since(t0).Round(time.Millisecond))
	}

	printProfile(req, p)

	if *out != "" {
		rows := export.Rows(store.RunFromRequest(req, "iri-profile"), p)
		if err := export.WriteFile(*out, rows); err != nil {
			log.Fatalf("Export: %v", err)
		}
		log.Printf("Wrote %d rows to %s", len(rows), *out)
	}
}
