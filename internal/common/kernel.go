package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
	"github.com/KI7MT/ki7mt-iri-apps/internal/solar"
)

// NewKernel returns the driver-backed IRI-90 kernel described by c.
// The install directory must contain data/.
func (c *Config) NewKernel() (*iri.ExecKernel, error) {
	home, err := c.ResolveIRIHome()
	if err != nil {
		return nil, err
	}
	if err := iri.CheckInstall(home); err != nil {
		return nil, err
	}

	k := &iri.ExecKernel{
		Path: c.ResolveDriver(home),
		Dir:  home,
	}
	if c.Debug() {
		k.Logger = log.New(os.Stderr, "[debug] ", log.LstdFlags)
	}
	return k, nil
}

// FluxOptions selects where F10.7 comes from. The first option set wins:
// Fixed > GFZFile > ClickHouse.
type FluxOptions struct {
	Fixed      float64
	GFZFile    string
	ClickHouse bool
	Start, End time.Time
}

// OpenFluxSource returns the selected source and a close function.
func (c *Config) OpenFluxSource(ctx context.Context, opts FluxOptions) (solar.FluxSource, func(), error) {
	noop := func() {}
	switch {
	case opts.Fixed > 0:
		return solar.Fixed{SFI: opts.Fixed}, noop, nil
	case opts.GFZFile != "":
		src, err := solar.OpenGFZ(opts.GFZFile, opts.Start, opts.End)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("Loaded %d GFZ days from %s", src.Len(), opts.GFZFile)
		return src, noop, nil
	case opts.ClickHouse:
		conn, err := solar.Open(ctx, c.ClickHouseAddr(), c.SolarDatabase, c.ClickHouseUser, c.ClickHousePassword)
		if err != nil {
			return nil, noop, err
		}
		table := c.SolarDatabase + ".indices_raw"
		log.Printf("Reading F10.7 from ClickHouse %s", table)
		return solar.NewClickHouseSource(conn, table), func() { conn.Close() }, nil
	}
	return nil, noop, fmt.Errorf("no F10.7 source: set -f107, -gfz or -solar-ch")
}

// BuildRequest looks up the day's indices and fills F10.7 and the
// parity fields of req.
func BuildRequest(ctx context.Context, src solar.FluxSource, req iri.Request) (iri.Request, error) {
	idx, err := src.Lookup(ctx, req.Time)
	if err != nil {
		return req, err
	}
	req.F107 = idx.SFI
	f107a, ap := idx.SFI81, idx.ApIndex
	req.Parity = iri.Parity{F107A: &f107a, Ap: &ap}
	return req, nil
}
