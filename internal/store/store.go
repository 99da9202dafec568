// Package store writes IRI profiles to ClickHouse over the native protocol.
//
// Tables:
//   - iri.profiles: one row per (run, altitude) with densities and temperatures
//   - iri.peaks:    one row per run with the decoded OARR peak parameters
//
// ReplacingMergeTree on (run_time, lat, lon, ...) handles reruns.
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/cenkalti/backoff/v4"
)

// SchemaVersion is the current IRI schema version.
const SchemaVersion = 1

// Default table names.
const (
	DefaultDatabase     = "iri"
	DefaultProfileTable = "profiles"
	DefaultPeakTable    = "peaks"
)

// Options configures Dial.
type Options struct {
	Address  string
	Database string
	User     string
	Password string

	// MaxElapsed bounds the dial retries. Zero means one minute.
	MaxElapsed time.Duration
}

// Dial connects to ClickHouse, retrying with exponential backoff.
func Dial(ctx context.Context, opts Options) (*ch.Client, error) {
	var conn *ch.Client
	operation := func() error {
		c, err := ch.Dial(ctx, ch.Options{
			Address:     opts.Address,
			Database:    opts.Database,
			User:        opts.User,
			Password:    opts.Password,
			Compression: ch.CompressionLZ4,
		})
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			log.Printf("ClickHouse dial %s failed, retrying: %v", opts.Address, err)
			return err
		}
		conn = c
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.MaxElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = time.Minute
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("ClickHouse connection failed: %w", err)
	}
	return conn, nil
}

// ProfileDDL returns the CREATE TABLE statement for the profile table.
func ProfileDDL(tableFQN string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_time      DateTime,
	lat           Float32,
	lon           Float32,
	coord         UInt8,
	f107          Float32,
	alt_km        Float32,
	ne            Float64,
	tn            Float32,
	ti            Float32,
	te            Float32,
	n_o_plus      Float64,
	n_h_plus      Float64,
	n_he_plus     Float64,
	n_o2_plus     Float64,
	n_no_plus     Float64,
	n_cluster     Float64,
	n_n_plus      Float64,
	flags         String,
	source        String,
	updated_at    DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(updated_at)
PARTITION BY toYYYYMM(run_time)
ORDER BY (run_time, lat, lon, alt_km)`, tableFQN)
}

// PeakDDL returns the CREATE TABLE statement for the peak table.
func PeakDDL(tableFQN string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_time      DateTime,
	lat           Float32,
	lon           Float32,
	coord         UInt8,
	f107          Float32,
	nmf2          Float64,
	hmf2          Float32,
	nmf1          Float64,
	hmf1          Float32,
	nme           Float64,
	hme           Float32,
	nmd           Float64,
	hmd           Float32,
	hhalf         Float32,
	b0            Float32,
	te_peak       Float32,
	te_peak_h     Float32,
	sza           Float32,
	sun_decl      Float32,
	dip           Float32,
	dip_lat       Float32,
	mod_dip_lat   Float32,
	source        String,
	updated_at    DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(updated_at)
PARTITION BY toYYYYMM(run_time)
ORDER BY (run_time, lat, lon)`, tableFQN)
}

// Doer runs a native-protocol query. *ch.Client implements it.
type Doer interface {
	Do(ctx context.Context, q ch.Query) error
}

// EnsureSchema creates the database and both tables if missing.
func EnsureSchema(ctx context.Context, conn Doer, database, profileTable, peakTable string) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		ProfileDDL(database + "." + profileTable),
		PeakDDL(database + "." + peakTable),
	}
	for _, stmt := range stmts {
		if err := conn.Do(ctx, ch.Query{Body: stmt}); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// Insert is one batch bound for one table.
type Insert struct {
	Table string
	Batch Batch
}

// Flush inserts a batch and resets it. Empty batches are a no-op.
func Flush(ctx context.Context, conn Doer, tableFQN string, batch Batch) error {
	return FlushAll(ctx, conn, Insert{Table: tableFQN, Batch: batch})
}

// FlushAll inserts the batches in order. They are reset only after every
// insert succeeded, so on error all batches still hold their rows.
func FlushAll(ctx context.Context, conn Doer, inserts ...Insert) error {
	for _, ins := range inserts {
		if ins.Batch.Len() == 0 {
			continue
		}
		if err := conn.Do(ctx, ch.Query{
			Body:  ins.Batch.InsertQuery(ins.Table),
			Input: ins.Batch.Input(),
		}); err != nil {
			return fmt.Errorf("insert %s: %w", ins.Table, err)
		}
	}
	for _, ins := range inserts {
		ins.Batch.Reset()
	}
	return nil
}
