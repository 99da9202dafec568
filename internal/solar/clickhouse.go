package solar

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// DefaultTable is the lab's solar index table.
const DefaultTable = "solar.indices_raw"

// Open connects to ClickHouse for index reads.
func Open(ctx context.Context, addr, database, user, password string) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return conn, nil
}

// ClickHouseSource reads daily indices from solar.indices_raw.
// The table holds 3-hourly rows; SFI and SSN are replicated per bucket.
type ClickHouseSource struct {
	Conn  driver.Conn
	Table string
}

// NewClickHouseSource returns a source reading from table.
func NewClickHouseSource(conn driver.Conn, table string) *ClickHouseSource {
	if table == "" {
		table = DefaultTable
	}
	return &ClickHouseSource{Conn: conn, Table: table}
}

// Lookup implements FluxSource.
func (s *ClickHouseSource) Lookup(ctx context.Context, day time.Time) (Index, error) {
	day = Day(day)

	var (
		rows                    uint64
		sfi, sfiAdj, ssn, apAvg float64
	)
	query := fmt.Sprintf(`SELECT
		count(),
		toFloat64(max(observed_flux)),
		toFloat64(max(adjusted_flux)),
		toFloat64(max(ssn)),
		toFloat64(avg(ap_index))
	FROM %s
	WHERE date = ?`, s.Table)
	if err := s.Conn.QueryRow(ctx, query, day).Scan(&rows, &sfi, &sfiAdj, &ssn, &apAvg); err != nil {
		return Index{}, fmt.Errorf("query %s: %w", s.Table, err)
	}
	if rows == 0 || sfi <= 0 {
		return Index{}, fmt.Errorf("%w %s", ErrNoData, day.Format("2006-01-02"))
	}

	var sfi81 float64
	query = fmt.Sprintf(`SELECT toFloat64(avg(f))
	FROM (
		SELECT date, max(observed_flux) AS f
		FROM %s
		WHERE date BETWEEN ? AND ? AND observed_flux > 0
		GROUP BY date
	)`, s.Table)
	from := day.AddDate(0, 0, -AverageWindow)
	to := day.AddDate(0, 0, AverageWindow)
	if err := s.Conn.QueryRow(ctx, query, from, to).Scan(&sfi81); err != nil {
		return Index{}, fmt.Errorf("query %s F10.7A: %w", s.Table, err)
	}

	return Index{
		Date:    day,
		SFI:     sfi,
		SFIAdj:  sfiAdj,
		SFI81:   sfi81,
		SSN:     ssn,
		ApIndex: apAvg,
	}, nil
}
