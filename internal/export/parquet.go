package export

import (
	"io"

	"github.com/parquet-go/parquet-go"
)

// WriteParquet writes rows as a single Parquet file.
func WriteParquet(w io.Writer, rows []Row) error {
	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return err
	}
	return pw.Close()
}

// ReadParquet reads every row of a Parquet file written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) ([]Row, error) {
	return parquet.Read[Row](r, size)
}
