package io

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/errors"
)

// Format is the on-disk encoding of a table.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	}
	return "", errors.NewInvalidInputError("ParseFormat", fmt.Sprintf("unknown table format %q", s))
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), FormatParquet.Ext()) {
		return FormatParquet
	}
	return FormatCSV
}

// ReadFile reads a table, choosing the codec from the file extension.
// An absent file is reported as a missing-input error.
func ReadFile(path string, opts CSVOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	f, err := os.Open(path) //nolint:gosec // paths come from configuration
	if err != nil {
		return nil, errors.NewMissingInputError("ReadFile", path, err)
	}
	defer f.Close()

	var reader DataReader
	if formatOf(path) == FormatParquet {
		reader = NewParquetReader(f, DefaultParquetOptions(), mem)
	} else {
		reader = NewCSVReader(bufio.NewReader(f), opts, mem)
	}

	df, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return df, nil
}

// WriteFile writes a table, choosing the codec from the file extension.
// The table is written to a temporary file in the target directory and
// renamed into place, so a failed write never leaves a partial artifact.
func WriteFile(path string, df *dataframe.DataFrame, opts CSVOptions) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		var writer DataWriter
		if formatOf(path) == FormatParquet {
			writer = NewParquetWriter(w, DefaultParquetOptions())
		} else {
			writer = NewCSVWriter(w, opts)
		}
		return writer.Write(df)
	})
}

// WriteBytes replaces the file at path with data the same way WriteFile
// replaces tables.
func WriteBytes(path string, data []byte) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func writeAtomic(path string, write func(w *bufio.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = write(buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
