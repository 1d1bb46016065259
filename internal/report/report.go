// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tfctl/kmsctl/internal/inventory"
	"github.com/tfctl/kmsctl/internal/log"
	"github.com/tfctl/kmsctl/internal/normalize"
)

// DefaultPrefix is the object key prefix used when none is configured.
const DefaultPrefix = "kms-reports/"

var (
	ErrEmptyReport = errors.New("report is empty")
	ErrBadReport   = errors.New("malformed report")
)

// keyTimeLayout renders the report timestamp, e.g. 20240102T030405Z.
const keyTimeLayout = "20060102T150405Z"

// Report is the outcome of one walk over a source.
type Report struct {
	Source    string
	CreatedAt time.Time
	Rows      []normalize.Row
	// Fetched counts resources read successfully; Failed counts rows that
	// carry only an id.
	Fetched int
	Failed  int
}

// Build walks src and normalizes every visited item into exactly one row.
// Only an enumeration error aborts the walk; no report is returned then.
func Build(ctx context.Context, src inventory.Source, now time.Time) (*Report, error) {
	r := &Report{Source: src.Name(), CreatedAt: now.UTC()}

	err := src.Each(ctx, func(item inventory.Item) error {
		rec := record(item)
		if rec == nil {
			r.Failed++
		} else {
			r.Fetched++
		}
		r.Rows = append(r.Rows, normalize.Normalize(rec, item.ID, item.CaptureTime))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("report built: source=%s, rows=%d, failed=%d", r.Source, len(r.Rows), r.Failed)
	return r, nil
}

// record resolves an item into a Record. nil means the fetch failed and the
// item degrades to an id-only row.
func record(item inventory.Item) *normalize.Record {
	if item.Err != nil {
		log.Warnf("resource skipped: id=%s, err=%v", item.ID, item.Err)
		return nil
	}

	conf := item.Configuration
	if len(bytes.TrimSpace(conf)) == 0 || string(bytes.TrimSpace(conf)) == "null" {
		conf = []byte("{}")
	}
	rec, err := normalize.ParseRecord(conf)
	if err != nil {
		// Still a fetched resource; the row keeps its capture time.
		log.Warnf("configuration unreadable: id=%s, err=%v", item.ID, err)
		rec = &normalize.Record{}
	}

	if len(item.Tags) > 0 {
		rec = rec.WithTags(normalize.ParseTags(gjson.ParseBytes(item.Tags)))
	}
	return rec
}

// CSV encodes the report with a header row.
func (r *Report) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, r.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes rows to w as CSV, header first.
func WriteCSV(w io.Writer, rows []normalize.Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(normalize.Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Strings()); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a report written by WriteCSV. Columns are matched by header
// name, so reordered or extra columns are tolerated; a missing id column is
// an error.
func ReadCSV(r io.Reader) ([]normalize.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyReport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := index["id"]; !ok {
		return nil, fmt.Errorf("%w: no id column in %v", ErrBadReport, header)
	}

	cell := func(record []string, name string) string {
		if i, ok := index[name]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	var rows []normalize.Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		row := normalize.Row{
			ID:                   cell(record, "id"),
			ConfigurationSummary: cell(record, "configuration_summary"),
			Type:                 cell(record, "type"),
			CreationDate:         cell(record, "creation_date"),
			Application:          cell(record, "application"),
		}
		if size := cell(record, "size_bits"); size != "" {
			bits, err := strconv.Atoi(size)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: size_bits %q", ErrBadReport, line, size)
			}
			row.SizeBits = &bits
		}
		rows = append(rows, row)
	}
}

// ObjectKey names a report object: <prefix>/<segment>-<timestamp>.csv. The
// prefix loses its trailing slashes; an empty prefix yields a bare name.
func ObjectKey(prefix, segment string, t time.Time) string {
	name := fmt.Sprintf("%s-%s.csv", segment, t.UTC().Format(keyTimeLayout))
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Segment maps a source name to the object key segment.
func Segment(source string) string {
	return "kms-" + source
}
