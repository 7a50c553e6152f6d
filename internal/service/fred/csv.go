package fred

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/pkg/util"
)

// CSVSource reads one "<dir>/<series id>.csv" file per series, in the layout of a
// FRED download: a header row then date,value rows.
type CSVSource struct {
	dir string
}

var _ drepo.DataSource = (*CSVSource)(nil)

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

func (s *CSVSource) Fetch(ctx context.Context, seriesID string) (models.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.RawSeries{}, fmt.Errorf("%w: %s: %v", models.ErrFetch, seriesID, err)
	}
	f, err := os.Open(filepath.Join(s.dir, seriesID+".csv"))
	if err != nil {
		return models.RawSeries{}, fmt.Errorf("%w: %s: %v", models.ErrFetch, seriesID, err)
	}
	defer f.Close()

	out, err := ReadCSV(seriesID, f)
	if err != nil {
		return models.RawSeries{}, fmt.Errorf("%w: %s: %v", models.ErrFetch, seriesID, err)
	}
	return out, nil
}

// ReadCSV parses date,value rows. Rows whose first field is not a date (the header)
// and rows with "." or unparsable values are skipped. Output is sorted by time.
func ReadCSV(seriesID string, r io.Reader) (models.RawSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	out := models.RawSeries{ID: seriesID}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.RawSeries{}, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		t, ok := util.ParseTime(strings.TrimSpace(rec[0]))
		if !ok {
			continue
		}
		v := strings.TrimSpace(rec[1])
		if v == missingValue {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out.Observations = append(out.Observations, models.Observation{Time: t, Value: f})
	}
	sort.SliceStable(out.Observations, func(i, j int) bool {
		return out.Observations[i].Time.Before(out.Observations[j].Time)
	})
	return out, nil
}
