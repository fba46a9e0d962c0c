package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/boyangli/sentinelmap-dashboard/logging"
	"github.com/boyangli/sentinelmap-dashboard/models"
)

// timeLayouts are the timestamp formats accepted in the timestamp and AIS tables
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
}

// CSVReader reads the dashboard's static CSV tables from disk
type CSVReader struct {
	filePath string
}

// NewCSVReader creates a new CSV reader
func NewCSVReader(filePath string) *CSVReader {
	return &CSVReader{filePath: filePath}
}

// NewReader wraps r in a csv.Reader configured the way the parsers expect
func NewReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader
}

func (cr *CSVReader) open() (*csv.Reader, io.Closer, error) {
	file, err := os.Open(cr.filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	return NewReader(file), file, nil
}

// ReadTimestamps reads the SAR timestamp table (TILE_ID, DATE, optional TIMESTAMP).
// Rows with a blank tile or date are skipped.
func (cr *CSVReader) ReadTimestamps() ([]models.TimestampRow, error) {
	reader, closer, err := cr.open()
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return ParseTimestamps(reader)
}

// ParseTimestamps reads timestamp rows from an already opened CSV reader
func ParseTimestamps(reader *csv.Reader) ([]models.TimestampRow, error) {
	log := logging.Component("ingestion")

	colMap, err := readHeader(reader)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(colMap, "TILE_ID", "DATE"); err != nil {
		return nil, err
	}
	tsIdx, hasTimestamp := colMap["TIMESTAMP"]

	var rows []models.TimestampRow
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Error reading CSV row")
			continue
		}

		tr := models.TimestampRow{
			TileID: strings.TrimSpace(field(row, colMap["TILE_ID"])),
			Date:   strings.TrimSpace(field(row, colMap["DATE"])),
		}
		if tr.TileID == "" || tr.Date == "" {
			log.Warn().Strs("row", row).Msg("⚠️  Skipping timestamp row without tile or date")
			continue
		}
		if hasTimestamp {
			if raw := strings.TrimSpace(field(row, tsIdx)); raw != "" {
				ts, err := parseTime(raw)
				if err != nil {
					log.Warn().Err(err).Str("tile", tr.TileID).Msg("⚠️  Ignoring unparseable TIMESTAMP")
				} else {
					tr.Timestamp = ts
				}
			}
		}
		rows = append(rows, tr)
	}

	log.Info().Int("rows", len(rows)).Msg("✅ Loaded timestamp table")
	return rows, nil
}

// ReadPredictions reads a per-tile prediction table. The header must carry
// exactly len(models.PredictionColumns) columns; they are renamed positionally
// to name, lat, lon, prediction, image whatever their source names. Unlike the
// static tables a bad row fails the whole read: a prediction table is never
// silently truncated.
func (cr *CSVReader) ReadPredictions() (models.DetectionTable, error) {
	reader, closer, err := cr.open()
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return ParsePredictions(reader)
}

// ParsePredictions reads prediction rows from an already opened CSV reader
func ParsePredictions(reader *csv.Reader) (models.DetectionTable, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) != len(models.PredictionColumns) {
		return nil, fmt.Errorf("prediction table has %d columns %v, expected %d %v",
			len(header), header, len(models.PredictionColumns), models.PredictionColumns)
	}

	table := models.DetectionTable{}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) != len(models.PredictionColumns) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(models.PredictionColumns), len(row))
		}

		d, err := parsePredictionRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		table = append(table, d)
	}
	return table, nil
}

// ErrClassLabel is returned for a prediction column holding a class label
// instead of a numeric score. Only numeric scores are supported.
var ErrClassLabel = errors.New("class label predictions are not supported, expected a numeric score")

func parsePredictionRow(row []string) (models.Detection, error) {
	lat, err := parseFinite(row[1])
	if err != nil {
		return models.Detection{}, fmt.Errorf("invalid lat: %w", err)
	}
	lon, err := parseFinite(row[2])
	if err != nil {
		return models.Detection{}, fmt.Errorf("invalid lon: %w", err)
	}
	raw := strings.TrimSpace(row[3])
	prediction, err := parseFinite(raw)
	if errors.Is(err, strconv.ErrSyntax) {
		return models.Detection{}, fmt.Errorf("invalid prediction %q: %w", raw, ErrClassLabel)
	}
	if err != nil {
		return models.Detection{}, fmt.Errorf("invalid prediction: %w", err)
	}

	return models.Detection{
		Name:       row[0],
		Lat:        lat,
		Lon:        lon,
		Prediction: prediction,
		Image:      row[4],
	}, nil
}

// ReadAIS reads AIS position reports (name, mmsi, lat, lon, timestamp).
// Malformed rows are skipped.
func (cr *CSVReader) ReadAIS() ([]models.AISRecord, error) {
	reader, closer, err := cr.open()
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return ParseAIS(reader)
}

// ParseAIS reads AIS rows from an already opened CSV reader
func ParseAIS(reader *csv.Reader) ([]models.AISRecord, error) {
	log := logging.Component("ingestion")

	colMap, err := readHeader(reader)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(colMap, "name", "mmsi", "lat", "lon", "timestamp"); err != nil {
		return nil, err
	}

	var records []models.AISRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		rec, err := parseAISRow(row, colMap)
		if err != nil {
			log.Debug().Err(err).Msg("Skipping AIS row")
			skipped++
			continue
		}
		records = append(records, rec)
	}

	log.Info().Int("records", len(records)).Int("skipped", skipped).Msg("✅ Loaded AIS records")
	return records, nil
}

func parseAISRow(row []string, colMap map[string]int) (models.AISRecord, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(field(row, colMap["lat"])), 64)
	if err != nil {
		return models.AISRecord{}, fmt.Errorf("invalid lat: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(field(row, colMap["lon"])), 64)
	if err != nil {
		return models.AISRecord{}, fmt.Errorf("invalid lon: %w", err)
	}
	ts, err := parseTime(strings.TrimSpace(field(row, colMap["timestamp"])))
	if err != nil {
		return models.AISRecord{}, err
	}

	return models.AISRecord{
		Name:      field(row, colMap["name"]),
		MMSI:      strings.TrimSpace(field(row, colMap["mmsi"])),
		Lat:       lat,
		Lon:       lon,
		Timestamp: ts,
	}, nil
}

// parseFinite parses a float, rejecting NaN and infinities
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", raw)
	}
	return v, nil
}

func readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	return colMap, nil
}

func requireColumns(colMap map[string]int, cols ...string) error {
	for _, col := range cols {
		if _, ok := colMap[col]; !ok {
			return fmt.Errorf("missing required column %q", col)
		}
	}
	return nil
}

// field returns row[idx], or "" for short rows
func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
