package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/storage"
	"golang.org/x/text/encoding/charmap"
)

const (
	colID        = "id"
	colType      = "type"
	colCity      = "city"
	colRent      = "rent"
	colRooms     = "rooms"
	colParking   = "parking"
	colFurnished = "furnished"
	colInternet  = "internet"
	colLaundry   = "laundry"
	colDistance  = "distance_km"
	colRating    = "rating"
)

var requiredColumns = []string{
	colID, colType, colCity, colRent, colRooms, colParking,
	colFurnished, colInternet, colLaundry, colDistance, colRating,
}

// Header aliases, Portuguese first (the shipped dataset) then English.
var headerAliases = map[string]string{
	"imovel_id":                 colID,
	"id":                        colID,
	"listing_id":                colID,
	"tipo":                      colType,
	"type":                      colType,
	"cidade":                    colCity,
	"city":                      colCity,
	"location":                  colCity,
	"valor_aluguel":             colRent,
	"rent":                      colRent,
	"monthly_rent":              colRent,
	"quartos":                   colRooms,
	"rooms":                     colRooms,
	"vagas_totais":              colParking,
	"parking_spaces":            colParking,
	"tem_mobilia":               colFurnished,
	"furnished":                 colFurnished,
	"tem_internet":              colInternet,
	"internet":                  colInternet,
	"tem_lavanderia":            colLaundry,
	"laundry":                   colLaundry,
	"distancia_universidade_km": colDistance,
	"distance_km":               colDistance,
	"nota_avaliacao":            colRating,
	"rating":                    colRating,
}

var ErrMalformedDataset = errors.New("malformed dataset")

type Loader struct {
	opener storage.Opener
	log    *logrus.Logger
}

func NewLoader(opener storage.Opener, log *logrus.Logger) *Loader {
	if opener == nil {
		opener = storage.LocalOpener{}
	}
	return &Loader{opener: opener, log: log}
}

// Load reads the dataset at path. It never fails the caller: a missing,
// unreadable or malformed file is logged and yields an empty slice.
func (l *Loader) Load(ctx context.Context, path string) []models.ListingRecord {
	entry := l.log.WithField("path", path)

	rc, err := l.opener.Open(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			entry.Error("dataset file not found")
		} else {
			entry.WithError(err).Error("dataset file unreadable")
		}
		return nil
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		entry.WithError(err).Error("dataset file unreadable")
		return nil
	}

	text, fallback := Decode(raw)
	if fallback {
		entry.Warn("dataset is not valid UTF-8, decoded as ISO-8859-1")
	}

	recs, err := Read(strings.NewReader(text))
	if err != nil {
		entry.WithError(err).Error("dataset parse failed")
		return nil
	}
	entry.WithField("records", len(recs)).Info("dataset loaded")
	return recs
}

// Decode returns the content as UTF-8, converting from Latin-1 when the
// input is not valid UTF-8. A leading BOM is dropped.
func Decode(raw []byte) (string, bool) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return string(raw), false
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), false
	}
	return string(out), true
}

// Read parses ';'-separated rows with ',' decimals. Any malformed field fails
// the whole read.
func Read(r io.Reader) ([]models.ListingRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
	}

	idx := make(map[string]int, len(requiredColumns))
	for i, h := range header {
		if canon, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := idx[canon]; !dup {
				idx[canon] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrMalformedDataset, strings.Join(missing, ","))
	}

	var (
		out  []models.ListingRecord
		seen = map[int64]int{}
	)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
		}
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedDataset, line, err)
		}
		if prev, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate id %d (first at line %d)", ErrMalformedDataset, line, rec.ID, prev)
		}
		seen[rec.ID] = line
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedDataset)
	}
	return out, nil
}

func parseRow(row []string, idx map[string]int) (models.ListingRecord, error) {
	field := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		rec models.ListingRecord
		err error
	)
	if rec.ID, err = strconv.ParseInt(field(colID), 10, 64); err != nil {
		return rec, fmt.Errorf("%s: %w", colID, err)
	}
	rec.Type = field(colType)
	rec.Location = field(colCity)
	if rec.Type == "" || rec.Location == "" {
		return rec, fmt.Errorf("empty type or city")
	}
	if rec.Rent, err = ParseDecimal(field(colRent)); err != nil {
		return rec, fmt.Errorf("%s: %w", colRent, err)
	}
	if rec.Rent < 0 {
		return rec, fmt.Errorf("%s: negative value %v", colRent, rec.Rent)
	}
	if rec.Rooms, err = parseCount(field(colRooms)); err != nil {
		return rec, fmt.Errorf("%s: %w", colRooms, err)
	}
	if rec.ParkingSpaces, err = parseCount(field(colParking)); err != nil {
		return rec, fmt.Errorf("%s: %w", colParking, err)
	}
	if rec.Furnished, err = ParseBool(field(colFurnished)); err != nil {
		return rec, fmt.Errorf("%s: %w", colFurnished, err)
	}
	if rec.Internet, err = ParseBool(field(colInternet)); err != nil {
		return rec, fmt.Errorf("%s: %w", colInternet, err)
	}
	if rec.Laundry, err = ParseBool(field(colLaundry)); err != nil {
		return rec, fmt.Errorf("%s: %w", colLaundry, err)
	}
	if rec.DistanceKM, err = ParseDecimal(field(colDistance)); err != nil {
		return rec, fmt.Errorf("%s: %w", colDistance, err)
	}
	if rec.Rating, err = ParseDecimal(field(colRating)); err != nil {
		return rec, fmt.Errorf("%s: %w", colRating, err)
	}
	return rec, nil
}

// ParseDecimal parses comma-decimal numbers ("800,00", "1.250,50").
// A plain dot-decimal value is accepted too.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count %d", n)
		}
		return n, nil
	}
	// counts exported from spreadsheets sometimes carry ",0"
	f, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("not a count: %q", s)
	}
	return int(f), nil
}

// ParseBool accepts the boolean spellings found in the source spreadsheets.
func ParseBool(s string) (bool, error) {
	switch foldType(s) {
	case "1", "true", "t", "sim", "s", "yes", "y", "verdadeiro", "1,0", "1.0":
		return true, nil
	case "0", "false", "f", "nao", "n", "no", "falso", "0,0", "0.0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
