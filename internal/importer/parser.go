package importer

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format is a supported import file format, chosen by file extension.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
)

// FormatOf maps a path to its format by extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".txt":
		return FormatTXT, nil
	}
	return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// BookingParser reads booking rows. Malformed entries are logged and
// dropped; only an unreadable input is an error.
type BookingParser interface {
	ParseBookings(r io.Reader) ([]BookingRow, error)
}

// SectionParser reads section rows with the same contract.
type SectionParser interface {
	ParseSections(r io.Reader) ([]SectionRow, error)
}

// Parser implements both row kinds for one format.
type Parser interface {
	BookingParser
	SectionParser
}

// NewParser returns the parser for a format. Diagnostics about dropped
// lines go to log.
func NewParser(f Format, log logrus.FieldLogger) (Parser, error) {
	switch f {
	case FormatCSV:
		return csvParser{log: log}, nil
	case FormatJSON:
		return jsonParser{log: log}, nil
	case FormatTXT:
		return txtParser{log: log}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}

// ParseBookingFile opens path and parses it with the parser its
// extension selects.
func ParseBookingFile(path string, log logrus.FieldLogger) ([]BookingRow, error) {
	p, f, err := open(path, log)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.ParseBookings(f)
}

// ParseSectionFile is ParseBookingFile for section rows.
func ParseSectionFile(path string, log logrus.FieldLogger) ([]SectionRow, error) {
	p, f, err := open(path, log)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.ParseSections(f)
}

func open(path string, log logrus.FieldLogger) (Parser, *os.File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, nil, err
	}
	p, err := NewParser(format, log.WithField("file", filepath.Base(path)))
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return p, f, nil
}

// eachLine calls fn for every non-blank, non-comment line with its
// 1-based line number.
func eachLine(r io.Reader, fn func(n int, line string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fn(n, line)
	}
	return sc.Err()
}

// bookingFromFields builds a row from seat, name, email, phone[, price].
func bookingFromFields(n int, p []string) (BookingRow, error) {
	if len(p) < 4 {
		return BookingRow{}, fmt.Errorf("expected at least 4 fields, got %d", len(p))
	}
	row := BookingRow{
		Line:     n,
		SeatCode: strings.TrimSpace(p[0]),
		Name:     strings.TrimSpace(p[1]),
		Email:    strings.TrimSpace(p[2]),
		Phone:    strings.TrimSpace(p[3]),
	}
	if row.SeatCode == "" || row.Name == "" {
		return BookingRow{}, fmt.Errorf("seat code and customer name are required")
	}
	if len(p) >= 5 && strings.TrimSpace(p[4]) != "" {
		cents, err := ParsePriceCents(p[4])
		if err != nil {
			return BookingRow{}, err
		}
		row.PriceCents = &cents
	}
	return row, nil
}

// sectionFromFields builds a row from name, row, seats, seat type. ok is
// false for header lines whose row column is not a number.
func sectionFromFields(n int, p []string) (row SectionRow, ok bool, err error) {
	if len(p) < 4 {
		return SectionRow{}, false, fmt.Errorf("expected 4 fields, got %d", len(p))
	}
	for i := range p {
		p[i] = strings.TrimSpace(p[i])
	}
	rowNo, err := strconv.Atoi(p[1])
	if err != nil {
		return SectionRow{}, false, nil
	}
	seats, err := strconv.Atoi(p[2])
	if err != nil {
		return SectionRow{}, false, fmt.Errorf("total seats %q is not a number", p[2])
	}
	if p[0] == "" || p[3] == "" {
		return SectionRow{}, false, fmt.Errorf("section name and seat type are required")
	}
	return SectionRow{Line: n, SectionName: p[0], RowNumber: rowNo, TotalSeats: seats, SeatType: p[3]}, true, nil
}

func isBookingHeader(first string) bool {
	switch strings.ToLower(strings.TrimSpace(first)) {
	case "seat", "seatcode", "seat_code", "seat code":
		return true
	}
	return false
}

// ---- CSV ----

type csvParser struct{ log logrus.FieldLogger }

func splitCSV(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.Read()
}

func (p csvParser) ParseBookings(r io.Reader) ([]BookingRow, error) {
	var out []BookingRow
	err := eachLine(r, func(n int, line string) {
		fields, err := splitCSV(line)
		if err == nil && isBookingHeader(fields[0]) {
			return
		}
		if err == nil {
			var row BookingRow
			if row, err = bookingFromFields(n, fields); err == nil {
				out = append(out, row)
				return
			}
		}
		p.log.WithError(err).WithField("line", n).Warn("dropping malformed booking line")
	})
	return out, err
}

func (p csvParser) ParseSections(r io.Reader) ([]SectionRow, error) {
	var out []SectionRow
	err := eachLine(r, func(n int, line string) {
		fields, err := splitCSV(line)
		if err == nil {
			var (
				row SectionRow
				ok  bool
			)
			row, ok, err = sectionFromFields(n, fields)
			if ok {
				out = append(out, row)
				return
			}
			if err == nil {
				return // header
			}
		}
		p.log.WithError(err).WithField("line", n).Warn("dropping malformed section line")
	})
	return out, err
}

// ---- TXT (whitespace separated) ----

type txtParser struct{ log logrus.FieldLogger }

func (p txtParser) ParseBookings(r io.Reader) ([]BookingRow, error) {
	var out []BookingRow
	err := eachLine(r, func(n int, line string) {
		fields := strings.Fields(line)
		if isBookingHeader(fields[0]) {
			return
		}
		row, err := bookingFromFields(n, fields)
		if err != nil {
			p.log.WithError(err).WithField("line", n).Warn("dropping malformed booking line")
			return
		}
		out = append(out, row)
	})
	return out, err
}

func (p txtParser) ParseSections(r io.Reader) ([]SectionRow, error) {
	var out []SectionRow
	err := eachLine(r, func(n int, line string) {
		row, ok, err := sectionFromFields(n, strings.Fields(line))
		switch {
		case ok:
			out = append(out, row)
		case err != nil:
			p.log.WithError(err).WithField("line", n).Warn("dropping malformed section line")
		}
	})
	return out, err
}

// ---- JSON (array of objects) ----

type jsonParser struct{ log logrus.FieldLogger }

type jsonBooking struct {
	SeatCode      string          `json:"seatCode"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone"`
	Price         json.RawMessage `json:"price"`
}

type jsonSection struct {
	SectionName string          `json:"sectionName"`
	RowNumber   int             `json:"rowNumber"`
	TotalSeats  int             `json:"totalSeats"`
	SeatType    json.RawMessage `json:"seatType"`
}

// rawText unwraps a JSON string or returns a number literal as is. null
// and absent values yield "".
func rawText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		return str
	}
	return s
}

// decodeArray reads a top-level JSON array one element at a time so a
// malformed element is dropped without losing the rest.
func decodeArray(r io.Reader, fn func(i int, raw json.RawMessage)) error {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return fmt.Errorf("json root must be an array: %w", err)
	}
	for i, raw := range items {
		fn(i+1, raw)
	}
	return nil
}

func (p jsonParser) ParseBookings(r io.Reader) ([]BookingRow, error) {
	var out []BookingRow
	err := decodeArray(r, func(i int, raw json.RawMessage) {
		var jb jsonBooking
		err := json.Unmarshal(raw, &jb)
		if err == nil {
			var row BookingRow
			row, err = bookingFromFields(i, []string{jb.SeatCode, jb.CustomerName, jb.CustomerEmail, jb.CustomerPhone, rawText(jb.Price)})
			if err == nil {
				out = append(out, row)
				return
			}
		}
		p.log.WithError(err).WithField("entry", i).Warn("dropping malformed booking entry")
	})
	return out, err
}

func (p jsonParser) ParseSections(r io.Reader) ([]SectionRow, error) {
	var out []SectionRow
	err := decodeArray(r, func(i int, raw json.RawMessage) {
		var js jsonSection
		err := json.Unmarshal(raw, &js)
		if err == nil {
			row := SectionRow{
				Line:        i,
				SectionName: strings.TrimSpace(js.SectionName),
				RowNumber:   js.RowNumber,
				TotalSeats:  js.TotalSeats,
				SeatType:    strings.TrimSpace(rawText(js.SeatType)),
			}
			if row.SectionName != "" && row.SeatType != "" {
				out = append(out, row)
				return
			}
			err = fmt.Errorf("section name and seat type are required")
		}
		p.log.WithError(err).WithField("entry", i).Warn("dropping malformed section entry")
	})
	return out, err
}
