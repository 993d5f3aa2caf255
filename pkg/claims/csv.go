package claims

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Column names of the provider fraud dataset.
const (
	colProvider       = "Provider"
	colBeneID         = "BeneID"
	colClaimID        = "ClaimID"
	colAttending      = "AttendingPhysician"
	colOperating      = "OperatingPhysician"
	colOther          = "OtherPhysician"
	colReimbursed     = "InscClaimAmtReimbursed"
	colDeductible     = "DeductibleAmtPaid"
	colClaimStart     = "ClaimStartDt"
	colClaimEnd       = "ClaimEndDt"
	colDOB            = "DOB"
	colDOD            = "DOD"
	colGender         = "Gender"
	colState          = "State"
	colPotentialFraud = "PotentialFraud"
)

// row gives named access to one record of a table.
type row struct {
	path    string
	line    int
	record  []string
	columns map[string]int
}

// get returns the normalised cell, "" when the column is absent or missing.
func (r row) get(col string) string {
	i, ok := r.columns[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return Normalize(r.record[i])
}

func (r row) float(col string) (float64, error) {
	v := r.get(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &InputError{Path: r.path, Line: r.line, Column: col, Cause: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
	}
	return f, nil
}

func (r row) date(col string) (time.Time, error) {
	v := r.get(col)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, &InputError{Path: r.path, Line: r.line, Column: col, Cause: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
	}
	return t, nil
}

// readTable streams a delimited table with a header row, checking that every
// required column is present.
func readTable(r io.Reader, path string, required []string, fn func(row) error) error {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &InputError{Path: path, Cause: errors.New("empty file, header row expected")}
		}
		return &InputError{Path: path, Line: 1, Cause: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
	}

	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[col] = i
	}
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			return &InputError{Path: path, Column: col, Cause: ErrMissingColumn}
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return &InputError{Path: path, Line: line, Cause: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
		}
		if err := fn(row{path: path, line: line, record: record, columns: columns}); err != nil {
			return err
		}
	}
}

// readFile opens path and hands it to read.
func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, &InputError{Path: path, Cause: err}
	}
	defer f.Close()
	return read(f)
}

// ReadClaims parses an inpatient or outpatient claims table.
func ReadClaims(r io.Reader, path string, source Source) ([]Claim, error) {
	var out []Claim
	err := readTable(r, path, []string{colClaimID, colProvider, colBeneID, colAttending}, func(rw row) error {
		c, err := parseClaim(rw, source)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func parseClaim(rw row, source Source) (Claim, error) {
	c := Claim{
		ID:                 rw.get(colClaimID),
		Source:             source,
		Provider:           rw.get(colProvider),
		Patient:            rw.get(colBeneID),
		AttendingPhysician: rw.get(colAttending),
		OperatingPhysician: rw.get(colOperating),
		OtherPhysician:     rw.get(colOther),
	}
	var err error
	if c.Reimbursed, err = rw.float(colReimbursed); err != nil {
		return c, err
	}
	if c.Deductible, err = rw.float(colDeductible); err != nil {
		return c, err
	}
	if c.Start, err = rw.date(colClaimStart); err != nil {
		return c, err
	}
	if c.End, err = rw.date(colClaimEnd); err != nil {
		return c, err
	}
	return c, nil
}

// ReadBeneficiaries parses the beneficiary demographics table.
func ReadBeneficiaries(r io.Reader, path string) (map[string]Beneficiary, error) {
	out := make(map[string]Beneficiary)
	err := readTable(r, path, []string{colBeneID}, func(rw row) error {
		b := Beneficiary{
			ID:     rw.get(colBeneID),
			Gender: rw.get(colGender),
			State:  rw.get(colState),
		}
		if b.ID == "" {
			return nil
		}
		var err error
		if b.Birth, err = rw.date(colDOB); err != nil {
			return err
		}
		if b.Death, err = rw.date(colDOD); err != nil {
			return err
		}
		out[b.ID] = b
		return nil
	})
	return out, err
}

// ReadLabels parses the provider label table and encodes PotentialFraud.
func ReadLabels(r io.Reader, path string, enc LabelEncoder) (map[string]int, error) {
	out := make(map[string]int)
	err := readTable(r, path, []string{colProvider, colPotentialFraud}, func(rw row) error {
		provider := rw.get(colProvider)
		if provider == "" {
			return &InputError{Path: path, Line: rw.line, Column: colProvider, Cause: fmt.Errorf("%w: provider missing", ErrMalformedRow)}
		}
		v, err := enc.Encode(rw.get(colPotentialFraud))
		if err != nil {
			return &InputError{Path: path, Line: rw.line, Column: colPotentialFraud, Cause: err}
		}
		out[provider] = v
		return nil
	})
	return out, err
}

// Paths names the four input tables.
type Paths struct {
	Inpatient   string
	Outpatient  string
	Beneficiary string
	Labels      string
}

// Load reads all four tables. Inpatient and outpatient claims are
// concatenated in that order.
func Load(p Paths, enc LabelEncoder) (*Dataset, error) {
	ds := &Dataset{}

	for _, src := range []struct {
		path   string
		source Source
	}{
		{p.Inpatient, SourceInpatient},
		{p.Outpatient, SourceOutpatient},
	} {
		records, err := readFile(src.path, func(r io.Reader) ([]Claim, error) {
			return ReadClaims(r, src.path, src.source)
		})
		if err != nil {
			return nil, err
		}
		ds.Claims = append(ds.Claims, records...)
	}

	var err error
	ds.Beneficiaries, err = readFile(p.Beneficiary, func(r io.Reader) (map[string]Beneficiary, error) {
		return ReadBeneficiaries(r, p.Beneficiary)
	})
	if err != nil {
		return nil, err
	}

	ds.Labels, err = readFile(p.Labels, func(r io.Reader) (map[string]int, error) {
		return ReadLabels(r, p.Labels, enc)
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}
