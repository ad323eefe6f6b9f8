package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/fairlending-api/internal/census"
	"github.com/EmpoweredVote/fairlending-api/internal/hmda"
	"github.com/EmpoweredVote/fairlending-api/internal/institutions"
)

var ErrNoRows = errors.New("csv has no data rows")

// headerCSV reads a CSV whose first row names the columns.
type headerCSV struct {
	r   *csv.Reader
	col map[string]int
	rec []string
	row int
}

func newHeaderCSV(in io.Reader, required ...string) (*headerCSV, error) {
	r := csv.NewReader(bufio.NewReader(in))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	col := map[string]int{}
	for i, h := range header {
		if i == 0 {
			// Handle BOM on first header cell
			h = strings.TrimPrefix(h, "\ufeff")
		}
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}
	return &headerCSV{r: r, col: col, row: 1}, nil
}

// next advances to the following record; it returns io.EOF at the end.
func (h *headerCSV) next() error {
	rec, err := h.r.Read()
	if err != nil {
		return err
	}
	h.rec = rec
	h.row++
	return nil
}

func (h *headerCSV) get(name string) string {
	i, ok := h.col[name]
	if !ok || i >= len(h.rec) {
		return ""
	}
	return strings.TrimSpace(h.rec[i])
}

func (h *headerCSV) getInt(name string) (int, error) {
	v := h.get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("row %d: %s: %w", h.row, name, err)
	}
	return n, nil
}

// ParseRaceStats reads census race counts keyed by geoid.
func ParseRaceStats(in io.Reader) ([]census.RaceStats, error) {
	h, err := newHeaderCSV(in, "geoid", "total_pop", "hispanic",
		"non_hisp_white_only", "non_hisp_black_only", "non_hisp_asian_only")
	if err != nil {
		return nil, err
	}

	var out []census.RaceStats
	for {
		if err := h.next(); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		s := census.RaceStats{GeoID: h.get("geoid")}
		if s.GeoID == "" {
			return nil, fmt.Errorf("row %d: geoid is required", h.row)
		}
		for name, dst := range map[string]*int{
			"total_pop":           &s.TotalPop,
			"hispanic":            &s.Hispanic,
			"non_hisp_white_only": &s.NonHispWhiteOnly,
			"non_hisp_black_only": &s.NonHispBlackOnly,
			"non_hisp_asian_only": &s.NonHispAsianOnly,
		} {
			if *dst, err = h.getInt(name); err != nil {
				return nil, err
			}
		}
		s.ComputePercentages()
		out = append(out, s)
	}
	return out, nil
}

// ParseHouseholds reads household totals keyed by geoid.
func ParseHouseholds(in io.Reader) ([]census.Households, error) {
	h, err := newHeaderCSV(in, "geoid", "total")
	if err != nil {
		return nil, err
	}

	var out []census.Households
	for {
		if err := h.next(); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		geoid := h.get("geoid")
		if geoid == "" {
			return nil, fmt.Errorf("row %d: geoid is required", h.row)
		}
		total, err := h.getInt("total")
		if err != nil {
			return nil, err
		}
		out = append(out, census.Households{GeoID: geoid, Total: total})
	}
	return out, nil
}

// ParseInstitutions reads the lender list (HMDA transmittal sheet extract).
func ParseInstitutions(in io.Reader) ([]institutions.Institution, error) {
	h, err := newHeaderCSV(in, "year", "respondent_id", "agency_code", "name")
	if err != nil {
		return nil, err
	}

	var out []institutions.Institution
	for {
		if err := h.next(); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		year, err := h.getInt("year")
		if err != nil {
			return nil, err
		}
		inst := institutions.Institution{
			Year:         year,
			RespondentID: h.get("respondent_id"),
			AgencyCode:   h.get("agency_code"),
			Name:         h.get("name"),
			City:         h.get("city"),
			State:        h.get("state"),
			Zip:          h.get("zip"),
		}
		if inst.RespondentID == "" || inst.AgencyCode == "" {
			return nil, fmt.Errorf("row %d: respondent_id and agency_code are required", h.row)
		}
		inst.SetDerived()
		out = append(out, inst)
	}
	return out, nil
}

// larColumns is the canonical column order of a headerless LAR file.
const larColumns = 26

// ParseLAR streams a headerless HMDA LAR file, calling fn for every record
// that has a census tract. Rows without one are counted in skipped.
func ParseLAR(in io.Reader, fn func(hmda.Record) error) (skipped int, err error) {
	r := csv.NewReader(bufio.NewReader(in))
	r.FieldsPerRecord = larColumns
	r.ReuseRecord = true

	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			return skipped, nil
		}
		if err != nil {
			return skipped, fmt.Errorf("row %d: %w", row, err)
		}

		record, ok, err := larRecord(rec)
		if err != nil {
			return skipped, fmt.Errorf("row %d: %w", row, err)
		}
		if !ok {
			skipped++
			continue
		}
		if err := fn(record); err != nil {
			return skipped, err
		}
	}
}

func larRecord(rec []string) (hmda.Record, bool, error) {
	f := func(i int) string {
		v := strings.TrimSpace(rec[i])
		if strings.EqualFold(v, "NA") {
			return ""
		}
		return v
	}
	var firstErr error
	n := func(i int) int {
		v := f(i)
		if v == "" {
			return 0
		}
		x, err := strconv.Atoi(v)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("column %d: %w", i+1, err)
		}
		return x
	}

	r := hmda.Record{
		AsOfYear:             n(0),
		RespondentID:         f(1),
		AgencyCode:           f(2),
		LoanType:             n(3),
		PropertyType:         f(4),
		LoanPurpose:          n(5),
		OwnerOccupancy:       n(6),
		LoanAmount000s:       n(7),
		Preapproval:          f(8),
		ActionTaken:          n(9),
		MSAMD:                f(10),
		StateFP:              f(11),
		CountyFP:             f(12),
		CensusTractNumber:    f(13),
		ApplicantEthnicity:   f(14),
		CoApplicantEthnicity: f(15),
		ApplicantRace1:       f(16),
		CoApplicantRace1:     f(17),
		ApplicantSex:         n(18),
		CoApplicantSex:       n(19),
		ApplicantIncome000s:  f(20),
		PurchaserType:        f(21),
		RateSpread:           f(22),
		HOEPAStatus:          f(23),
		LienStatus:           f(24),
		SequenceNumber:       f(25),
	}
	if firstErr != nil {
		return hmda.Record{}, false, firstErr
	}
	if r.CensusTractNumber == "" || r.StateFP == "" || r.CountyFP == "" {
		return hmda.Record{}, false, nil
	}
	r.SetDerived()
	return r, true, nil
}
