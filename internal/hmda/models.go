package hmda

import (
	"strings"

	"gorm.io/gorm"
)

// Record is one row of the HMDA Loan Application Register.
type Record struct {
	ID                   uint   `gorm:"primaryKey" json:"-"`
	AsOfYear             int    `json:"as_of_year"`
	RespondentID         string `gorm:"size:10" json:"respondent_id"`
	AgencyCode           string `gorm:"size:1" json:"agency_code"`
	LoanType             int    `json:"loan_type"`
	PropertyType         string `gorm:"size:1" json:"property_type"`
	LoanPurpose          int    `json:"loan_purpose"`
	OwnerOccupancy       int    `json:"owner_occupancy"`
	LoanAmount000s       int    `gorm:"column:loan_amount_000s" json:"loan_amount_000s"`
	Preapproval          string `gorm:"size:1" json:"preapproval"`
	ActionTaken          int    `gorm:"index" json:"action_taken"`
	MSAMD                string `gorm:"column:msamd;size:5" json:"msamd"`
	StateFP              string `gorm:"column:statefp;size:2;index:idx_hmda_county_lender,priority:1" json:"statefp"`
	CountyFP             string `gorm:"column:countyfp;size:3;index:idx_hmda_county_lender,priority:2" json:"countyfp"`
	CensusTractNumber    string `gorm:"size:7" json:"census_tract_number"`
	ApplicantEthnicity   string `gorm:"size:1" json:"applicant_ethnicity"`
	CoApplicantEthnicity string `gorm:"size:1" json:"co_applicant_ethnicity"`
	ApplicantRace1       string `gorm:"column:applicant_race_1;size:1" json:"applicant_race_1"`
	CoApplicantRace1     string `gorm:"column:co_applicant_race_1;size:1" json:"co_applicant_race_1"`
	ApplicantSex         int    `json:"applicant_sex"`
	CoApplicantSex       int    `json:"co_applicant_sex"`
	ApplicantIncome000s  string `gorm:"column:applicant_income_000s;size:4" json:"applicant_income_000s"`
	PurchaserType        string `gorm:"size:1" json:"purchaser_type"`
	RateSpread           string `gorm:"size:5" json:"rate_spread"`
	HOEPAStatus          string `gorm:"column:hoepa_status;size:1" json:"hoepa_status"`
	LienStatus           string `gorm:"size:1" json:"lien_status"`
	SequenceNumber       string `gorm:"size:7" json:"sequence_number"`

	Lender string `gorm:"size:11;index:idx_hmda_county_lender,priority:3" json:"lender"`
	GeoID  string `gorm:"column:geoid;size:11;index" json:"geoid"`
}

func (Record) TableName() string {
	return "hmda.records"
}

// BeforeSave derives the lender and tract keys from the raw LAR columns.
func (r *Record) BeforeSave(tx *gorm.DB) error {
	r.SetDerived()
	return nil
}

// SetDerived fills Lender (agency code + respondent id) and GeoID (state +
// county + tract digits without the decimal point).
func (r *Record) SetDerived() {
	r.Lender = LenderID(r.AgencyCode, r.RespondentID)
	tract := strings.ReplaceAll(r.CensusTractNumber, ".", "")
	if tract == "" {
		r.GeoID = ""
		return
	}
	r.GeoID = r.StateFP + r.CountyFP + tract
}

// LenderID joins an agency code and respondent id into the 11 character
// lender key shared with the institutions table.
func LenderID(agencyCode, respondentID string) string {
	return agencyCode + respondentID
}

// Preapprovals (actions 7 and 8) are excluded from origination counts.
const maxCountedAction = 6
