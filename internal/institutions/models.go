package institutions

import (
	"github.com/EmpoweredVote/fairlending-api/internal/hmda"
	"github.com/EmpoweredVote/fairlending-api/internal/textfold"
	"gorm.io/gorm"
)

// Institution is a HMDA reporting lender from the transmittal sheet.
type Institution struct {
	Lender       string `gorm:"primaryKey;size:11" json:"lender"`
	Year         int    `json:"year"`
	RespondentID string `gorm:"size:10" json:"respondent_id"`
	AgencyCode   string `gorm:"size:1" json:"agency_code"`
	Name         string `gorm:"size:30" json:"name"`
	City         string `gorm:"size:25" json:"city"`
	State        string `gorm:"size:2" json:"state"`
	Zip          string `gorm:"size:10" json:"zip"`
	SearchName   string `gorm:"size:30;index" json:"-"`
}

func (Institution) TableName() string {
	return "institutions.institutions"
}

func (i *Institution) BeforeSave(tx *gorm.DB) error {
	i.SetDerived()
	return nil
}

// SetDerived fills the lender key and folded search name.
func (i *Institution) SetDerived() {
	i.Lender = hmda.LenderID(i.AgencyCode, i.RespondentID)
	i.SearchName = textfold.Fold(i.Name)
}
