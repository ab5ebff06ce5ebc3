package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload is the provenance row for one submitted CV/report pair. The
// extracted text lives in the candidate corpus, keyed by GroupID; this
// table only records where the files came from.
type Upload struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	GroupID        string    `gorm:"type:text;index;not null" json:"group_id"`
	CVFilename     string    `gorm:"type:text" json:"cv_filename"`
	CVPath         string    `gorm:"type:text" json:"cv_path"`
	ReportFilename string    `gorm:"type:text" json:"report_filename"`
	ReportPath     string    `gorm:"type:text" json:"report_path"`
	CreatedAt      time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (u *Upload) TableName() string {
	return "uploads"
}
