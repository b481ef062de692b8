package models

import "time"

// Application is a job application addressed to a store owner.
type Application struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ApplicantName string    `json:"applicantName" gorm:"type:varchar(200);not null"`
	JobPosition   string    `json:"jobPosition" gorm:"type:varchar(200);not null"`
	StoreOwnerID  string    `json:"storeOwnerId" gorm:"index;type:varchar(36);not null"`
	CoverLetter   string    `json:"coverLetter" gorm:"type:text"`
	CreatedAt     time.Time `json:"createdAt"`
}
