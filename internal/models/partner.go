package models

import "time"

type Customer struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"index;not null"`
	Organization   Organization
	Name           string `gorm:"size:150;not null"`
	Email          string `gorm:"size:100"`
	Phone          string `gorm:"size:30"`
	Address        string `gorm:"size:255"`
	GSTIN          string `gorm:"size:20"`
	StateCode      string `gorm:"size:5"` // drives the CGST/SGST vs IGST split
	VATNumber      string `gorm:"size:20"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Supplier struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"index;not null"`
	Organization   Organization
	Name           string `gorm:"size:150;not null"`
	Email          string `gorm:"size:100"`
	Phone          string `gorm:"size:30"`
	Address        string `gorm:"size:255"`
	GSTIN          string `gorm:"size:20"`
	StateCode      string `gorm:"size:5"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
