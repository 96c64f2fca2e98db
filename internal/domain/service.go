package domain

import (
	"time"
)

type ServiceCategory string

const (
	CategoryObstetrics  ServiceCategory = "obstetrics"
	CategoryGynecology  ServiceCategory = "gynecology"
	CategoryFertility   ServiceCategory = "fertility"
	CategorySurgery     ServiceCategory = "surgery"
	CategoryDiagnostics ServiceCategory = "diagnostics"
	CategoryPreventive  ServiceCategory = "preventive"
)

type MedicalService struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"shortDescription"`
	Icon             string          `json:"icon"`
	Category         ServiceCategory `json:"category"`
	Features         []string        `json:"features"`
	Duration         string          `json:"duration"` // free text, e.g. "30-45 minutes"
	Preparation      []string        `json:"preparation"`
	Aftercare        []string        `json:"aftercare"`
	IsEmergency      bool            `json:"isEmergency"`
	CreatedAt        time.Time       `json:"createdAt"`
}
