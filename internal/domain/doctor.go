package domain

import (
	"time"
)

// Weekdays is indexed by time.Weekday, Sunday first.
var Weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type DoctorAvailability struct {
	Day         string `json:"day"`
	StartTime   string `json:"startTime"` // HH:MM
	EndTime     string `json:"endTime"`   // HH:MM
	IsAvailable bool   `json:"isAvailable"`
}

type Doctor struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Title           string               `json:"title"`
	Specialization  []string             `json:"specialization"`
	Qualifications  []string             `json:"qualifications"`
	Experience      int32                `json:"experience"`
	Image           string               `json:"image"`
	Bio             string               `json:"bio"`
	Languages       []string             `json:"languages"`
	Availability    []DoctorAvailability `json:"availability"`
	Rating          float64              `json:"rating"`
	ReviewCount     int32                `json:"reviewCount"`
	ConsultationFee int32                `json:"consultationFee"`
	CreatedAt       time.Time            `json:"createdAt"`
	Version         int32                `json:"-"`
}
