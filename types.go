package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the date of t in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Pet is a pet record on the owner's dashboard.
type Pet struct {
	ID           int           `json:"id"`
	OwnerID      int           `json:"owner_id"`
	Name         string        `json:"name"`
	Breed        string        `json:"breed"`
	Age          int           `json:"age"`
	Weight       float64       `json:"weight"`
	Vaccinations []Vaccination `json:"vaccinations"`
}

// PetInput creates a pet record.
type PetInput struct {
	Name   string  `json:"name" validate:"required,max=80"`
	Breed  string  `json:"breed" validate:"required,max=80"`
	Age    int     `json:"age" validate:"gte=0,lte=50"`
	Weight float64 `json:"weight" validate:"gt=0,lt=1000"`
}

// Vaccination is one vaccination record of a pet.
type Vaccination struct {
	ID          int    `json:"id"`
	PetID       int    `json:"pet_id"`
	VaccineName string `json:"vaccine_name"`
	DateGiven   Date   `json:"date_given"`
	DueDate     Date   `json:"due_date"`
}

// VaccinationInput records a vaccination.
type VaccinationInput struct {
	VaccineName string `json:"vaccine_name" validate:"required,max=120"`
	DateGiven   Date   `json:"date_given" validate:"required"`
	DueDate     Date   `json:"due_date" validate:"required"`
}

// User is the backend's view of the signed-in owner.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Pets  []Pet  `json:"pets"`
}

// Verification is the answer of the token verification endpoint.
type Verification struct {
	Message string `json:"message"`
	UserID  int    `json:"user_id"`
}

// SymptomRequest describes symptoms, or asks a question, in free text.
type SymptomRequest struct {
	Symptoms string `json:"symptoms" validate:"required,max=4000"`
}

// Diagnosis is the AI-assisted assessment. Text is markdown.
type Diagnosis struct {
	Text string `json:"diagnosis"`
}

// PlaceType selects what kind of place a nearby search returns.
type PlaceType string

const (
	PlaceVeterinaryCare PlaceType = "veterinary_care"
	PlacePharmacy       PlaceType = "pharmacy"
)

// PlaceSearch looks for places around a coordinate.
type PlaceSearch struct {
	Lat        float64   `json:"lat" validate:"latitude"`
	Lng        float64   `json:"lng" validate:"longitude"`
	SearchType PlaceType `json:"search_type" validate:"required,max=64"`
}

// LocalizedText is a display string with its language.
type LocalizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// LatLng is a coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a clinic or pharmacy returned by a nearby search.
type Place struct {
	DisplayName      LocalizedText `json:"displayName"`
	FormattedAddress string        `json:"formattedAddress"`
	Location         LatLng        `json:"location"`
}

// NutritionRequest asks for feeding advice for a breed, weight and age.
type NutritionRequest struct {
	Breed    string  `json:"breed" validate:"required,max=80"`
	WeightKg float64 `json:"weight_kg" validate:"gt=0,lt=1000"`
	AgeYears int     `json:"age_years" validate:"gte=0,lte=50"`
}

// NutritionAdvice is the nutrition panel's answer. Advice is markdown.
type NutritionAdvice struct {
	Advice string `json:"nutrition_advice"`
}
