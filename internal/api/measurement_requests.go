package api

import (
	"net/http"
	"time"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
)

// glaucomaRequest is the body of POST and PUT /glaucoma. A missing date
// defaults to now on create; iopTime defaults to the visit date.
type glaucomaRequest struct {
	Date                     *time.Time `json:"date"`
	Eye                      string     `json:"eye" validate:"required,oneof=left right"`
	HasGlaucomaFamilyHistory bool       `json:"hasGlaucomaFamilyHistory"`
	HasLasikSurgery          bool       `json:"hasLasikSurgery"`
	IOP                      *float64   `json:"iop" validate:"required,gte=0,lte=80"`
	IOPTime                  *time.Time `json:"iopTime"`
	MD                       *float64   `json:"md" validate:"required,gte=-50,lte=50"`
	PSD                      *float64   `json:"psd" validate:"required,gte=0,lte=50"`
	RNFLOverall              *int       `json:"rnflOverall" validate:"required,gte=0,lte=300"`
	RNFLSuperior             *int       `json:"rnflSuperior" validate:"required,gte=0,lte=300"`
	RNFLInferior             *int       `json:"rnflInferior" validate:"required,gte=0,lte=300"`
	GCC                      *int       `json:"gcc" validate:"required,gte=0,lte=300"`
	HasVisualFieldChange     bool       `json:"hasVisualFieldChange"`
	HasRNFLChange            bool       `json:"hasRNFLChange"`
	NewEyeDrops              bool       `json:"newEyeDrops"`
	EyeDropsDetails          *string    `json:"eyeDropsDetails" validate:"omitempty,max=500"`
	Notes                    *string    `json:"notes" validate:"omitempty,max=2000"`
}

func (req glaucomaRequest) toMeasurement(userID string) *domain.GlaucomaMeasurement {
	m := domain.NewGlaucomaMeasurement(userID, domain.Eye(req.Eye), domain.GlaucomaReadings{
		IOP:          *req.IOP,
		MD:           *req.MD,
		PSD:          *req.PSD,
		RNFLOverall:  *req.RNFLOverall,
		RNFLSuperior: *req.RNFLSuperior,
		RNFLInferior: *req.RNFLInferior,
		GCC:          *req.GCC,
	})
	if req.Date != nil {
		m.Date = *req.Date
		m.IOPTime = *req.Date
	}
	if req.IOPTime != nil {
		m.IOPTime = *req.IOPTime
	}
	m.HasGlaucomaFamilyHistory = req.HasGlaucomaFamilyHistory
	m.HasLasikSurgery = req.HasLasikSurgery
	m.HasVisualFieldChange = req.HasVisualFieldChange
	m.HasRNFLChange = req.HasRNFLChange
	m.NewEyeDrops = req.NewEyeDrops
	m.EyeDropsDetails = req.EyeDropsDetails
	m.Notes = req.Notes
	return m
}

func buildGlaucoma(w http.ResponseWriter, r *http.Request, userID string, update bool) (*domain.GlaucomaMeasurement, error) {
	var req glaucomaRequest
	if err := decodeBody(w, r, &req); err != nil {
		return nil, err
	}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireDate(req.Date, update); err != nil {
		return nil, err
	}
	return req.toMeasurement(userID), nil
}

// retinaInjectionRequest is the body of POST and PUT /retina
type retinaInjectionRequest struct {
	Date            *time.Time `json:"date"`
	Eye             string     `json:"eye" validate:"required,oneof=left right"`
	Medication      string     `json:"medication" validate:"required,max=200"`
	IsNewMedication bool       `json:"isNewMedication"`
	Vision          string     `json:"vision" validate:"required,max=50"`
	CRT             *int       `json:"crt" validate:"required,gte=0,lte=2000"`
	Notes           *string    `json:"notes" validate:"omitempty,max=2000"`
	ReminderDate    *time.Time `json:"reminderDate"`
}

func (req retinaInjectionRequest) toMeasurement(userID string) *domain.RetinaInjectionMeasurement {
	m := domain.NewRetinaInjectionMeasurement(userID, domain.Eye(req.Eye), req.Medication, req.Vision, *req.CRT)
	if req.Date != nil {
		m.Date = *req.Date
	}
	m.IsNewMedication = req.IsNewMedication
	m.Notes = req.Notes
	m.ReminderDate = req.ReminderDate
	return m
}

func buildRetinaInjection(w http.ResponseWriter, r *http.Request, userID string, update bool) (*domain.RetinaInjectionMeasurement, error) {
	var req retinaInjectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		return nil, err
	}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireDate(req.Date, update); err != nil {
		return nil, err
	}
	return req.toMeasurement(userID), nil
}
