package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Eye designates which eye a measurement was taken on
type Eye string

const (
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

// ParseEye accepts only the two stored designations
func ParseEye(s string) (Eye, error) {
	switch Eye(s) {
	case EyeLeft, EyeRight:
		return Eye(s), nil
	default:
		return "", fmt.Errorf("unknown eye designation %q", s)
	}
}

// Flag is a boolean that may be absent from a stored record.
// The zero value is absent, and an absent flag reads as false.
type Flag struct {
	value bool
	set   bool
}

// FlagOf returns a present flag holding v
func FlagOf(v bool) Flag {
	return Flag{value: v, set: true}
}

// IsSet reports whether the flag was present
func (f Flag) IsSet() bool {
	return f.set
}

// Value returns the flag value, false when absent
func (f Flag) Value() bool {
	return f.set && f.value
}

// User represents a patient account. The ID is the auth uid.
type User struct {
	ID    string
	Name  string
	Email string
}

// Initials returns up to two upper-cased initials taken from the first and
// last name components, e.g. "Anna Maria Petrova" -> "AP".
func (u User) Initials() string {
	parts := strings.FieldsFunc(u.Name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	if len(parts) == 0 {
		return ""
	}

	initials := []rune{firstLetter(parts[0])}
	if len(parts) > 1 {
		initials = append(initials, firstLetter(parts[len(parts)-1]))
	}

	var b strings.Builder
	for _, r := range initials {
		if r != 0 {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func firstLetter(s string) rune {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return r
		}
	}
	return 0
}

// GlaucomaReadings holds the required clinical values of a glaucoma visit
type GlaucomaReadings struct {
	IOP          float64 // mmHg
	MD           float64 // visual field mean defect, dB
	PSD          float64 // visual field pattern standard deviation, dB
	RNFLOverall  int     // µm
	RNFLSuperior int
	RNFLInferior int
	GCC          int
}

// GlaucomaMeasurement is one glaucoma follow-up visit for one eye
type GlaucomaMeasurement struct {
	ID                       string
	UserID                   string
	Date                     time.Time
	Eye                      Eye
	HasGlaucomaFamilyHistory bool
	HasLasikSurgery          bool
	IOP                      float64
	IOPTime                  time.Time
	MD                       float64
	PSD                      float64
	RNFLOverall              int
	RNFLSuperior             int
	RNFLInferior             int
	GCC                      int
	HasVisualFieldChange     bool
	HasRNFLChange            bool
	NewEyeDrops              bool
	EyeDropsDetails          *string
	Notes                    *string
	Edited                   Flag
}

// NewGlaucomaMeasurement builds an unsaved measurement dated now with every
// optional field absent and every flag false.
func NewGlaucomaMeasurement(userID string, eye Eye, r GlaucomaReadings) *GlaucomaMeasurement {
	now := time.Now()
	return &GlaucomaMeasurement{
		UserID:       userID,
		Date:         now,
		Eye:          eye,
		IOP:          r.IOP,
		IOPTime:      now,
		MD:           r.MD,
		PSD:          r.PSD,
		RNFLOverall:  r.RNFLOverall,
		RNFLSuperior: r.RNFLSuperior,
		RNFLInferior: r.RNFLInferior,
		GCC:          r.GCC,
	}
}

func (m *GlaucomaMeasurement) IsEdited() bool { return m.Edited.Value() }

// RetinaInjectionMeasurement is one intravitreal injection visit for one eye
type RetinaInjectionMeasurement struct {
	ID              string
	UserID          string
	Date            time.Time
	Eye             Eye
	Medication      string
	IsNewMedication bool
	Vision          string // free text, e.g. "20/40" or "0.5"
	CRT             int    // central retinal thickness, µm
	Notes           *string
	ReminderDate    *time.Time
	Edited          Flag
}

// NewRetinaInjectionMeasurement builds an unsaved measurement dated now
func NewRetinaInjectionMeasurement(userID string, eye Eye, medication, vision string, crt int) *RetinaInjectionMeasurement {
	return &RetinaInjectionMeasurement{
		UserID:     userID,
		Date:       time.Now(),
		Eye:        eye,
		Medication: medication,
		Vision:     vision,
		CRT:        crt,
	}
}

func (m *RetinaInjectionMeasurement) IsEdited() bool { return m.Edited.Value() }
