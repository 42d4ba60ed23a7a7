package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
)

// Collection names
const (
	CollectionUsers    = "users"
	CollectionGlaucoma = "glaucomaMeasurements"
	CollectionRetina   = "retinaInjectionMeasurements"

	// server-side only, never read by the mobile app
	CollectionCredentials = "credentials"
)

// Document keys. These match documents already written by the mobile app and
// must not be renamed.
const (
	KeyID     = "id"
	KeyUserID = "userId"
	KeyDate   = "date"
	KeyEye    = "eye"
	KeyNotes  = "notes"
	KeyEdited = "edited"

	KeyName  = "name"
	KeyEmail = "email"

	KeyHasGlaucomaFamilyHistory = "hasGlaucomaFamilyHistory"
	KeyHasLasikSurgery          = "hasLasikSurgery"
	KeyIOP                      = "iop"
	KeyIOPTime                  = "iopTime"
	KeyMD                       = "md"
	KeyPSD                      = "psd"
	KeyRNFLOverall              = "rnflOverall"
	KeyRNFLSuperior             = "rnflSuperior"
	KeyRNFLInferior             = "rnflInferior"
	KeyGCC                      = "gcc"
	KeyHasVisualFieldChange     = "hasVisualFieldChange"
	KeyHasRNFLChange            = "hasRNFLChange"
	KeyNewEyeDrops              = "newEyeDrops"
	KeyEyeDropsDetails          = "eyeDropsDetails"

	KeyMedication      = "medication"
	KeyIsNewMedication = "isNewMedication"
	KeyVision          = "vision"
	KeyCRT             = "crt"
	KeyReminderDate    = "reminderDate"

	KeyPasswordHash = "passwordHash"
)

// fieldReader decodes typed values out of a raw document. The first failure
// sticks and later reads become no-ops.
type fieldReader struct {
	collection string
	doc        map[string]any
	err        error
}

func newFieldReader(collection string, doc map[string]any) *fieldReader {
	return &fieldReader{collection: collection, doc: doc}
}

func (r *fieldReader) fail(key, reason string) {
	if r.err == nil {
		r.err = apperrors.NewMalformedRecordError(r.collection, key, reason)
	}
}

func (r *fieldReader) required(key string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.doc[key]
	if !ok || v == nil {
		r.fail(key, "is missing")
		return nil, false
	}
	return v, true
}

func (r *fieldReader) optional(key string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.doc[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *fieldReader) String(key string) string {
	v, ok := r.required(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, fmt.Sprintf("has type %T, want string", v))
	}
	return s
}

func (r *fieldReader) OptString(key string) *string {
	v, ok := r.optional(key)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, fmt.Sprintf("has type %T, want string", v))
		return nil
	}
	return &s
}

func (r *fieldReader) Bool(key string) bool {
	v, ok := r.required(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(key, fmt.Sprintf("has type %T, want bool", v))
	}
	return b
}

func (r *fieldReader) Flag(key string) Flag {
	v, ok := r.optional(key)
	if !ok {
		return Flag{}
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(key, fmt.Sprintf("has type %T, want bool", v))
		return Flag{}
	}
	return FlagOf(b)
}

func (r *fieldReader) Float(key string) float64 {
	v, ok := r.required(key)
	if !ok {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(key, fmt.Sprintf("has type %T, want number", v))
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		r.fail(key, fmt.Sprintf("value %v is not a finite number", f))
		return 0
	}
	return f
}

func (r *fieldReader) Int(key string) int {
	v, ok := r.required(key)
	if !ok {
		return 0
	}
	n, err := toInt(v)
	if err != nil {
		r.fail(key, err.Error())
		return 0
	}
	return n
}

func (r *fieldReader) Time(key string) time.Time {
	v, ok := r.required(key)
	if !ok {
		return time.Time{}
	}
	t, ok := toTime(v)
	if !ok {
		r.fail(key, fmt.Sprintf("has type %T, want timestamp", v))
	}
	return t
}

func (r *fieldReader) OptTime(key string) *time.Time {
	v, ok := r.optional(key)
	if !ok {
		return nil
	}
	t, ok := toTime(v)
	if !ok {
		r.fail(key, fmt.Sprintf("has type %T, want timestamp", v))
		return nil
	}
	return &t
}

func (r *fieldReader) Eye(key string) Eye {
	s := r.String(key)
	if r.err != nil {
		return ""
	}
	eye, err := ParseEye(s)
	if err != nil {
		r.fail(key, err.Error())
	}
	return eye
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// toInt accepts any numeric shape holding a whole number that fits in int32,
// which covers every integer field of the record kinds.
func toInt(v any) (int, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return 0, fmt.Errorf("value %q is not a number", x.String())
			}
			return floatToInt(f)
		}
		n = i
	default:
		f, ok := toFloat(v)
		if !ok {
			return 0, fmt.Errorf("has type %T, want integer", v)
		}
		return floatToInt(f)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("value %d is out of range", n)
	}
	return int(n), nil
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("value %v is out of range", f)
	}
	return int(f), nil
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

// DecodeUser builds a User from a stored document
func DecodeUser(id string, doc map[string]any) (*User, error) {
	r := newFieldReader(CollectionUsers, doc)
	u := &User{
		ID:    id,
		Name:  r.String(KeyName),
		Email: r.String(KeyEmail),
	}
	if r.err != nil {
		return nil, r.err
	}
	return u, nil
}

// Encode returns the stored form of the user. Initials are never stored.
func (u *User) Encode() map[string]any {
	return map[string]any{
		KeyName:  u.Name,
		KeyEmail: u.Email,
	}
}

// DecodeCredential builds a Credential from a document keyed by email
func DecodeCredential(email string, doc map[string]any) (*Credential, error) {
	r := newFieldReader(CollectionCredentials, doc)
	c := &Credential{
		Email:        email,
		UserID:       r.String(KeyUserID),
		PasswordHash: r.String(KeyPasswordHash),
	}
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

func (c *Credential) Encode() map[string]any {
	return map[string]any{
		KeyUserID:       c.UserID,
		KeyPasswordHash: c.PasswordHash,
	}
}

// DecodeGlaucoma builds a GlaucomaMeasurement from a stored document
func DecodeGlaucoma(id string, doc map[string]any) (*GlaucomaMeasurement, error) {
	r := newFieldReader(CollectionGlaucoma, doc)
	m := &GlaucomaMeasurement{
		ID:                       id,
		UserID:                   r.String(KeyUserID),
		Date:                     r.Time(KeyDate),
		Eye:                      r.Eye(KeyEye),
		HasGlaucomaFamilyHistory: r.Bool(KeyHasGlaucomaFamilyHistory),
		HasLasikSurgery:          r.Bool(KeyHasLasikSurgery),
		IOP:                      r.Float(KeyIOP),
		IOPTime:                  r.Time(KeyIOPTime),
		MD:                       r.Float(KeyMD),
		PSD:                      r.Float(KeyPSD),
		RNFLOverall:              r.Int(KeyRNFLOverall),
		RNFLSuperior:             r.Int(KeyRNFLSuperior),
		RNFLInferior:             r.Int(KeyRNFLInferior),
		GCC:                      r.Int(KeyGCC),
		HasVisualFieldChange:     r.Bool(KeyHasVisualFieldChange),
		HasRNFLChange:            r.Bool(KeyHasRNFLChange),
		NewEyeDrops:              r.Bool(KeyNewEyeDrops),
		EyeDropsDetails:          r.OptString(KeyEyeDropsDetails),
		Notes:                    r.OptString(KeyNotes),
		Edited:                   r.Flag(KeyEdited),
	}
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

// Encode returns the stored form of the measurement. Absent optional fields
// are omitted rather than written as null or false.
func (m *GlaucomaMeasurement) Encode() map[string]any {
	doc := map[string]any{
		KeyUserID:                   m.UserID,
		KeyDate:                     m.Date,
		KeyEye:                      string(m.Eye),
		KeyHasGlaucomaFamilyHistory: m.HasGlaucomaFamilyHistory,
		KeyHasLasikSurgery:          m.HasLasikSurgery,
		KeyIOP:                      m.IOP,
		KeyIOPTime:                  m.IOPTime,
		KeyMD:                       m.MD,
		KeyPSD:                      m.PSD,
		KeyRNFLOverall:              m.RNFLOverall,
		KeyRNFLSuperior:             m.RNFLSuperior,
		KeyRNFLInferior:             m.RNFLInferior,
		KeyGCC:                      m.GCC,
		KeyHasVisualFieldChange:     m.HasVisualFieldChange,
		KeyHasRNFLChange:            m.HasRNFLChange,
		KeyNewEyeDrops:              m.NewEyeDrops,
	}
	if m.EyeDropsDetails != nil {
		doc[KeyEyeDropsDetails] = *m.EyeDropsDetails
	}
	if m.Notes != nil {
		doc[KeyNotes] = *m.Notes
	}
	if m.Edited.IsSet() {
		doc[KeyEdited] = m.Edited.Value()
	}
	return doc
}

// DecodeRetinaInjection builds a RetinaInjectionMeasurement from a stored document
func DecodeRetinaInjection(id string, doc map[string]any) (*RetinaInjectionMeasurement, error) {
	r := newFieldReader(CollectionRetina, doc)
	m := &RetinaInjectionMeasurement{
		ID:              id,
		UserID:          r.String(KeyUserID),
		Date:            r.Time(KeyDate),
		Eye:             r.Eye(KeyEye),
		Medication:      r.String(KeyMedication),
		IsNewMedication: r.Bool(KeyIsNewMedication),
		Vision:          r.String(KeyVision),
		CRT:             r.Int(KeyCRT),
		Notes:           r.OptString(KeyNotes),
		ReminderDate:    r.OptTime(KeyReminderDate),
		Edited:          r.Flag(KeyEdited),
	}
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

// Encode returns the stored form of the measurement
func (m *RetinaInjectionMeasurement) Encode() map[string]any {
	doc := map[string]any{
		KeyUserID:          m.UserID,
		KeyDate:            m.Date,
		KeyEye:             string(m.Eye),
		KeyMedication:      m.Medication,
		KeyIsNewMedication: m.IsNewMedication,
		KeyVision:          m.Vision,
		KeyCRT:             m.CRT,
	}
	if m.Notes != nil {
		doc[KeyNotes] = *m.Notes
	}
	if m.ReminderDate != nil {
		doc[KeyReminderDate] = *m.ReminderDate
	}
	if m.Edited.IsSet() {
		doc[KeyEdited] = m.Edited.Value()
	}
	return doc
}

func marshalWithID(id string, doc map[string]any) ([]byte, error) {
	if id != "" {
		doc[KeyID] = id
	}
	return json.Marshal(doc)
}

func unmarshalWithID(data []byte) (string, map[string]any, error) {
	var doc map[string]any
	if err := decodeJSON(data, &doc); err != nil {
		return "", nil, err
	}
	var id string
	if raw, ok := doc[KeyID]; ok {
		s, isString := raw.(string)
		if !isString {
			return "", nil, fmt.Errorf("id has type %T, want string", raw)
		}
		id = s
		delete(doc, KeyID)
	}
	return id, doc, nil
}

func (u *User) MarshalJSON() ([]byte, error) {
	doc := u.Encode()
	doc["initials"] = u.Initials()
	return marshalWithID(u.ID, doc)
}

func (m *GlaucomaMeasurement) MarshalJSON() ([]byte, error) {
	return marshalWithID(m.ID, m.Encode())
}

func (m *GlaucomaMeasurement) UnmarshalJSON(data []byte) error {
	id, doc, err := unmarshalWithID(data)
	if err != nil {
		return err
	}
	decoded, err := DecodeGlaucoma(id, doc)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

func (m *RetinaInjectionMeasurement) MarshalJSON() ([]byte, error) {
	return marshalWithID(m.ID, m.Encode())
}

func (m *RetinaInjectionMeasurement) UnmarshalJSON(data []byte) error {
	id, doc, err := unmarshalWithID(data)
	if err != nil {
		return err
	}
	decoded, err := DecodeRetinaInjection(id, doc)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// DecodeDocumentJSON decodes a JSON object keeping numbers as json.Number so
// integer fields survive without float rounding.
func DecodeDocumentJSON(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := decodeJSON(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
