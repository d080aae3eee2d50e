// Package form defines the typed intake-form records that a report is built
// from, the lookup tables for enum-coded fields, and the per-step validation
// rules enforced at the data-entry boundary.
//
// FormData is decoded strictly: unknown fields are rejected.
//
//	data, err := form.Decode(r)
//	if err != nil { ... }
//	if err := data.Validate(); err != nil { ... }
package form

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
)

// FormData is the snapshot of a completed intake form.
type FormData struct {
	ConsultantName  string `json:"consultantName"`
	PatientName     string `json:"patientName"`
	PhoneNumber     string `json:"phoneNumber"`
	PatientID       string `json:"patientId"`
	EntryDate       string `json:"entryDate"`
	Age             Number `json:"age"`
	Currency        string `json:"currency"`
	Language        string `json:"language"`
	HealthCondition string `json:"healthCondition"`
	Services        string `json:"services"`

	FirstVisit  Visit     `json:"firstVisit"`
	SecondVisit VisitSlot `json:"secondVisit"`

	UploadedImages []Upload `json:"uploadedImages,omitempty"`

	ExternalLink         string `json:"externalLink,omitempty"`
	MedicalTreatmentPlan string `json:"medicalTreatmentPlan,omitempty"`
	MedicalNotes         string `json:"medicalNotes,omitempty"`
}

// Upload is one image attached on the upload step. Either Data or URL is
// set; URL may be a data URL, a local path or an http(s) address.
type Upload struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Label returns a name identifying the upload in logs and errors.
func (u Upload) Label(index int) string {
	if u.Name != "" {
		return u.Name
	}
	return fmt.Sprintf("#%d", index+1)
}

// Decode reads a FormData JSON document from r, rejecting unknown fields.
func Decode(r io.Reader) (FormData, error) {
	var data FormData
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return FormData{}, fmt.Errorf("form: decoding form data: %w", err)
	}
	return data, nil
}

// DecodeFile reads a FormData JSON document from the named file.
func DecodeFile(path string) (FormData, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormData{}, fmt.Errorf("form: opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// GrandTotal sums line totals across the first visit and, when present, the
// second visit.
func (d FormData) GrandTotal() decimal.Decimal {
	total := d.FirstVisit.Subtotal()
	if second, ok := d.SecondVisit.Get(); ok {
		total = total.Add(second.Subtotal())
	}
	return total
}
