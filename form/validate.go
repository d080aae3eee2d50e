package form

import (
	"fmt"
	"strings"
)

// Wizard steps.
const (
	StepPersonal = 1
	StepVisits   = 2
	StepUploads  = 3
)

// MaxImages is the most images the upload step accepts.
const MaxImages = 4

// AllowedImageTypes are the content types the upload step accepts.
var AllowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field failure of a validation pass.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "form: " + strings.Join(msgs, "; ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ValidateStep checks the rules of one wizard step and returns a
// *ValidationError, or nil when the step is complete.
func (d FormData) ValidateStep(step int) error {
	var errs []FieldError
	switch step {
	case StepPersonal:
		errs = d.personalErrors()
	case StepVisits:
		errs = d.visitErrors()
	case StepUploads:
		errs = d.uploadErrors()
	default:
		return fmt.Errorf("form: unknown step %d", step)
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

// Validate checks every step.
func (d FormData) Validate() error {
	var errs []FieldError
	errs = append(errs, d.personalErrors()...)
	errs = append(errs, d.visitErrors()...)
	errs = append(errs, d.uploadErrors()...)
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

func (d FormData) personalErrors() []FieldError {
	var errs []FieldError
	for _, f := range PersonalFields {
		if !f.Required {
			continue
		}
		v, _ := d.FieldValue(f.Name)
		if strings.TrimSpace(v) == "" {
			errs = append(errs, FieldError{Field: f.Name, Message: requiredMessage(f.Label)})
		}
	}
	if !d.Age.IsEmpty() && !d.Age.Decimal.IsPositive() {
		errs = append(errs, FieldError{Field: "age", Message: "Age must be > 0"})
	}
	return errs
}

// requiredMessage renders "Patient ID is required" style messages: the
// first word keeps its case, the rest are lower-cased unless they are
// acronyms.
func requiredMessage(label string) string {
	words := strings.Fields(label)
	for i := 1; i < len(words); i++ {
		if strings.ToUpper(words[i]) != words[i] {
			words[i] = strings.ToLower(words[i])
		}
	}
	return strings.Join(words, " ") + " is required"
}

func (d FormData) visitErrors() []FieldError {
	errs := checkVisit("firstVisit", "First visit", d.FirstVisit)
	if second, ok := d.SecondVisit.Get(); ok {
		errs = append(errs, checkVisit("secondVisit", "Second visit", second)...)
	}
	return errs
}

func checkVisit(field, label string, v Visit) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(v.VisitDate) == "" {
		errs = append(errs, FieldError{Field: field + ".visitDate", Message: label + " date is required"})
	}
	if v.VisitDays.IsEmpty() || !v.VisitDays.Decimal.IsPositive() {
		errs = append(errs, FieldError{Field: field + ".visitDays", Message: label + " days must be > 0"})
	}

	seen := make(map[string]bool, len(v.ServiceEntries))
	for i, e := range v.ServiceEntries {
		prefix := fmt.Sprintf("%s.serviceEntries[%d]", field, i)
		switch {
		case e.ID == "":
			errs = append(errs, FieldError{Field: prefix + ".id", Message: "Service entry id is required"})
		case seen[e.ID]:
			errs = append(errs, FieldError{Field: prefix + ".id", Message: fmt.Sprintf("Duplicate service entry id %q", e.ID)})
		}
		seen[e.ID] = true

		if !e.Price.IsEmpty() && e.Price.Decimal.IsNegative() {
			errs = append(errs, FieldError{Field: prefix + ".price", Message: "Price must not be negative"})
		}
		if !e.Quantity.IsEmpty() {
			q := e.Quantity.Decimal
			if q.IsNegative() || !q.Equal(q.Truncate(0)) {
				errs = append(errs, FieldError{Field: prefix + ".quantity", Message: "Quantity must be a whole number ≥ 0"})
			}
		}
	}
	return errs
}

func (d FormData) uploadErrors() []FieldError {
	var errs []FieldError
	if len(d.UploadedImages) > MaxImages {
		errs = append(errs, FieldError{
			Field:   "uploadedImages",
			Message: fmt.Sprintf("You can upload up to %d images only", MaxImages),
		})
	}
	for i, u := range d.UploadedImages {
		if len(u.Data) == 0 && u.URL == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("uploadedImages[%d]", i),
				Message: fmt.Sprintf("Image %s has no content", u.Label(i)),
			})
			continue
		}
		if u.ContentType != "" && !allowedImageType(u.ContentType) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("uploadedImages[%d]", i),
				Message: fmt.Sprintf("Image %s: only JPG, JPEG or PNG files are allowed", u.Label(i)),
			})
		}
	}
	return errs
}

func allowedImageType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	for _, a := range AllowedImageTypes {
		if ct == a {
			return true
		}
	}
	return false
}
