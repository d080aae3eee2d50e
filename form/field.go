package form

// FieldType specifies how a form field is entered.
type FieldType int

const (
	TypeText   FieldType = iota // free text
	TypePhone                   // international phone number
	TypeDate                    // ISO date
	TypeNumber                  // numeric, may be empty
	TypeSelect                  // enum-coded, backed by a LookupTable
)

// Field describes one personal-information field of the intake form.
type Field struct {
	Name     string // JSON name
	Label    string // human-readable label used on screen and in the report
	Type     FieldType
	Step     int         // 1-based wizard step the field belongs to
	Options  LookupTable // for TypeSelect
	Required bool
}

// PersonalFields lists the personal-information fields in report order:
// the report lays them out left/right in pairs.
var PersonalFields = []Field{
	{Name: "consultantName", Label: "Consultant Name", Type: TypeText, Step: 1, Required: true},
	{Name: "age", Label: "Age", Type: TypeNumber, Step: 1, Required: true},
	{Name: "patientName", Label: "Patient Name", Type: TypeText, Step: 1, Required: true},
	{Name: "currency", Label: "Currency", Type: TypeSelect, Step: 1, Options: Currencies, Required: true},
	{Name: "phoneNumber", Label: "Phone Number", Type: TypePhone, Step: 1, Required: true},
	{Name: "language", Label: "Language", Type: TypeSelect, Step: 1, Options: Languages, Required: true},
	{Name: "patientId", Label: "Patient ID", Type: TypeText, Step: 1, Required: true},
	{Name: "healthCondition", Label: "Health Condition", Type: TypeSelect, Step: 1, Options: HealthConditions, Required: true},
	{Name: "entryDate", Label: "Entry Date", Type: TypeDate, Step: 1, Required: true},
	{Name: "services", Label: "Services", Type: TypeSelect, Step: 1, Options: Services, Required: true},
}

// FieldValue returns the raw value of a personal-information field by JSON
// name, and false for unknown names.
func (d FormData) FieldValue(name string) (string, bool) {
	switch name {
	case "consultantName":
		return d.ConsultantName, true
	case "patientName":
		return d.PatientName, true
	case "phoneNumber":
		return d.PhoneNumber, true
	case "patientId":
		return d.PatientID, true
	case "entryDate":
		return d.EntryDate, true
	case "age":
		return d.Age.String(), true
	case "currency":
		return d.Currency, true
	case "language":
		return d.Language, true
	case "healthCondition":
		return d.HealthCondition, true
	case "services":
		return d.Services, true
	}
	return "", false
}

// DisplayValue returns the value of f as shown to a reader: select fields
// are mapped through their lookup table. Empty values stay empty.
func (d FormData) DisplayValue(f Field) string {
	v, _ := d.FieldValue(f.Name)
	if v == "" {
		return ""
	}
	if f.Type == TypeSelect && f.Options != nil {
		return f.Options.Label(v)
	}
	return v
}
