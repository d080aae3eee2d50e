package form

// Option is one selectable value of an enum-coded field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// LookupTable maps enum codes to human-readable labels, preserving the order
// the intake form presents them in.
type LookupTable []Option

// Label returns the label for code, or code itself when it is not listed.
func (t LookupTable) Label(code string) string {
	for _, o := range t {
		if o.Value == code {
			return o.Label
		}
	}
	return code
}

// Has reports whether code is listed.
func (t LookupTable) Has(code string) bool {
	for _, o := range t {
		if o.Value == code {
			return true
		}
	}
	return false
}

var (
	Currencies = LookupTable{
		{Value: "EUR", Label: "Euro (€)"},
		{Value: "USD", Label: "US Dollar ($)"},
		{Value: "GBP", Label: "British Pound (£)"},
		{Value: "CAD", Label: "Canadian Dollar (C$)"},
	}

	Languages = LookupTable{
		{Value: "arabic", Label: "Arabic"},
		{Value: "english", Label: "English"},
		{Value: "french", Label: "French"},
		{Value: "spanish", Label: "Spanish"},
		{Value: "turkish", Label: "Turkish"},
		{Value: "russian", Label: "Russian"},
		{Value: "other", Label: "Other"},
	}

	HealthConditions = LookupTable{
		{Value: "good", Label: "Good"},
		{Value: "requires_report", Label: "Requires medical report"},
	}

	Services = LookupTable{
		{Value: "dental", Label: "Dental"},
		{Value: "hollywood_smile", Label: "Hollywood Smile"},
		{Value: "dental_implant", Label: "Dental Implant"},
		{Value: "zirconium_crown", Label: "Zirconium Crown"},
		{Value: "open_sinus_lift", Label: "Open Sinus Lift"},
		{Value: "close_sinus_lift", Label: "Close Sinus Lift"},
		{Value: "veneer_lens", Label: "Veneer Lens"},
	}
)

// Tables returns every lookup table keyed by the form field it serves.
func Tables() map[string]LookupTable {
	return map[string]LookupTable{
		"currency":        Currencies,
		"language":        Languages,
		"healthCondition": HealthConditions,
		"services":        Services,
		"serviceName":     Services,
	}
}
