package form_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/medreport/form"
)

const sampleJSON = `{
	"consultantName": "Dr. A",
	"patientName": "John Doe",
	"phoneNumber": "+90 555 000 0000",
	"patientId": "P-1",
	"entryDate": "2024-01-15",
	"age": 42,
	"currency": "USD",
	"language": "english",
	"healthCondition": "good",
	"services": "dental",
	"firstVisit": {
		"visitDate": "2024-01-20",
		"visitDays": "3",
		"serviceEntries": [
			{"id": "a", "serviceName": "dental_implant", "serviceType": "", "price": 500, "quantity": 2}
		]
	},
	"secondVisit": {"visitDate": "", "visitDays": "", "serviceEntries": []},
	"medicalNotes": "none"
}`

func TestDecode(t *testing.T) {
	data, err := form.Decode(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, "John Doe", data.PatientName)
	assert.Equal(t, "42", data.Age.String())
	assert.Equal(t, "3", data.FirstVisit.VisitDays.String())
	require.Len(t, data.FirstVisit.ServiceEntries, 1)
	assert.Equal(t, "500", data.FirstVisit.ServiceEntries[0].Price.String())
	assert.False(t, data.SecondVisit.Present())
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := form.Decode(strings.NewReader(`{"patientName": "x", "favouriteColour": "red"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "favouriteColour")

	_, err = form.Decode(strings.NewReader(`{"secondVisit": {"visitDate": "2024-01-01", "extra": 1}}`))
	require.Error(t, err)
}

func TestDecodeSecondVisitPresence(t *testing.T) {
	cases := []struct {
		name    string
		visit   string
		present bool
	}{
		{"missing", ``, false},
		{"null", `"secondVisit": null`, false},
		{"all empty", `"secondVisit": {"visitDate": "", "visitDays": "", "serviceEntries": [{"id": "x", "serviceName": "", "serviceType": "", "price": "", "quantity": ""}]}`, false},
		{"date only", `"secondVisit": {"visitDate": "2024-02-01"}`, true},
		{"days only", `"secondVisit": {"visitDays": 2}`, true},
		{"entry type only", `"secondVisit": {"serviceEntries": [{"id": "x", "serviceType": "crown"}]}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := form.Decode(strings.NewReader("{" + tc.visit + "}"))
			require.NoError(t, err)
			assert.Equal(t, tc.present, data.SecondVisit.Present())
		})
	}
}

func TestGrandTotal(t *testing.T) {
	first := form.Visit{}.
		WithEntry(form.NewServiceEntry("dental", "", form.Num(500), form.Num(2))).
		WithEntry(form.NewServiceEntry("veneer_lens", "", form.Num(100), form.Number{}))
	second := form.Visit{VisitDate: "2024-03-01"}.
		WithEntry(form.NewServiceEntry("dental", "", form.NumFloat(12.5), form.Num(4)))

	data := form.FormData{FirstVisit: first, SecondVisit: form.SlotOf(second)}
	assert.Equal(t, "1050", data.GrandTotal().String())

	data.SecondVisit = form.SlotOf(form.Visit{})
	assert.Equal(t, "1000", data.GrandTotal().String())
}

func TestLookupTables(t *testing.T) {
	assert.Equal(t, "Euro (€)", form.Currencies.Label("EUR"))
	assert.Equal(t, "XXX", form.Currencies.Label("XXX"))
	assert.Equal(t, "Dental Implant", form.Services.Label("dental_implant"))
	assert.Equal(t, "Requires medical report", form.HealthConditions.Label("requires_report"))
	assert.True(t, form.Languages.Has("turkish"))
	assert.False(t, form.Languages.Has("klingon"))
}

func TestDisplayValue(t *testing.T) {
	data := form.FormData{Currency: "GBP", PatientName: "Jane", Age: form.Num(30)}
	byName := map[string]form.Field{}
	for _, f := range form.PersonalFields {
		byName[f.Name] = f
	}
	assert.Equal(t, "British Pound (£)", data.DisplayValue(byName["currency"]))
	assert.Equal(t, "Jane", data.DisplayValue(byName["patientName"]))
	assert.Equal(t, "30", data.DisplayValue(byName["age"]))
	assert.Equal(t, "", data.DisplayValue(byName["language"]))
}

func TestMarshalRoundTripKeepsAbsentSlot(t *testing.T) {
	data, err := form.Decode(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	out, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"secondVisit":{"visitDate":"","visitDays":"","serviceEntries":[]}`)

	again, err := form.Decode(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.False(t, again.SecondVisit.Present())
	assert.Equal(t, data.GrandTotal().String(), again.GrandTotal().String())
}
