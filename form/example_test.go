package form_test

import (
	"fmt"
	"strings"

	"github.com/lvillar/medreport/form"
)

// ExampleDecode shows decoding a submitted form and reading the derived
// second-visit presence.
func ExampleDecode() {
	data, err := form.Decode(strings.NewReader(`{
		"patientName": "John Doe",
		"currency": "EUR",
		"firstVisit": {"visitDate": "2024-01-20", "visitDays": 2, "serviceEntries": [
			{"id": "1", "serviceName": "dental", "serviceType": "", "price": 250, "quantity": 2}
		]},
		"secondVisit": {"visitDate": "", "visitDays": "", "serviceEntries": []}
	}`))
	if err != nil {
		fmt.Println(err)
		return
	}
	_, hasSecond := data.SecondVisit.Get()
	fmt.Println(form.Currencies.Label(data.Currency))
	fmt.Println(hasSecond)
	fmt.Println(data.GrandTotal())
	// Output:
	// Euro (€)
	// false
	// 500
}
