package form_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/medreport/form"
)

func TestNumberUnmarshal(t *testing.T) {
	cases := []struct {
		in    string
		empty bool
		want  string
	}{
		{`""`, true, ""},
		{`null`, true, ""},
		{`"NaN"`, true, ""},
		{`"  "`, true, ""},
		{`12`, false, "12"},
		{`12.50`, false, "12.5"},
		{`"7"`, false, "7"},
		{`0`, false, "0"},
	}
	for _, tc := range cases {
		var n form.Number
		require.NoError(t, json.Unmarshal([]byte(tc.in), &n), tc.in)
		assert.Equal(t, tc.empty, n.IsEmpty(), tc.in)
		assert.Equal(t, tc.want, n.String(), tc.in)
	}

	var n form.Number
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &n))
}

func TestLineTotal(t *testing.T) {
	e := form.NewServiceEntry("dental", "", form.Num(500), form.Num(2))
	total, ok := e.LineTotal()
	require.True(t, ok)
	assert.Equal(t, "1000", total.String())

	e.Quantity = form.Number{}
	_, ok = e.LineTotal()
	assert.False(t, ok)

	e = form.NewServiceEntry("dental", "", form.Number{}, form.Num(3))
	_, ok = e.LineTotal()
	assert.False(t, ok)
}

func TestVisitEditsDoNotMutate(t *testing.T) {
	a := form.NewServiceEntry("dental", "", form.Num(1), form.Num(1))
	b := form.NewServiceEntry("veneer_lens", "", form.Num(2), form.Num(1))
	require.NotEqual(t, a.ID, b.ID)

	v1 := form.Visit{}.WithEntry(a)
	v2 := v1.WithEntry(b)
	assert.Len(t, v1.ServiceEntries, 1)
	assert.Len(t, v2.ServiceEntries, 2)

	edited := b
	edited.Price = form.Num(20)
	v3 := v2.ReplaceEntry(edited)
	assert.Equal(t, "2", v2.ServiceEntries[1].Price.String())
	assert.Equal(t, "20", v3.ServiceEntries[1].Price.String())

	v4 := v3.WithoutEntry(a.ID)
	require.Len(t, v4.ServiceEntries, 1)
	assert.Equal(t, b.ID, v4.ServiceEntries[0].ID)
	assert.Len(t, v3.ServiceEntries, 2)
}

func TestVisitHasData(t *testing.T) {
	assert.False(t, form.Visit{}.HasData())
	assert.False(t, form.Visit{ServiceEntries: []form.ServiceEntry{{ID: "x"}}}.HasData())
	assert.True(t, form.Visit{VisitDate: "2024-01-01"}.HasData())
	assert.True(t, form.Visit{VisitDays: form.Num(0)}.HasData())
	assert.True(t, form.Visit{ServiceEntries: []form.ServiceEntry{{ID: "x", Quantity: form.Num(1)}}}.HasData())

	_, ok := form.SlotOf(form.Visit{}).Get()
	assert.False(t, ok)
	v, ok := form.SlotOf(form.Visit{VisitDate: "2024-01-01"}).Get()
	assert.True(t, ok)
	assert.Equal(t, "2024-01-01", v.VisitDate)
}
