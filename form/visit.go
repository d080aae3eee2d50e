package form

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceEntry is one billable line item within a visit.
type ServiceEntry struct {
	ID          string `json:"id"`
	ServiceName string `json:"serviceName"`
	ServiceType string `json:"serviceType"`
	Price       Number `json:"price"`
	Quantity    Number `json:"quantity"`
}

// NewServiceEntry returns an entry with a freshly issued id.
func NewServiceEntry(name, serviceType string, price, quantity Number) ServiceEntry {
	return ServiceEntry{
		ID:          uuid.NewString(),
		ServiceName: name,
		ServiceType: serviceType,
		Price:       price,
		Quantity:    quantity,
	}
}

// LineTotal returns price × quantity. ok is false when either operand is
// empty.
func (e ServiceEntry) LineTotal() (total decimal.Decimal, ok bool) {
	if e.Price.IsEmpty() || e.Quantity.IsEmpty() {
		return decimal.Zero, false
	}
	return e.Price.Decimal.Mul(e.Quantity.Decimal), true
}

// HasData reports whether any field other than the id carries a value.
func (e ServiceEntry) HasData() bool {
	return e.ServiceName != "" || e.ServiceType != "" ||
		!e.Price.IsEmpty() || !e.Quantity.IsEmpty()
}

// Visit is one scheduled patient encounter.
type Visit struct {
	VisitDate      string         `json:"visitDate"`
	VisitDays      Number         `json:"visitDays"`
	ServiceEntries []ServiceEntry `json:"serviceEntries"`
}

// HasData reports whether the visit carries a date, a day count, or any
// entry with a non-empty field.
func (v Visit) HasData() bool {
	if v.VisitDate != "" || !v.VisitDays.IsEmpty() {
		return true
	}
	for _, e := range v.ServiceEntries {
		if e.HasData() {
			return true
		}
	}
	return false
}

// Subtotal sums the line totals of entries with both operands present.
func (v Visit) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range v.ServiceEntries {
		if t, ok := e.LineTotal(); ok {
			sum = sum.Add(t)
		}
	}
	return sum
}

// WithEntry returns a copy of v with e appended.
func (v Visit) WithEntry(e ServiceEntry) Visit {
	entries := make([]ServiceEntry, 0, len(v.ServiceEntries)+1)
	entries = append(entries, v.ServiceEntries...)
	v.ServiceEntries = append(entries, e)
	return v
}

// WithoutEntry returns a copy of v without the entry carrying id.
func (v Visit) WithoutEntry(id string) Visit {
	entries := make([]ServiceEntry, 0, len(v.ServiceEntries))
	for _, e := range v.ServiceEntries {
		if e.ID != id {
			entries = append(entries, e)
		}
	}
	v.ServiceEntries = entries
	return v
}

// ReplaceEntry returns a copy of v where the entry with e.ID is replaced by e.
// The visit is returned unchanged when no entry matches.
func (v Visit) ReplaceEntry(e ServiceEntry) Visit {
	entries := make([]ServiceEntry, len(v.ServiceEntries))
	copy(entries, v.ServiceEntries)
	for i := range entries {
		if entries[i].ID == e.ID {
			entries[i] = e
		}
	}
	v.ServiceEntries = entries
	return v
}

// VisitSlot holds an optional visit: either absent or present with data.
// Presence is derived from the visit's contents when the slot is built.
type VisitSlot struct {
	visit   Visit
	present bool
}

// SlotOf wraps v, marking the slot present when v carries any data.
func SlotOf(v Visit) VisitSlot {
	return VisitSlot{visit: v, present: v.HasData()}
}

// Get returns the visit and whether it is present.
func (s VisitSlot) Get() (Visit, bool) {
	return s.visit, s.present
}

// Present reports whether the slot holds a visit.
func (s VisitSlot) Present() bool {
	return s.present
}

// UnmarshalJSON decodes a visit object and derives presence from it.
func (s *VisitSlot) UnmarshalJSON(b []byte) error {
	var v Visit
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*s = SlotOf(v)
	return nil
}

// MarshalJSON writes the visit; an absent slot is written as an empty visit.
func (s VisitSlot) MarshalJSON() ([]byte, error) {
	if !s.present {
		return json.Marshal(Visit{ServiceEntries: []ServiceEntry{}})
	}
	return json.Marshal(s.visit)
}
