package core

// catalog.go defines the canonical work-order fields and their synonyms.
//
// The catalog is pure data. Its order is the matching priority used by
// AutoMap, so fields whose synonyms are substrings of other fields' headers
// (e.g. "new meter" inside "new meter reading") are listed after the more
// specific field.

import "strconv"

// CanonicalField is one of the fixed work-order attributes every import
// normalizes into.
type CanonicalField string

const (
	FieldCustomerWoID    CanonicalField = "customerWoId"
	FieldCustomerID      CanonicalField = "customerId"
	FieldCustomerName    CanonicalField = "customerName"
	FieldAddress         CanonicalField = "address"
	FieldCity            CanonicalField = "city"
	FieldState           CanonicalField = "state"
	FieldZipCode         CanonicalField = "zipCode"
	FieldPhone           CanonicalField = "phone"
	FieldEmail           CanonicalField = "email"
	FieldServiceType     CanonicalField = "serviceType"
	FieldRoute           CanonicalField = "route"
	FieldZone            CanonicalField = "zone"
	FieldMeterNumber     CanonicalField = "meterNumber"
	FieldMeterSize       CanonicalField = "meterSize"
	FieldMeterType       CanonicalField = "meterType"
	FieldMeterMake       CanonicalField = "meterMake"
	FieldMeterLocation   CanonicalField = "meterLocation"
	FieldOldMeterNumber  CanonicalField = "oldMeterNumber"
	FieldOldMeterReading CanonicalField = "oldMeterReading"
	FieldNewMeterNumber  CanonicalField = "newMeterNumber"
	FieldNewMeterReading CanonicalField = "newMeterReading"
	FieldLatitude        CanonicalField = "latitude"
	FieldLongitude       CanonicalField = "longitude"
	FieldScheduledDate   CanonicalField = "scheduledDate"
	FieldDueDate         CanonicalField = "dueDate"
	FieldPriority        CanonicalField = "priority"
	FieldNotes           CanonicalField = "notes"
)

// FieldDef describes one catalog entry.
type FieldDef struct {
	Field    CanonicalField
	Label    string   // Display name
	Required bool     // Record is rejected without a value
	Numeric  bool     // Parsed as a decimal integer
	Synonyms []string // Lowercase, matched in order
}

// catalog is the authoritative field list in matching priority order.
var catalog = []FieldDef{
	{Field: FieldCustomerWoID, Label: "Work Order ID", Required: true, Synonyms: []string{
		"customer wo id", "customer_wo_id", "work order id", "work order number", "work order #",
		"workorder id", "workorder", "wo id", "wo_id", "wo number", "wo #", "work order",
	}},
	{Field: FieldOldMeterReading, Label: "Old Meter Reading", Numeric: true, Synonyms: []string{
		"old meter reading", "old reading", "old read", "previous reading", "prior reading", "removal reading",
	}},
	{Field: FieldNewMeterReading, Label: "New Meter Reading", Numeric: true, Synonyms: []string{
		"new meter reading", "new reading", "new read", "install reading",
	}},
	{Field: FieldOldMeterNumber, Label: "Old Meter Number", Synonyms: []string{
		"old meter number", "old meter #", "old meter no", "old meter serial", "removed meter", "old meter",
	}},
	{Field: FieldNewMeterNumber, Label: "New Meter Number", Synonyms: []string{
		"new meter number", "new meter #", "new meter no", "new meter serial", "new meter",
	}},
	{Field: FieldCustomerID, Label: "Customer ID", Required: true, Synonyms: []string{
		"customer id", "customer_id", "cust id", "customer number", "customer #", "customer no",
		"account id", "account number", "account #", "acct",
	}},
	{Field: FieldEmail, Label: "Email", Synonyms: []string{"email", "e-mail"}},
	{Field: FieldPhone, Label: "Phone", Synonyms: []string{"phone", "telephone", "mobile", "cell"}},
	{Field: FieldAddress, Label: "Address", Required: true, Synonyms: []string{
		"service address", "street address", "address", "street", "addr",
	}},
	{Field: FieldCity, Label: "City", Synonyms: []string{"city", "town"}},
	{Field: FieldState, Label: "State", Synonyms: []string{"state", "province"}},
	{Field: FieldZipCode, Label: "Zip Code", Synonyms: []string{"zip code", "zip", "postal code", "postcode"}},
	{Field: FieldCustomerName, Label: "Customer Name", Required: true, Synonyms: []string{
		"customer name", "customer_name", "cust name", "account name", "full name", "name", "customer",
	}},
	{Field: FieldMeterSize, Label: "Meter Size", Synonyms: []string{"meter size", "size"}},
	{Field: FieldMeterType, Label: "Meter Type", Synonyms: []string{"meter type"}},
	{Field: FieldMeterMake, Label: "Meter Make", Synonyms: []string{"meter make", "manufacturer", "make"}},
	{Field: FieldMeterLocation, Label: "Meter Location", Synonyms: []string{"meter location", "location"}},
	{Field: FieldMeterNumber, Label: "Meter Number", Synonyms: []string{
		"meter number", "meter #", "meter no", "meter serial", "serial number", "meter id", "meter",
	}},
	{Field: FieldServiceType, Label: "Service Type", Required: true, Synonyms: []string{
		"service type", "work type", "job type", "order type", "service", "type",
	}},
	{Field: FieldRoute, Label: "Route", Synonyms: []string{"route", "cycle"}},
	{Field: FieldZone, Label: "Zone", Synonyms: []string{"zone", "district", "area"}},
	{Field: FieldLatitude, Label: "Latitude", Synonyms: []string{"latitude", "lat"}},
	{Field: FieldLongitude, Label: "Longitude", Synonyms: []string{"longitude", "lng", "lon"}},
	{Field: FieldScheduledDate, Label: "Scheduled Date", Synonyms: []string{
		"scheduled date", "schedule date", "appointment", "install date", "scheduled",
	}},
	{Field: FieldDueDate, Label: "Due Date", Synonyms: []string{"due date", "due by", "deadline"}},
	{Field: FieldPriority, Label: "Priority", Synonyms: []string{"priority", "urgency"}},
	{Field: FieldNotes, Label: "Notes", Synonyms: []string{
		"notes", "note", "comments", "comment", "instructions", "remarks",
	}},
}

// Catalog returns the field definitions in matching priority order.
func Catalog() []FieldDef {
	out := make([]FieldDef, len(catalog))
	copy(out, catalog)
	return out
}

// RequiredFields returns the required fields in catalog order.
func RequiredFields() []CanonicalField {
	var out []CanonicalField
	for _, def := range catalog {
		if def.Required {
			out = append(out, def.Field)
		}
	}
	return out
}

// LookupField returns the definition for f.
func LookupField(f CanonicalField) (FieldDef, bool) {
	for _, def := range catalog {
		if def.Field == f {
			return def, true
		}
	}
	return FieldDef{}, false
}

// Value returns the string form of f on the record, or "" when unset.
func (r *CanonicalRecord) Value(f CanonicalField) string {
	switch f {
	case FieldOldMeterReading:
		return formatReading(r.OldMeterReading)
	case FieldNewMeterReading:
		return formatReading(r.NewMeterReading)
	}
	if p := r.text(f); p != nil {
		return *p
	}
	return ""
}

// text returns a pointer to the string field for f, or nil for numeric or
// unknown fields.
func (r *CanonicalRecord) text(f CanonicalField) *string {
	switch f {
	case FieldCustomerWoID:
		return &r.CustomerWoID
	case FieldCustomerID:
		return &r.CustomerID
	case FieldCustomerName:
		return &r.CustomerName
	case FieldAddress:
		return &r.Address
	case FieldCity:
		return &r.City
	case FieldState:
		return &r.State
	case FieldZipCode:
		return &r.ZipCode
	case FieldPhone:
		return &r.Phone
	case FieldEmail:
		return &r.Email
	case FieldServiceType:
		return &r.ServiceType
	case FieldRoute:
		return &r.Route
	case FieldZone:
		return &r.Zone
	case FieldMeterNumber:
		return &r.MeterNumber
	case FieldMeterSize:
		return &r.MeterSize
	case FieldMeterType:
		return &r.MeterType
	case FieldMeterMake:
		return &r.MeterMake
	case FieldMeterLocation:
		return &r.MeterLocation
	case FieldOldMeterNumber:
		return &r.OldMeterNumber
	case FieldNewMeterNumber:
		return &r.NewMeterNumber
	case FieldLatitude:
		return &r.Latitude
	case FieldLongitude:
		return &r.Longitude
	case FieldScheduledDate:
		return &r.ScheduledDate
	case FieldDueDate:
		return &r.DueDate
	case FieldPriority:
		return &r.Priority
	case FieldNotes:
		return &r.Notes
	}
	return nil
}

func formatReading(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
