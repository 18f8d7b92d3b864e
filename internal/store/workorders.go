package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/woimport/internal/core"
)

var _ core.PersistenceSink = (*WorkOrderSink)(nil)

// WorkOrderSink inserts canonical records into the work_orders table.
type WorkOrderSink struct {
	db DBTX
}

// NewWorkOrderSink creates a sink backed by db.
func NewWorkOrderSink(db DBTX) *WorkOrderSink {
	return &WorkOrderSink{db: db}
}

// Insert stores one work order. A record whose customer work order ID already
// exists in the project is rejected with ErrDuplicateWorkOrder.
func (w *WorkOrderSink) Insert(ctx context.Context, projectID string, rec core.CanonicalRecord) error {
	query := `INSERT INTO work_orders (
		id, project_id, customer_wo_id, customer_id, customer_name, address,
		city, state, zip_code, phone, email, service_type, route, zone,
		meter_number, meter_size, meter_type, meter_make, meter_location,
		old_meter_number, old_meter_reading, new_meter_number, new_meter_reading,
		latitude, longitude, scheduled_date, due_date, priority, notes
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
	)`

	_, err := w.db.Exec(ctx, query,
		uuid.New(), projectID, rec.CustomerWoID, rec.CustomerID, rec.CustomerName, rec.Address,
		ToPgText(rec.City), ToPgText(rec.State), ToPgText(rec.ZipCode), ToPgText(rec.Phone), ToPgText(rec.Email),
		rec.ServiceType, ToPgText(rec.Route), ToPgText(rec.Zone),
		ToPgText(rec.MeterNumber), ToPgText(rec.MeterSize), ToPgText(rec.MeterType), ToPgText(rec.MeterMake), ToPgText(rec.MeterLocation),
		ToPgText(rec.OldMeterNumber), ToPgInt8(rec.OldMeterReading), ToPgText(rec.NewMeterNumber), ToPgInt8(rec.NewMeterReading),
		ToPgText(rec.Latitude), ToPgText(rec.Longitude), ToPgDate(rec.ScheduledDate), ToPgDate(rec.DueDate),
		ToPgText(rec.Priority), ToPgText(rec.Notes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("work order %s: %w", rec.CustomerWoID, ErrDuplicateWorkOrder)
		}
		return fmt.Errorf("insert work order %s: %w", rec.CustomerWoID, err)
	}
	return nil
}
