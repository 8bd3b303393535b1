package models

import "time"

// DailyActivityReport aggregates one day of scheduling and stock activity
// for persistence and spreadsheet export.
type DailyActivityReport struct {
	Date                   time.Time    `bson:"date" json:"date"`
	InterventionsScheduled int          `bson:"interventions_scheduled" json:"interventions_scheduled"`
	Sorties                int          `bson:"sorties" json:"sorties"`
	Entrees                int          `bson:"entrees" json:"entrees"`
	QuantityOut            int          `bson:"quantity_out" json:"quantity_out"`
	QuantityIn             int          `bson:"quantity_in" json:"quantity_in"`
	LowStock               []StockLevel `bson:"low_stock" json:"low_stock"`
	CreatedAt              time.Time    `bson:"created_at" json:"created_at"`
}
