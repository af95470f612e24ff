package testutil

import (
	"fmt"
	"strings"

	"flowpulse/pkg/contracts/domain"
)

// CSVHeader is the canonical upload header
const CSVHeader = "Equipment Name,Type,Flowrate,Pressure,Temperature"

// SampleEquipment returns a small mixed dataset
func SampleEquipment() []domain.Equipment {
	return []domain.Equipment{
		{Name: "Pump-1", Type: "Pump", Flowrate: 120.5, Pressure: 5.2, Temperature: 110.0},
		{Name: "Valve-1", Type: "Valve", Flowrate: 60.0, Pressure: 4.1, Temperature: 95.0},
		{Name: "Pump-2", Type: "Pump", Flowrate: 130.0, Pressure: 6.0, Temperature: 115.0},
		{Name: "Compressor-1", Type: "Compressor", Flowrate: 200.0, Pressure: 8.5, Temperature: 130.0},
	}
}

// EquipmentCSV renders rows as an upload body under the canonical header
func EquipmentCSV(rows ...domain.Equipment) []byte {
	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,%g,%g,%g\n", r.Name, r.Type, r.Flowrate, r.Pressure, r.Temperature)
	}
	return []byte(b.String())
}
