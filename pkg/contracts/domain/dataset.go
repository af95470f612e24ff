package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// DatasetID identifies a stored dataset. IDs grow strictly with insertion order.
type DatasetID int64

// Dataset is one uploaded CSV file together with its equipment rows
type Dataset struct {
	ID        DatasetID   `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Name      string      `json:"name"`
	CreatedAt time.Time   `json:"uploaded_at"`
	Equipment []Equipment `json:"equipment"`
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	c := *d
	c.Equipment = append([]Equipment(nil), d.Equipment...)
	return &c
}

// Info returns the listing projection of the dataset
func (d *Dataset) Info() DatasetInfo {
	return DatasetInfo{
		ID:             d.ID,
		Name:           d.Name,
		CreatedAt:      d.CreatedAt,
		EquipmentCount: len(d.Equipment),
	}
}

// Equipment is a single telemetry row
type Equipment struct {
	Name        string  `json:"equipment_name"`
	Type        string  `json:"equipment_type"`
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// DatasetInfo is what the listing endpoint exposes for a dataset
type DatasetInfo struct {
	ID             DatasetID `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"uploaded_at"`
	EquipmentCount int       `json:"equipment_count"`
}

// Summary holds the aggregate figures of a dataset
type Summary struct {
	TotalCount       int              `json:"total_count"`
	AvgFlowrate      float64          `json:"avg_flowrate"`
	AvgPressure      float64          `json:"avg_pressure"`
	AvgTemperature   float64          `json:"avg_temperature"`
	TypeDistribution TypeDistribution `json:"type_distribution"`
}

// TypeCount is the number of items sharing one equipment type
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TypeDistribution lists type counts in first-seen order.
// It marshals to a JSON object whose keys keep that order.
type TypeDistribution []TypeCount

// MarshalJSON writes the distribution as an ordered JSON object
func (td TypeDistribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range td {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(tc.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an ordered JSON object back into the distribution
func (td *TypeDistribution) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	out := TypeDistribution{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var count int
		if err := dec.Decode(&count); err != nil {
			return err
		}
		out = append(out, TypeCount{Type: key, Count: count})
	}
	*td = out
	return nil
}

// Count returns the count for a type, or 0 when the type is absent
func (td TypeDistribution) Count(typ string) int {
	for _, tc := range td {
		if tc.Type == typ {
			return tc.Count
		}
	}
	return 0
}

// FieldStats are the descriptive statistics of one numeric field.
// Std is the population standard deviation.
type FieldStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Statistics groups the field statistics of a dataset
type Statistics struct {
	Flowrate    FieldStats `json:"flowrate"`
	Pressure    FieldStats `json:"pressure"`
	Temperature FieldStats `json:"temperature"`
}
