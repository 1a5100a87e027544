package domain

import (
	"encoding/json"
	"time"
)

// EmployeeRecord is the persistence row used by the local downstream stub.
// The full employee document is kept as JSON text so that attributes the
// stub knows nothing about survive storage unchanged.
//
// Fields:
//   - ID: employee identifier (primary key).
//   - Doc: the JSON-encoded employee, including its "id".
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type EmployeeRecord struct {
	ID        string    `gorm:"type:varchar(128);primaryKey"`
	Doc       string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName returns the database table name for EmployeeRecord.
func (EmployeeRecord) TableName() string { return "employees" }

// Employee decodes the stored document.
func (r EmployeeRecord) Employee() (Employee, error) {
	var e Employee
	if err := json.Unmarshal([]byte(r.Doc), &e); err != nil {
		return Employee{}, err
	}
	return e.WithID(r.ID), nil
}

// NewEmployeeRecord encodes e for storage.
func NewEmployeeRecord(e Employee) (EmployeeRecord, error) {
	doc, err := json.Marshal(e)
	if err != nil {
		return EmployeeRecord{}, err
	}
	return EmployeeRecord{ID: e.ID, Doc: string(doc)}, nil
}
