// Package repo implements the persistence layer of the local downstream
// employee stub. This file provides repository functions for EmployeeRecord.
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: CRUD persistence only.
//
// Error semantics:
//   - When an employee is not found, functions return ErrNotFound.
//   - Creating an employee whose id already exists returns ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-employee-gateway/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an employee with the same id already exists.
var ErrDuplicate = errors.New("duplicate")

// CreateEmployee inserts e. A UUID is assigned when e has no id.
func CreateEmployee(ctx context.Context, db *gorm.DB, e domain.Employee) (domain.Employee, error) {
	if strings.TrimSpace(e.ID) == "" {
		e = e.WithID(uuid.NewString())
	}
	rec, err := domain.NewEmployeeRecord(e)
	if err != nil {
		return domain.Employee{}, err
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Employee{}, ErrDuplicate
		}
		return domain.Employee{}, err
	}
	return e, nil
}

// ListEmployees returns all employees ordered by creation time, then id.
func ListEmployees(ctx context.Context, db *gorm.DB) ([]domain.Employee, error) {
	var rows []domain.EmployeeRecord
	if err := db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Employee, 0, len(rows))
	for _, r := range rows {
		e, err := r.Employee()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// GetEmployee fetches one employee by id, or ErrNotFound.
func GetEmployee(ctx context.Context, db *gorm.DB, id string) (domain.Employee, error) {
	var rec domain.EmployeeRecord
	err := db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Employee{}, ErrNotFound
	}
	if err != nil {
		return domain.Employee{}, err
	}
	return rec.Employee()
}

// UpdateEmployee replaces the stored document of employee id. The stored id
// is always id, whatever e carries. Returns ErrNotFound if id is unknown.
func UpdateEmployee(ctx context.Context, db *gorm.DB, id string, e domain.Employee) (domain.Employee, error) {
	e = e.WithID(id)
	rec, err := domain.NewEmployeeRecord(e)
	if err != nil {
		return domain.Employee{}, err
	}
	res := db.WithContext(ctx).
		Model(&domain.EmployeeRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"doc": rec.Doc, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return domain.Employee{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Employee{}, ErrNotFound
	}
	return e, nil
}

// DeleteEmployee removes employee id. Returns ErrNotFound if id is unknown.
func DeleteEmployee(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.EmployeeRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation recognizes primary key conflicts.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "primary key")
}
