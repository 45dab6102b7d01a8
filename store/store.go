package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/gzizouseif24/xero-automation/payroll"
	v1 "github.com/gzizouseif24/xero-automation/xero/v1"
)

// SubmissionRow is the persisted ledger of submission attempts. The unique
// idempotency key makes replays visible: a second run over the same employee
// and period updates the existing row instead of inserting a duplicate.
type SubmissionRow struct {
	ID             uint      `gorm:"primaryKey"`
	RunID          string    `gorm:"size:64;index"`
	EmployeeID     string    `gorm:"size:64;index"`
	EmployeeName   string    `gorm:"size:255"`
	IdempotencyKey string    `gorm:"size:64;uniqueIndex"`
	DryRun         bool
	Outcome        string    `gorm:"size:32"`
	XeroID         string    `gorm:"size:64"`
	Errors         string    `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SavedPayloadRow holds a manually prepared payload that takes precedence
// over a freshly built one during real submission.
type SavedPayloadRow struct {
	ID         uint      `gorm:"primaryKey"`
	EmployeeID string    `gorm:"size:64;uniqueIndex"`
	Payload    string    `gorm:"type:mediumtext"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NameOverrideRow records a confirmed or rejected employee name match.
// An empty XeroID means the suggestion was rejected.
type NameOverrideRow struct {
	ID        uint      `gorm:"primaryKey"`
	RawName   string    `gorm:"size:255;uniqueIndex"`
	XeroID    string    `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store wraps the MySQL state shared between runs.
type Store struct {
	db *gorm.DB
}

// New opens the pool and migrates the schema.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&SubmissionRow{}, &SavedPayloadRow{}, &NameOverrideRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already opened gorm handle. Used by tests.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordSubmission upserts one employee's outcome, keyed by idempotency key.
func (s *Store) RecordSubmission(ctx context.Context, runID string, dryRun bool, rec payroll.SubmissionRecord) error {
	errText, err := json.Marshal(rec.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	row := SubmissionRow{
		RunID:          runID,
		EmployeeID:     rec.EmployeeID,
		EmployeeName:   rec.EmployeeName,
		IdempotencyKey: rec.IdempotencyKey,
		DryRun:         dryRun,
		Outcome:        string(rec.Outcome),
		XeroID:         rec.ExternalID,
		Errors:         string(errText),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"run_id", "dry_run", "outcome", "xero_id", "errors", "updated_at"}),
		}).
		Create(&row).Error
}

// RecordRun persists every record of a finished run.
func (s *Store) RecordRun(ctx context.Context, result payroll.RunResult) error {
	for _, rec := range result.Records {
		if rec.IdempotencyKey == "" {
			continue
		}
		if err := s.RecordSubmission(ctx, result.RunID, result.DryRun, rec); err != nil {
			return err
		}
	}
	return nil
}

// RunRecords returns the ledger rows of one run, newest first.
func (s *Store) RunRecords(ctx context.Context, runID string) ([]SubmissionRow, error) {
	var rows []SubmissionRow
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("updated_at DESC").
		Find(&rows).Error
	return rows, err
}

// SavePayload stores a manually prepared payload for an employee, replacing
// any previous one.
func (s *Store) SavePayload(ctx context.Context, employeeID string, payload *v1.TimesheetPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	row := SavedPayloadRow{EmployeeID: employeeID, Payload: string(data)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

// SavedPayload implements payroll.PayloadStore.
func (s *Store) SavedPayload(ctx context.Context, employeeID string) (*v1.TimesheetPayload, bool, error) {
	var row SavedPayloadRow
	err := s.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var payload v1.TimesheetPayload
	if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
		return nil, false, fmt.Errorf("unmarshal saved payload: %w", err)
	}
	return &payload, true, nil
}

// DeletePayload removes an employee's saved payload, if any.
func (s *Store) DeletePayload(ctx context.Context, employeeID string) error {
	return s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Delete(&SavedPayloadRow{}).Error
}

// SaveOverride records a match decision for a raw name. Passing an empty
// xeroID marks the suggestion as rejected.
func (s *Store) SaveOverride(ctx context.Context, rawName, xeroID string) error {
	row := NameOverrideRow{RawName: rawName, XeroID: xeroID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "raw_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"xero_id", "updated_at"}),
		}).
		Create(&row).Error
}

// DeleteOverride forgets a match decision entirely, returning the raw name
// to normal fuzzy resolution on the next run.
func (s *Store) DeleteOverride(ctx context.Context, rawName string) error {
	return s.db.WithContext(ctx).
		Where("raw_name = ?", rawName).
		Delete(&NameOverrideRow{}).Error
}

// Overrides loads the full override map consumed by the resolver.
func (s *Store) Overrides(ctx context.Context) (map[string]string, error) {
	var rows []NameOverrideRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	overrides := make(map[string]string, len(rows))
	for _, row := range rows {
		overrides[row.RawName] = row.XeroID
	}
	return overrides, nil
}
