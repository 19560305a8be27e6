// Package audit is the append-only event sink every protected handler
// writes to on both success and failure paths.
package audit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gms_backend/pkg/models"
)

// Recorder appends audit events
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder on the given handle
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one event. A failed write never fails the request that
// produced it; the error is logged and swallowed.
func (r *Recorder) Record(actor, action, eventTag string, resultCode int) {
	event := models.AuditLog{
		Actor:      actor,
		Action:     action,
		EventTag:   eventTag,
		ResultCode: resultCode,
	}
	if err := r.db.Create(&event).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"actor":  actor,
			"tag":    eventTag,
			"result": resultCode,
		}).WithError(err).Error("failed to record audit event")
	}
}

// List returns events in a created-at window, newest first
func (r *Recorder) List(from, to time.Time, limit int) ([]models.AuditLog, error) {
	var events []models.AuditLog
	q := r.db.Where("created_at >= ? AND created_at <= ?", from, to).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

// ExportCSV renders events as CSV for the audit viewer download
func ExportCSV(events []models.AuditLog) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Actor", "Action", "EventTag", "ResultCode", "CreatedAt"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write CSV header: %w", err)
	}

	for _, e := range events {
		row := []string{
			strconv.Itoa(e.ID),
			e.Actor,
			e.Action,
			e.EventTag,
			strconv.Itoa(e.ResultCode),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer: %w", err)
	}
	return buf.Bytes(), nil
}
