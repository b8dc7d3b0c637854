package repository

import (
	"context"
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"linecheck/internal/model"
)

// AuditRepository writes fire-and-forget audit trail rows. Write failures are
// logged and never propagated to the triggering operation.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record persists one audit entry. details may be nil.
func (r *AuditRepository) Record(ctx context.Context, action, resourceType string, resourceID, actorID uint, details any) {
	record := model.AuditRecord{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ActorID:      actorID,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			log.Printf("[warn] marshal audit details for %s: %v", action, err)
		} else {
			record.Details = string(raw)
		}
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		log.Printf("[warn] write audit %s: %v", action, err)
	}
}

// ListByAction returns recent audit rows for an action, newest first.
func (r *AuditRepository) ListByAction(ctx context.Context, action string, limit int) ([]model.AuditRecord, error) {
	var records []model.AuditRecord
	if err := r.db.WithContext(ctx).Where("action = ?", action).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
