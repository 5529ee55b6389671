package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"bizbook-backend/internal/database"
	"bizbook-backend/internal/models"
)

type LogOptions struct {
	OrganizationID uint
	UserID         uint
	UserName       string
	EntityType     string
	EntityID       uint
	Action         models.AuditAction
	Description    string
	Before         any
	After          any
}

func WriteLog(opts LogOptions) error {
	// Postgres jsonb rejects the empty string, use the JSON null literal.
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		OrganizationID: opts.OrganizationID,
		UserID:         opts.UserID,
		UserName:       opts.UserName,
		EntityType:     opts.EntityType,
		EntityID:       opts.EntityID,
		Action:         opts.Action,
		Description:    opts.Description,
		BeforeData:     beforeStr,
		AfterData:      afterStr,
		Undone:         false,
		IsUndone:       false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("could not write audit log: %w", err)
	}

	return nil
}

// UndoLog reverses a logged mutation. Only master data (customers, suppliers,
// products) can be undone; documents carry stock and payment side effects and
// must be corrected through edits or debit notes instead.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log not found: %w", err)
	}

	if log.IsUndone {
		return fmt.Errorf("this action has already been undone")
	}

	switch log.Action {
	case models.AuditActionCreate:
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("could not delete entity: %w", err)
		}

	case models.AuditActionUpdate:
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("could not restore entity: %w", err)
		}

	case models.AuditActionDelete:
		if err := recreateEntity(log.EntityType, log.BeforeData); err != nil {
			return fmt.Errorf("could not recreate entity: %w", err)
		}

	default:
		return fmt.Errorf("this action type cannot be undone")
	}

	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("could not update audit log: %w", err)
	}

	undoLog := models.AuditLog{
		OrganizationID: log.OrganizationID,
		UserID:         userID,
		UserName:       userName,
		EntityType:     log.EntityType,
		EntityID:       log.EntityID,
		Action:         models.AuditActionUndo,
		Description:    fmt.Sprintf("Undone: %s", log.Description),
		BeforeData:     log.AfterData,
		AfterData:      log.BeforeData,
		Undone:         true,
		IsUndone:       false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("could not write undo log: %w", err)
	}

	return nil
}

func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "customer":
		return database.DB.Delete(&models.Customer{}, entityID).Error
	case "supplier":
		return database.DB.Delete(&models.Supplier{}, entityID).Error
	case "product":
		return database.DB.Delete(&models.Product{}, entityID).Error
	default:
		return fmt.Errorf("entity type %q does not support undo", entityType)
	}
}

func restoreEntity(entityType string, entityID uint, beforeData string) error {
	switch entityType {
	case "customer":
		var before models.Customer
		if err := json.Unmarshal([]byte(beforeData), &before); err != nil {
			return err
		}
		before.ID = entityID
		return database.DB.Save(&before).Error
	case "supplier":
		var before models.Supplier
		if err := json.Unmarshal([]byte(beforeData), &before); err != nil {
			return err
		}
		before.ID = entityID
		return database.DB.Save(&before).Error
	case "product":
		var before models.Product
		if err := json.Unmarshal([]byte(beforeData), &before); err != nil {
			return err
		}
		before.ID = entityID
		before.Units = nil // unit rows are managed separately
		return database.DB.Save(&before).Error
	default:
		return fmt.Errorf("entity type %q does not support undo", entityType)
	}
}

func recreateEntity(entityType string, beforeData string) error {
	switch entityType {
	case "customer":
		var before models.Customer
		if err := json.Unmarshal([]byte(beforeData), &before); err != nil {
			return err
		}
		return database.DB.Create(&before).Error
	case "supplier":
		var before models.Supplier
		if err := json.Unmarshal([]byte(beforeData), &before); err != nil {
			return err
		}
		return database.DB.Create(&before).Error
	case "product":
		var before models.Product
		if err := json.Unmarshal([]byte(beforeData), &before); err != nil {
			return err
		}
		before.Units = nil
		return database.DB.Create(&before).Error
	default:
		return fmt.Errorf("entity type %q does not support undo", entityType)
	}
}
