package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/membership_backend/config"
	"gorm.io/gorm"
)

// UploadLog records one spreadsheet-import operation: counts, serialized row errors
// and the set of invoices it created. Deleting a log cascades to its invoices and
// their accruals but never touches members.
type UploadLog struct {
	ID           int          `gorm:"primary_key" json:"id"`
	BatchId      string       `gorm:"index;size:36" json:"batch_id"`
	FileName     string       `gorm:"size:255;not null" json:"file_name"`
	UploadMonth  string       `gorm:"index;size:7;not null" json:"upload_month"`
	RecordsCount int          `json:"records_count"`
	SuccessCount int          `json:"success_count"`
	FailedCount  int          `json:"failed_count"`
	Status       UploadStatus `gorm:"size:30;not null" json:"status"`
	Errors       *string      `gorm:"type:text" json:"errors"`
	UserId       int          `gorm:"index" json:"user_id"`
	Invoices     []Invoice    `gorm:"foreignKey:UploadLogId" json:"-"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

type UploadLogWithCounts struct {
	UploadLog
	InvoiceCount int `json:"invoice_count"`
	AccrualCount int `json:"accrual_count"`
}

func GetUploadLogs(ctx context.Context, page int, limit int) ([]*UploadLogWithCounts, int64, error) {
	db := config.GetDB()

	var total int64
	if err := db.WithContext(ctx).Model(&UploadLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []*UploadLogWithCounts
	err := db.WithContext(ctx).Model(&UploadLog{}).
		Select(`upload_logs.*,
			(SELECT COUNT(*) FROM invoices WHERE invoices.upload_log_id = upload_logs.id) AS invoice_count,
			(SELECT COUNT(*) FROM accruals WHERE accruals.invoice_id IN
				(SELECT id FROM invoices WHERE invoices.upload_log_id = upload_logs.id)) AS accrual_count`).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

type DeletedUploadCounts struct {
	Accruals  int64 `json:"accruals"`
	Invoices  int64 `json:"invoices"`
	UploadLog int64 `json:"upload_log"`
}

// DeleteUploadLog removes a batch and everything it produced, in FK order:
// accruals, then invoices, then the log itself. Member records stay even when
// their last invoice goes.
func DeleteUploadLog(ctx context.Context, id int) (*DeletedUploadCounts, error) {
	db := config.GetDB()

	var uploadLog UploadLog
	if err := db.WithContext(ctx).First(&uploadLog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}

	counts := DeletedUploadCounts{UploadLog: 1}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoiceIds []int
		if err := tx.Model(&Invoice{}).Where("upload_log_id = ?", id).Pluck("id", &invoiceIds).Error; err != nil {
			return err
		}

		if len(invoiceIds) > 0 {
			res := tx.Where("invoice_id IN ?", invoiceIds).Delete(&Accrual{})
			if res.Error != nil {
				return res.Error
			}
			counts.Accruals = res.RowsAffected

			res = tx.Where("upload_log_id = ?", id).Delete(&Invoice{})
			if res.Error != nil {
				return res.Error
			}
			counts.Invoices = res.RowsAffected
		}

		return tx.Delete(&UploadLog{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	return &counts, nil
}

var ErrUploadNotFound = errors.New("upload not found")
