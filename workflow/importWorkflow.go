package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/membership_backend/config"
	"github.com/mmdatafocus/membership_backend/ingest"
	"github.com/mmdatafocus/membership_backend/models"
	"github.com/mmdatafocus/membership_backend/utils"
	"gorm.io/gorm"
)

// ImportResult summarizes one import run. Errors contains the validation errors
// that arrived with the batch plus any per-row persistence failures appended
// under the "System" field.
type ImportResult struct {
	SuccessCount int                      `json:"successCount"`
	FailedCount  int                      `json:"failedCount"`
	Errors       []ingest.ValidationError `json:"errors"`
	UploadLog    *models.UploadLog        `json:"uploadLog"`
}

// ImportInvoices persists every draft: member upsert, invoice row and its accrual
// schedule form one transaction per draft, so a failure loses only that row and
// the loop continues. The upload log is written last and back-linked onto the
// created invoices; an interrupted run therefore leaves no log record, only the
// rows already committed.
func ImportInvoices(ctx context.Context, drafts []*ingest.InvoiceDraft, rowErrors []ingest.ValidationError, fileName string, uploadMonth string, totalRows int) (*ImportResult, error) {
	db := config.GetDB()
	logger := config.GetLogger()
	now := time.Now().UTC()

	result := &ImportResult{Errors: rowErrors}

	var createdIds []int
	for _, draft := range drafts {
		invoiceId, err := importOne(ctx, db, draft, uploadMonth, now)
		if err != nil {
			config.LogError(logger, "importWorkflow.go", "ImportInvoices", "importOne "+draft.InvoiceNo, nil, err)
			result.FailedCount++
			result.Errors = append(result.Errors, ingest.ValidationError{
				Row:     0,
				Field:   "System",
				Message: fmt.Sprintf("Failed to import invoice %s: %v", draft.InvoiceNo, err),
			})
			continue
		}
		result.SuccessCount++
		createdIds = append(createdIds, invoiceId)
	}

	status := models.UploadStatusCompleted
	if result.FailedCount > 0 || len(result.Errors) > 0 {
		status = models.UploadStatusCompletedWithErrors
	}

	var serializedErrors *string
	if len(result.Errors) > 0 {
		encoded, err := json.Marshal(result.Errors)
		if err != nil {
			return nil, fmt.Errorf("serialize row errors: %w", err)
		}
		serializedErrors = utils.NilIfEmpty(string(encoded))
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	uploadLog := &models.UploadLog{
		BatchId:      uuid.NewString(),
		FileName:     fileName,
		UploadMonth:  uploadMonth,
		RecordsCount: totalRows,
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
		Status:       status,
		Errors:       serializedErrors,
		UserId:       userId,
	}
	if err := db.WithContext(ctx).Create(uploadLog).Error; err != nil {
		return nil, fmt.Errorf("create upload log: %w", err)
	}

	if len(createdIds) > 0 {
		err := db.WithContext(ctx).Model(&models.Invoice{}).
			Where("id IN ?", createdIds).
			Update("upload_log_id", uploadLog.ID).Error
		if err != nil {
			return nil, fmt.Errorf("link invoices to upload log: %w", err)
		}
	}

	result.UploadLog = uploadLog
	return result, nil
}

func importOne(ctx context.Context, db *gorm.DB, draft *ingest.InvoiceDraft, uploadMonth string, now time.Time) (int, error) {
	var invoiceId int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := upsertMember(ctx, tx, draft, now)
		if err != nil {
			return err
		}

		invoice := invoiceFromDraft(draft, member.ID, uploadMonth)
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}

		if accruals := models.BuildAccrualSchedule(invoice); len(accruals) > 0 {
			if err := tx.Create(&accruals).Error; err != nil {
				return err
			}
		}

		invoiceId = invoice.ID
		return nil
	})
	return invoiceId, err
}

// upsertMember reconciles the draft against member state keyed by global id.
// Existing field values are only overwritten by non-empty draft values, and the
// status is recomputed on every upsert because time alone can expire a member.
func upsertMember(ctx context.Context, tx *gorm.DB, draft *ingest.InvoiceDraft, now time.Time) (*models.Member, error) {
	member, err := models.GetMemberByGlobalId(ctx, tx, draft.GlobalId)
	if err != nil {
		return nil, err
	}

	billingCycle := utils.NilIfEmpty(draft.BillingCycle)

	if member == nil {
		member = &models.Member{
			GlobalId:            draft.GlobalId,
			Name:                draft.Name,
			Email:               draft.Email,
			State:               draft.State,
			Product:             draft.Product,
			MembershipType:      billingCycle,
			MembershipStartDate: draft.MembershipStartDate,
			MembershipEndDate:   draft.MembershipEndDate,
			PaymentStartDate:    draft.PaymentStartDate,
			PaymentEndDate:      draft.PaymentEndDate,
			Registration:        draft.Registration,
			Status:              models.DetermineMemberStatus(draft.MembershipEndDate, draft.RenewalType, now),
		}
		if err := tx.Create(member).Error; err != nil {
			return nil, err
		}
		return member, nil
	}

	if draft.Name != "" {
		member.Name = draft.Name
	}
	mergeField(&member.Email, draft.Email)
	mergeField(&member.State, draft.State)
	mergeField(&member.Product, draft.Product)
	mergeField(&member.MembershipType, billingCycle)
	mergeDate(&member.MembershipStartDate, draft.MembershipStartDate)
	mergeDate(&member.MembershipEndDate, draft.MembershipEndDate)
	mergeDate(&member.PaymentStartDate, draft.PaymentStartDate)
	mergeDate(&member.PaymentEndDate, draft.PaymentEndDate)
	mergeField(&member.Registration, draft.Registration)
	member.Status = models.DetermineMemberStatus(member.MembershipEndDate, draft.RenewalType, now)

	if err := tx.Save(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func mergeField(dst **string, src *string) {
	if src != nil && *src != "" {
		*dst = src
	}
}

func mergeDate(dst **time.Time, src *time.Time) {
	if src != nil {
		*dst = src
	}
}

func invoiceFromDraft(draft *ingest.InvoiceDraft, memberId int, uploadMonth string) *models.Invoice {
	var billingCycle *models.BillingCycle
	if draft.BillingCycle != "" {
		cycle := models.BillingCycle(draft.BillingCycle)
		billingCycle = &cycle
	}

	return &models.Invoice{
		InvoiceNo:           draft.InvoiceNo,
		InvoiceDate:         draft.InvoiceDate,
		MemberId:            memberId,
		Name:                draft.Name,
		State:               draft.State,
		Email:               draft.Email,
		Registration:        draft.Registration,
		Membership:          draft.Membership,
		MembershipTotal:     draft.MembershipTotal,
		Cgst:                draft.Cgst,
		Sgst:                draft.Sgst,
		Igst:                draft.Igst,
		TotalTax:            draft.TotalTax,
		TotalAmount:         draft.TotalAmount,
		Description:         draft.Description,
		MembershipStartDate: draft.MembershipStartDate,
		MembershipEndDate:   draft.MembershipEndDate,
		PaymentStartDate:    draft.PaymentStartDate,
		PaymentEndDate:      draft.PaymentEndDate,
		RenewalType:         draft.RenewalType,
		Month:               draft.Month,
		Product:             draft.Product,
		MonthsTenure:        draft.MonthsTenure,
		CalculationMonth:    draft.CalculationMonth,
		BillingCycle:        billingCycle,
		UploadMonth:         uploadMonth,
	}
}
