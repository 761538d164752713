package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/membership_backend/config"
	"github.com/mmdatafocus/membership_backend/ingest"
	"github.com/mmdatafocus/membership_backend/models"
	"github.com/mmdatafocus/membership_backend/models/reports"
	"github.com/mmdatafocus/membership_backend/utils"
	"github.com/mmdatafocus/membership_backend/workflow"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
	maxUploadBytes   = 20 << 20 // 20 MB
	previewRowLimit  = 10
)

func pagination(c *gin.Context) (page int, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// uploadInvoicesHandler serves both phases of the spreadsheet flow: with
// action=preview it validates and echoes the would-be result without writing
// anything; otherwise it imports every valid row.
func uploadInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}
		if fileHeader.Size > maxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds 20MB limit"})
			return
		}

		uploadMonth := c.PostForm("uploadMonth")
		if uploadMonth == "" {
			uploadMonth = time.Now().UTC().Format("2006-01")
		}
		if _, err := time.Parse("2006-01", uploadMonth); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "uploadMonth must be in YYYY-MM format"})
			return
		}
		action := c.PostForm("action")

		file, err := fileHeader.Open()
		if err != nil {
			config.LogError(logger, "handlers.go", "uploadInvoicesHandler", "open upload", nil, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}
		defer file.Close()

		rows, err := ingest.ReadFirstSheet(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or unreadable"})
			return
		}

		existing, err := models.GetAllInvoiceNos(c.Request.Context())
		if err != nil {
			config.LogError(logger, "handlers.go", "uploadInvoicesHandler", "GetAllInvoiceNos", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process upload"})
			return
		}

		processor := ingest.NewProcessor(ingest.DefaultColumns())
		result, err := processor.ProcessSheet(rows, existing)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty"})
			return
		}

		if action == "preview" {
			preview := result.Drafts
			if len(preview) > previewRowLimit {
				preview = preview[:previewRowLimit]
			}
			c.JSON(http.StatusOK, gin.H{
				"totalRows": result.TotalRows,
				"validRows": len(result.Drafts),
				"errorRows": len(result.Errors),
				"errors":    result.Errors,
				"preview":   preview,
				"summary":   result.Summary,
			})
			return
		}

		if len(result.Drafts) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "No valid invoices to import",
				"errors": result.Errors,
			})
			return
		}

		imported, err := workflow.ImportInvoices(
			c.Request.Context(), result.Drafts, result.Errors,
			fileHeader.Filename, uploadMonth, result.TotalRows)
		if err != nil {
			config.LogError(logger, "handlers.go", "uploadInvoicesHandler", "ImportInvoices", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process upload"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"message":      "Successfully imported " + strconv.Itoa(imported.SuccessCount) + " invoices",
			"batchId":      imported.UploadLog.BatchId,
			"totalRows":    result.TotalRows,
			"successCount": imported.SuccessCount,
			"failedCount":  imported.FailedCount,
			"errors":       imported.Errors,
		})
	}
}

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := pagination(c)
		memberId, _ := strconv.Atoi(c.Query("memberId"))

		invoices, total, err := models.GetInvoices(
			c.Request.Context(), page, limit,
			c.Query("search"), c.Query("uploadMonth"), memberId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invoices"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"invoices": invoices,
			"total":    total,
			"page":     page,
			"limit":    limit,
		})
	}
}

func listMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := pagination(c)

		members, total, err := models.GetMembers(
			c.Request.Context(), page, limit,
			c.Query("search"), c.Query("status"), c.Query("product"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"members": members,
			"total":   total,
			"page":    page,
			"limit":   limit,
		})
	}
}

type updateMemberRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
	PinCode  *string `json:"pinCode"`
	State    *string `json:"state"`
	Location *string `json:"location"`
	Product  *string `json:"product"`
	Status   *string `json:"status" binding:"omitempty,oneof=ACTIVE EXPIRED RENEWED QUARTERLY FROZEN"`
}

func updateMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
			return
		}

		var req updateMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(verrs)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		updates := map[string]interface{}{}
		setIf := func(column string, value *string) {
			if value != nil {
				updates[column] = *value
			}
		}
		setIf("name", req.Name)
		setIf("email", req.Email)
		setIf("pin_code", req.PinCode)
		setIf("state", req.State)
		setIf("location", req.Location)
		setIf("product", req.Product)
		setIf("status", req.Status)

		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		member, err := models.UpdateMember(c.Request.Context(), id, updates)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"member": member})
	}
}

func listUploadsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := pagination(c)

		logs, total, err := models.GetUploadLogs(c.Request.Context(), page, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list uploads"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"uploads": logs,
			"total":   total,
			"page":    page,
			"limit":   limit,
		})
	}
}

func deleteUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
			return
		}

		counts, err := models.DeleteUploadLog(c.Request.Context(), id)
		if err != nil {
			if err == models.ErrUploadNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete upload"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"deleted": counts,
		})
	}
}

func accrualReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now().UTC()
		year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}

		report, err := reports.GetAccrualReport(c.Request.Context(), year, c.Query("product"), now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate accrual report"})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// reportsHandler dispatches the revenue report family on ?type=, defaulting to
// the monthly summary.
func reportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now().UTC()

		year, _ := strconv.Atoi(c.Query("year"))
		period := reports.ResolveReportPeriod(c.Query("month"), year, c.Query("quarter"), now)

		var (
			data interface{}
			err  error
			name string
		)
		switch c.DefaultQuery("type", "summary") {
		case "summary":
			name = "Monthly Revenue Summary"
			data, err = reports.GetRevenueSummary(ctx, period)
		case "product":
			name = "Product-Wise Revenue"
			data, err = reports.GetProductRevenue(ctx, period)
		case "membership-type":
			name = "Membership Type Revenue"
			data, err = reports.GetMembershipTypeRevenue(ctx, period)
		case "renewals-vs-new":
			name = "Renewals vs New Intake"
			data, err = reports.GetRenewalsVsNew(ctx, period)
		case "state-tax":
			name = "State-Wise Tax Report"
			data, err = reports.GetStateTaxReport(ctx, period)
		case "member-status":
			name = "Member Status Report"
			data, err = reports.GetMemberStatusReport(ctx)
		case "upcoming-renewals":
			name = "Upcoming Renewals"
			data, err = reports.GetUpcomingRenewals(ctx, now)
		case "quarterly":
			if year == 0 {
				year = now.Year()
			}
			name = "Quarter-Wise Revenue Comparison"
			data, err = reports.GetQuarterlyComparison(ctx, year)
		case "payment-tracking":
			name = "Payment Period Tracking"
			data, err = reports.GetPaymentTracking(ctx, now)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report type"})
			return
		}

		if err != nil {
			config.LogError(config.GetLogger(), "handlers.go", "reportsHandler", name, nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": name, "data": data})
	}
}

func forecastHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		months, _ := strconv.Atoi(c.DefaultQuery("months", "3"))

		forecast, err := reports.GetForecast(
			c.Request.Context(), months, c.Query("product"), time.Now().UTC())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate forecast"})
			return
		}
		c.JSON(http.StatusOK, forecast)
	}
}
