package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gms_backend/pkg/audit"
	"gms_backend/pkg/session"
	"gms_backend/pkg/utils"
)

const tagAuditExport = "admin.audit_logs.export"

// ListAuditLogs returns events in a date window, newest first. The window
// defaults to the last 7 days.
func (ctl *Controller) ListAuditLogs(c *gin.Context) {
	from, to, ok := auditWindow(c)
	if !ok {
		return
	}

	events, err := ctl.Audit.List(from, to, 500)
	if err != nil {
		utils.InternalError(c, "Could not load audit logs.")
		return
	}
	utils.OK(c, "Audit logs fetched successfully.", events)
}

// ExportAuditLogs downloads the same window as CSV
func (ctl *Controller) ExportAuditLogs(c *gin.Context) {
	ctx, _ := session.FromContext(c)

	from, to, ok := auditWindow(c)
	if !ok {
		return
	}

	events, err := ctl.Audit.List(from, to, 0)
	if err != nil {
		utils.InternalError(c, "Could not load audit logs.")
		return
	}

	data, err := audit.ExportCSV(events)
	if err != nil {
		utils.InternalError(c, "Could not export audit logs.")
		return
	}

	ctl.Audit.Record(ctx.Email, "Exported audit logs", tagAuditExport, http.StatusOK)
	c.Header("Content-Disposition", `attachment; filename="audit_logs.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func auditWindow(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := now.AddDate(0, 0, -7)
	to := now

	if v := c.Query("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			utils.BadRequest(c, "Invalid startDate. Expected YYYY-MM-DD.")
			return from, to, false
		}
		from = t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			utils.BadRequest(c, "Invalid endDate. Expected YYYY-MM-DD.")
			return from, to, false
		}
		to = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return from, to, true
}
