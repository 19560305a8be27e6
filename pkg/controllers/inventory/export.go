package inventory

import (
	"encoding/csv"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// writeCSV streams a CSV download with a fixed header order
func writeCSV(c *gin.Context, filename string, header []string, rows [][]string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(header); err != nil {
		logrus.WithError(err).Error("failed to write CSV header")
		return
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			logrus.WithError(err).Error("failed to write CSV row")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		logrus.WithError(err).Error("CSV writer error")
	}
}
