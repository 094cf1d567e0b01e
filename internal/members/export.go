package members

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
)

var exportHeader = []string{"Email", "Role", "Status", "Date Added"}

// Export is a rendered CSV document plus its download filename.
type Export struct {
	Filename string
	Content  []byte
}

// RenderExportCSV serializes members to the export CSV. Zero members still
// produce the header row so the download is never an empty document.
func RenderExportCSV(rows []models.Member) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		email := ""
		if row.Email != nil {
			email = *row.Email
		}
		role := row.Role
		if role == "" {
			role = enums.MemberRoleCoach
		}
		status := "Invited"
		if row.JoinedAt != nil {
			status = "Active"
		}
		record := []string{email, role.String(), status, formatExportDate(row.CreatedAt)}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatExportDate renders M/D/YYYY without zero padding, matching the en-US
// short date the previous exporter produced.
func formatExportDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// ExportFilename embeds the current date in the attachment name.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("coaches-export-%s.csv", now.UTC().Format("2006-01-02"))
}
