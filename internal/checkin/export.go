package checkin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/nerrad567/event-companion-core/internal/backend"
)

// csvHeader is the export's first row.
var csvHeader = []string{"Nome", "Cargo", "Empresa", "Email", "Telefone"}

// List returns the check-ins recorded at the operator's booth.
func (v *Verifier) List(ctx context.Context) ([]backend.BoothCheckin, error) {
	sess := v.sessions.Current()
	if sess == nil || !sess.Role.IsBoothStaff() {
		return nil, ErrNoOperator
	}

	id, err := v.backend.CompanyForUser(ctx, sess.Token, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", MsgCompanyNotFound, ErrNoCompany, err)
	}
	if id == "" {
		return nil, fmt.Errorf("%s: %w", MsgCompanyNotFound, ErrNoCompany)
	}

	rows, err := v.backend.BoothCheckins(ctx, sess.Token, id.String())
	if err != nil {
		return nil, fmt.Errorf("listing check-ins: %w", err)
	}
	if rows == nil {
		rows = []backend.BoothCheckin{}
	}
	return rows, nil
}

// Export writes the booth's check-ins to w as CSV and returns the number
// of data rows.
func (v *Verifier) Export(ctx context.Context, w io.Writer) (int, error) {
	rows, err := v.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// WriteCSV renders rows with csvHeader.
func WriteCSV(w io.Writer, rows []backend.BoothCheckin) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Name, r.Title, r.Company, r.Email, r.Phone}
		for i := range record {
			record[i] = safeCell(record[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// safeCell quotes a value a spreadsheet would read as a formula.
func safeCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
