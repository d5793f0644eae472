package license

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"smallbiznis-backoffice/pkg/db/option"
	"smallbiznis-backoffice/pkg/errutil"
	"smallbiznis-backoffice/pkg/featureflags"
	"smallbiznis-backoffice/pkg/identity"
	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/permission"
	"smallbiznis-backoffice/pkg/result"
	"smallbiznis-backoffice/pkg/validation"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const MsgXLSXDisabled = "Excel export is not enabled for this team"

// ParseFormat accepts csv or xlsx in any case. An empty format means csv.
func ParseFormat(f Format) validation.Result[Format] {
	switch Format(strings.ToLower(strings.TrimSpace(string(f)))) {
	case "", FormatCSV:
		return validation.Result[Format]{Value: FormatCSV}
	case FormatXLSX:
		return validation.Result[Format]{Value: FormatXLSX}
	}
	return validation.Fail[Format](errutil.Detail{Field: "format", Message: "Must be one of: csv, xlsx"})
}

var ExportHeader = []string{
	"Name", "Vendor", "License Key", "License Type", "Purchase Date", "Expiration Date",
	"Days Until Expiry", "Status", "Cost", "Total Assignments", "User Assignments",
	"Asset Assignments", "Notes",
}

type Export struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"-"`
	Rows        int    `json:"rows"`
}

// ExportRow is a full license record with its assignment counts.
type ExportRow struct {
	License *License
	Counts  AssignmentCount
}

// ExportLicenses renders every license matching the list filters, ignoring
// pagination.
func (s *Service) ExportLicenses(ctx context.Context, sess identity.Session, slug string, in FilterInput, format Format) (result.Result[*Export], error) {
	parsed := ParseLicenseFilters(in)
	pf := ParseFormat(format)
	if !parsed.OK() || !pf.OK() {
		return result.Invalid[*Export](append(parsed.Errors, pf.Errors...)), nil
	}
	format = pf.Value

	scope, err := s.guard.Resolve(ctx, slug, sess, permission.LicensesRead)
	if err != nil {
		return result.From[*Export](err)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("account_id", scope.AccountID))
	failed := result.Fail[*Export]("Failed to export licenses")

	if format == FormatXLSX && !s.flags.Enabled(ctx, featureflags.LicenseExportXLSX, scope.AccountSlug) {
		return result.Fail[*Export](MsgXLSXDisabled), nil
	}

	matched, err := s.filtered(ctx, scope.AccountID, parsed.Value)
	if err != nil {
		return failed, nil
	}

	ids := make([]string, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, m.ID)
	}

	full, err := s.licenses.Find(ctx, &License{AccountID: scope.AccountID}, option.ApplyIn("id", ids))
	if err != nil {
		zapLog.Error("failed to load licenses for export", zap.Error(err))
		return failed, nil
	}
	byID := make(map[string]*License, len(full))
	for _, l := range full {
		byID[l.ID] = l
	}

	counts, err := s.store.AssignmentCounts(ctx, scope.AccountID, ids)
	if err != nil {
		zapLog.Error("failed to count assignments for export", zap.Error(err))
		return failed, nil
	}

	rows := make([]ExportRow, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			rows = append(rows, ExportRow{License: l, Counts: counts[id]})
		}
	}

	today := s.today()
	stamp := today.Format("2006-01-02")

	var buf bytes.Buffer
	out := &Export{Rows: len(rows)}
	switch format {
	case FormatXLSX:
		if err := WriteXLSX(&buf, rows, today); err != nil {
			zapLog.Error("failed to render xlsx export", zap.Error(err))
			return failed, nil
		}
		out.Filename = fmt.Sprintf("licenses-%s.xlsx", stamp)
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		if err := WriteCSV(&buf, rows, today); err != nil {
			zapLog.Error("failed to render csv export", zap.Error(err))
			return failed, nil
		}
		out.Filename = fmt.Sprintf("licenses-%s.csv", stamp)
		out.ContentType = "text/csv; charset=utf-8"
	}
	out.Body = buf.Bytes()

	return result.OK(out, fmt.Sprintf("Exported %d licenses", len(rows))), nil
}

func exportRecord(r ExportRow, today time.Time) []string {
	l := r.License
	e := ComputeExpiry(l.ExpirationDate, today)

	cost := ""
	if l.Cost != nil {
		cost = strconv.FormatFloat(*l.Cost, 'f', 2, 64)
	}
	notes := ""
	if l.Notes != nil {
		notes = *l.Notes
	}

	return []string{
		l.Name,
		l.Vendor,
		l.LicenseKey,
		string(l.LicenseType),
		l.PurchaseDate.UTC().Format("2006-01-02"),
		l.ExpirationDate.UTC().Format("2006-01-02"),
		strconv.Itoa(e.DaysUntilExpiry),
		e.CSVStatus(),
		cost,
		strconv.FormatInt(r.Counts.Total(), 10),
		strconv.FormatInt(r.Counts.Users, 10),
		strconv.FormatInt(r.Counts.Assets, 10),
		notes,
	}
}

// EscapeCSV quotes a field that contains a comma, a quote or a line break,
// doubling embedded quotes.
func EscapeCSV(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func writeCSVLine(w io.Writer, fields []string) error {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeCSV(f)
	}
	_, err := io.WriteString(w, strings.Join(escaped, ",")+"\n")
	return err
}

func WriteCSV(w io.Writer, rows []ExportRow, today time.Time) error {
	if err := writeCSVLine(w, ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeCSVLine(w, exportRecord(r, today)); err != nil {
			return err
		}
	}
	return nil
}

func WriteXLSX(w io.Writer, rows []ExportRow, today time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Licenses"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	write := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}

	if err := write(1, ExportHeader); err != nil {
		return err
	}
	for i, r := range rows {
		if err := write(i+2, exportRecord(r, today)); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
