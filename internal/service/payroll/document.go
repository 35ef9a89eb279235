package payroll

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const payslipURLExpiry = 15 * time.Minute

// RenderPayslipPDF draws the payslip and, when file storage is configured,
// stores it under payslips/<period>/. A locked run cannot change, so its
// payslips are drawn once per lock and later requests get the stored copy.
func (s *PayrollServiceImpl) RenderPayslipPDF(ctx context.Context, id string) (payroll.PayslipDocument, error) {
	if _, err := s.authorize(ctx, user.PermissionPayrollView); err != nil {
		return payroll.PayslipDocument{}, err
	}

	payslip, err := s.payslips.GetByID(ctx, id)
	if err != nil {
		return payroll.PayslipDocument{}, err
	}
	detail, err := s.details.GetByID(ctx, payslip.DetailID)
	if err != nil {
		return payroll.PayslipDocument{}, err
	}
	run, err := s.runs.GetByID(ctx, payslip.RunID)
	if err != nil {
		return payroll.PayslipDocument{}, err
	}

	doc := payroll.PayslipDocument{
		PayslipID: payslip.ID,
		FileName:  fmt.Sprintf("payslip-%s-%s.pdf", strings.ToLower(run.Period.String()), detail.EmployeeCode),
	}

	path := payslipPath(run, payslip)
	if s.fileStorage != nil && run.Locked {
		content, found, err := s.readStoredPayslip(ctx, path)
		if err != nil {
			return payroll.PayslipDocument{}, err
		}
		if found {
			doc.Content = content
			slog.Debug("Payslip served from storage", "payslip_id", payslip.ID, "path", path)
			return s.withPayslipURL(ctx, doc, path)
		}
	}

	content, err := drawPayslip(run, detail, payslip)
	if err != nil {
		return payroll.PayslipDocument{}, fmt.Errorf("failed to render payslip: %w", err)
	}
	doc.Content = content
	if s.fileStorage == nil {
		return doc, nil
	}

	stored, err := s.fileStorage.Upload(ctx, bytes.NewReader(content), path, "application/pdf")
	if err != nil {
		return payroll.PayslipDocument{}, fmt.Errorf("failed to store payslip: %w", err)
	}

	slog.Info("Payslip rendered", "payslip_id", payslip.ID, "path", stored, "bytes", len(content))
	return s.withPayslipURL(ctx, doc, stored)
}

// payslipPath keys locked copies by lock time so a run that is unfrozen and
// locked again never serves the figures of the earlier lock.
func payslipPath(run payroll.PayrollRun, payslip payroll.Payslip) string {
	dir := "payslips/" + strings.ToLower(run.Period.String())
	if run.Locked && run.LockedAt != nil {
		return fmt.Sprintf("%s/%s-%s.pdf", dir, payslip.ID, run.LockedAt.UTC().Format("20060102T150405"))
	}
	return fmt.Sprintf("%s/%s.pdf", dir, payslip.ID)
}

func (s *PayrollServiceImpl) readStoredPayslip(ctx context.Context, path string) ([]byte, bool, error) {
	exists, err := s.fileStorage.Exists(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check stored payslip: %w", err)
	}
	if !exists {
		return nil, false, nil
	}

	rc, err := s.fileStorage.Download(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open stored payslip: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read stored payslip: %w", err)
	}
	return content, true, nil
}

func (s *PayrollServiceImpl) withPayslipURL(ctx context.Context, doc payroll.PayslipDocument, path string) (payroll.PayslipDocument, error) {
	url, err := s.fileStorage.GetURL(ctx, path, payslipURLExpiry)
	if err != nil {
		return payroll.PayslipDocument{}, fmt.Errorf("failed to resolve payslip url: %w", err)
	}
	doc.Path = path
	doc.URL = url
	return doc, nil
}

func drawPayslip(run payroll.PayrollRun, detail payroll.EmployeePayrollDetail, payslip payroll.Payslip) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", detail.EmployeeName, detail.EmployeeCode))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", run.Period.Start().Format("2006-01-02"), run.Period.End().Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s", payslip.PaymentStatus))
	pdf.Ln(10)

	if payslip.PaymentStatus == payroll.PaymentStatusSkipped {
		reason := "not payable in this period"
		if detail.SkipReason != nil {
			reason = *detail.SkipReason
		}
		pdf.Cell(0, 7, "Skipped: "+reason)
		pdf.Ln(6)
	}

	e := payslip.Earnings
	section(pdf, "Earnings")
	row(pdf, "Base salary", e.BaseSalary)
	lines(pdf, e.Allowances)
	if !e.Overtime.IsZero() {
		row(pdf, "Overtime", e.Overtime)
	}
	lines(pdf, e.Bonuses)
	lines(pdf, e.Benefits)
	lines(pdf, e.Refunds)
	if !e.MinimumWageTopUp.IsZero() {
		row(pdf, "Minimum wage top-up", e.MinimumWageTopUp)
	}
	total(pdf, "Gross pay", e.Total())

	d := payslip.Deductions
	section(pdf, "Deductions")
	lines(pdf, d.Taxes)
	lines(pdf, d.Insurance)
	lines(pdf, d.Penalties)
	if !d.UnpaidLeave.IsZero() {
		row(pdf, "Unpaid leave", d.UnpaidLeave)
	}
	total(pdf, "Total deductions", d.Total())

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(120, 9, "Net pay", "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 9, payslip.NetPay.StringFixed(moneyPlaces), "T", 1, "R", false, 0, "")

	if !d.EmployerInsurance.IsZero() {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 6, "Employer insurance contribution: "+d.EmployerInsurance.StringFixed(moneyPlaces))
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}

func row(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.CellFormat(120, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, amount.StringFixed(moneyPlaces), "", 1, "R", false, 0, "")
}

func lines(pdf *gofpdf.Fpdf, items []payroll.LineItem) {
	for _, item := range items {
		row(pdf, item.Name, item.Amount)
	}
}

func total(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 7, label, "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, amount.StringFixed(moneyPlaces), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}
