package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
)

type runRepository struct{ s *Store }

func (r runRepository) Create(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.runs {
		if existing.Period == run.Period {
			return payroll.PayrollRun{}, payroll.ErrRunAlreadyExists
		}
	}
	r.s.data.runs[run.ID] = run
	return run, nil
}

func (r runRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	run, ok := r.s.data.runs[id]
	if !ok {
		return payroll.PayrollRun{}, payroll.ErrRunNotFound
	}
	return run, nil
}

// GetByIDForUpdate relies on WithinTx serializing transactions.
func (r runRepository) GetByIDForUpdate(ctx context.Context, id string) (payroll.PayrollRun, error) {
	return r.GetByID(ctx, id)
}

func (r runRepository) GetByPeriod(ctx context.Context, period payroll.Period) (payroll.PayrollRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, run := range r.s.data.runs {
		if run.Period == period {
			return run, nil
		}
	}
	return payroll.PayrollRun{}, payroll.ErrRunNotFound
}

func (r runRepository) List(ctx context.Context, filter payroll.RunFilter) ([]payroll.PayrollRun, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []payroll.PayrollRun
	for _, run := range r.s.data.runs {
		if filter.Status != nil && string(run.Status) != *filter.Status {
			continue
		}
		if filter.PeriodYear != nil && run.Period.Year != *filter.PeriodYear {
			continue
		}
		matched = append(matched, run)
	}
	slices.SortFunc(matched, func(a, b payroll.PayrollRun) int {
		if c := cmp.Compare(b.Period.Year, a.Period.Year); c != 0 {
			return c
		}
		return cmp.Compare(b.Period.Month, a.Period.Month)
	})
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r runRepository) Update(ctx context.Context, run payroll.PayrollRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.runs[run.ID]; !ok {
		return payroll.ErrRunNotFound
	}
	r.s.data.runs[run.ID] = run
	return nil
}

type detailRepository struct{ s *Store }

func (r detailRepository) CreateIfAbsent(ctx context.Context, detail payroll.EmployeePayrollDetail) (payroll.EmployeePayrollDetail, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.details {
		if existing.RunID == detail.RunID && existing.EmployeeID == detail.EmployeeID {
			return existing, false, nil
		}
	}
	r.s.data.details[detail.ID] = detail
	return detail, true, nil
}

func (r detailRepository) GetByID(ctx context.Context, id string) (payroll.EmployeePayrollDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	detail, ok := r.s.data.details[id]
	if !ok {
		return payroll.EmployeePayrollDetail{}, payroll.ErrDetailNotFound
	}
	return detail, nil
}

func (r detailRepository) ListByRun(ctx context.Context, runID string) ([]payroll.EmployeePayrollDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	details := []payroll.EmployeePayrollDetail{}
	for _, d := range r.s.data.details {
		if d.RunID == runID {
			details = append(details, d)
		}
	}
	slices.SortFunc(details, func(a, b payroll.EmployeePayrollDetail) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return details, nil
}

func (r detailRepository) Update(ctx context.Context, detail payroll.EmployeePayrollDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.details[detail.ID]; !ok {
		return payroll.ErrDetailNotFound
	}
	r.s.data.details[detail.ID] = detail
	return nil
}

type payslipRepository struct{ s *Store }

func (r payslipRepository) CreateIfAbsent(ctx context.Context, payslip payroll.Payslip) (payroll.Payslip, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.payslips {
		if existing.DetailID == payslip.DetailID {
			return existing, false, nil
		}
	}
	r.s.data.payslips[payslip.ID] = payslip
	return payslip, true, nil
}

func (r payslipRepository) GetByID(ctx context.Context, id string) (payroll.Payslip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	payslip, ok := r.s.data.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return payslip, nil
}

func (r payslipRepository) GetByDetailID(ctx context.Context, detailID string) (payroll.Payslip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.data.payslips {
		if p.DetailID == detailID {
			return p, nil
		}
	}
	return payroll.Payslip{}, payroll.ErrPayslipNotFound
}

func (r payslipRepository) ListByRun(ctx context.Context, runID string) ([]payroll.Payslip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	payslips := []payroll.Payslip{}
	for _, p := range r.s.data.payslips {
		if p.RunID == runID {
			payslips = append(payslips, p)
		}
	}
	slices.SortFunc(payslips, func(a, b payroll.Payslip) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return payslips, nil
}

func (r payslipRepository) Update(ctx context.Context, payslip payroll.Payslip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.payslips[payslip.ID]; !ok {
		return payroll.ErrPayslipNotFound
	}
	r.s.data.payslips[payslip.ID] = payslip
	return nil
}

func (r payslipRepository) SetPaymentStatusByRun(ctx context.Context, runID string, status payroll.PaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, p := range r.s.data.payslips {
		if p.RunID != runID || p.PaymentStatus == payroll.PaymentStatusSkipped {
			continue
		}
		p.PaymentStatus = status
		r.s.data.payslips[id] = p
	}
	return nil
}

func (r payslipRepository) CreateAdjustment(ctx context.Context, adj payroll.PayslipAdjustment) (payroll.PayslipAdjustment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.payslips[adj.PayslipID]; !ok {
		return payroll.PayslipAdjustment{}, payroll.ErrPayslipNotFound
	}
	r.s.data.adjustments[adj.ID] = adj
	return adj, nil
}

func (r payslipRepository) ListAdjustments(ctx context.Context, payslipID string) ([]payroll.PayslipAdjustment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	adjustments := []payroll.PayslipAdjustment{}
	for _, a := range r.s.data.adjustments {
		if a.PayslipID == payslipID {
			adjustments = append(adjustments, a)
		}
	}
	slices.SortFunc(adjustments, func(a, b payroll.PayslipAdjustment) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return adjustments, nil
}

type anomalyRepository struct{ s *Store }

func (r anomalyRepository) Create(ctx context.Context, anomaly payroll.Anomaly) (payroll.Anomaly, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.data.anomalies[anomaly.ID] = anomaly
	return anomaly, nil
}

// CreateIfAbsent only considers unresolved anomalies, so a problem that
// reappears after being resolved is raised again.
func (r anomalyRepository) CreateIfAbsent(ctx context.Context, anomaly payroll.Anomaly) (payroll.Anomaly, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.anomalies {
		if existing.Resolved || existing.RunID != anomaly.RunID || existing.Type != anomaly.Type {
			continue
		}
		if sameEmployee(existing.EmployeeID, anomaly.EmployeeID) {
			return existing, false, nil
		}
	}
	r.s.data.anomalies[anomaly.ID] = anomaly
	return anomaly, true, nil
}

func (r anomalyRepository) GetByID(ctx context.Context, id string) (payroll.Anomaly, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	anomaly, ok := r.s.data.anomalies[id]
	if !ok {
		return payroll.Anomaly{}, payroll.ErrAnomalyNotFound
	}
	return anomaly, nil
}

func (r anomalyRepository) ListByRun(ctx context.Context, runID string, includeResolved bool) ([]payroll.Anomaly, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	anomalies := []payroll.Anomaly{}
	for _, a := range r.s.data.anomalies {
		if a.RunID != runID || (a.Resolved && !includeResolved) {
			continue
		}
		anomalies = append(anomalies, a)
	}
	slices.SortFunc(anomalies, func(a, b payroll.Anomaly) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return anomalies, nil
}

func (r anomalyRepository) Resolve(ctx context.Context, id string, resolvedBy string, notes string, at time.Time) (payroll.Anomaly, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	anomaly, ok := r.s.data.anomalies[id]
	if !ok {
		return payroll.Anomaly{}, payroll.ErrAnomalyNotFound
	}
	if anomaly.Resolved {
		return anomaly, nil
	}
	anomaly.Resolved = true
	anomaly.ResolvedBy = &resolvedBy
	anomaly.ResolutionNotes = &notes
	anomaly.ResolvedAt = &at
	r.s.data.anomalies[id] = anomaly
	return anomaly, nil
}

func sameEmployee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func byCreated(a, b time.Time, aID, bID string) int {
	if c := a.Compare(b); c != 0 {
		return c
	}
	return cmp.Compare(aID, bID)
}

func paginate[T any](items []T, page, limit int) []T {
	if limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
