package memory

import (
	"context"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/admission"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// AdmissionRepo implements admission.Repository.
type AdmissionRepo struct{ s *Store }

func (r *AdmissionRepo) ListDocuments(_ context.Context, prospectID string) ([]domain.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Document{}
	for _, d := range r.s.documents {
		if d.ProspectID == prospectID {
			out = append(out, d)
		}
	}
	sortBy(out, func(a, b domain.Document) bool { return a.UploadedAt.Before(b.UploadedAt) })
	return out, nil
}

func (r *AdmissionRepo) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.documents[id]
	if !ok {
		return nil, admission.ErrDocumentNotFound
	}
	return &d, nil
}

func (r *AdmissionRepo) CreateDocument(_ context.Context, d *domain.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.prospects[d.ProspectID]; !ok {
		return prospect.ErrNotFound
	}
	r.s.documents[d.ID] = *d
	return nil
}

func (r *AdmissionRepo) UpdateDocument(_ context.Context, id string, u admission.DocumentUpdate) (*domain.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok {
		return nil, admission.ErrDocumentNotFound
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.Notes != nil {
		d.Notes = *u.Notes
	}
	if u.ReviewedAt != nil {
		t := *u.ReviewedAt
		d.ReviewedAt = &t
	}
	r.s.documents[id] = d
	return &d, nil
}

func (r *AdmissionRepo) ListPayments(_ context.Context, prospectID string) ([]domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Payment{}
	for _, p := range r.s.payments {
		if p.ProspectID == prospectID {
			out = append(out, p)
		}
	}
	sortBy(out, func(a, b domain.Payment) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return out, nil
}

func (r *AdmissionRepo) GetPayment(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, admission.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *AdmissionRepo) CreatePayment(_ context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.prospects[p.ProspectID]; !ok {
		return prospect.ErrNotFound
	}
	r.s.payments[p.ID] = *p
	return nil
}

func (r *AdmissionRepo) UpdatePayment(_ context.Context, id string, u admission.PaymentUpdate) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, admission.ErrPaymentNotFound
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Amount != nil {
		p.Amount = *u.Amount
	}
	if u.Method != nil {
		p.Method = *u.Method
	}
	if u.PaidAt != nil {
		t := *u.PaidAt
		p.PaidAt = &t
	}
	r.s.payments[id] = p
	return &p, nil
}
