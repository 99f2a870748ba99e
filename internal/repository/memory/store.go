// Package memory implements every service repository on process memory.
// It backs the service and handler tests and DEV_MODE runs without a
// database. All repositories returned by one Store share a single lock, so
// cascades and the communication/last-interaction bump are atomic here too.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/admission"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/form"
	"github.com/ignite/admissions-crm/internal/service/prospect"
	"github.com/ignite/admissions-crm/internal/service/report"
	"github.com/ignite/admissions-crm/internal/service/user"
)

// Store holds every entity table.
type Store struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	prospects map[string]domain.Prospect
	comms     map[string]domain.Communication
	campaigns map[string]domain.Campaign
	links     map[string]domain.CampaignProspect
	documents map[string]domain.Document
	payments  map[string]domain.Payment
	reports   map[string]domain.ReportDefinition
	forms     map[string]domain.LeadForm
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]domain.User),
		prospects: make(map[string]domain.Prospect),
		comms:     make(map[string]domain.Communication),
		campaigns: make(map[string]domain.Campaign),
		links:     make(map[string]domain.CampaignProspect),
		documents: make(map[string]domain.Document),
		payments:  make(map[string]domain.Payment),
		reports:   make(map[string]domain.ReportDefinition),
		forms:     make(map[string]domain.LeadForm),
	}
}

// Users returns the user repository view.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Prospects returns the prospect repository view.
func (s *Store) Prospects() *ProspectRepo { return &ProspectRepo{s: s} }

// Communications returns the communication repository view.
func (s *Store) Communications() *CommunicationRepo { return &CommunicationRepo{s: s} }

// Campaigns returns the campaign repository view.
func (s *Store) Campaigns() *CampaignRepo { return &CampaignRepo{s: s} }

// Admission returns the document and payment repository view.
func (s *Store) Admission() *AdmissionRepo { return &AdmissionRepo{s: s} }

// Reports returns the report definition repository view.
func (s *Store) Reports() *ReportRepo { return &ReportRepo{s: s} }

// Forms returns the lead form repository view.
func (s *Store) Forms() *FormRepo { return &FormRepo{s: s} }

// Ping always succeeds; it lets the store stand in for a database in
// health checks.
func (s *Store) Ping() error { return nil }

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

func sortBy[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

var (
	_ user.Repository          = (*UserRepo)(nil)
	_ prospect.Repository      = (*ProspectRepo)(nil)
	_ communication.Repository = (*CommunicationRepo)(nil)
	_ campaign.Repository      = (*CampaignRepo)(nil)
	_ admission.Repository     = (*AdmissionRepo)(nil)
	_ report.Repository        = (*ReportRepo)(nil)
	_ form.Repository          = (*FormRepo)(nil)
)
