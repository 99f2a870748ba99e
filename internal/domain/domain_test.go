package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseProspectStatus(t *testing.T) {
	s, ok := ParseProspectStatus("not_interested")
	assert.True(t, ok)
	assert.Equal(t, StatusLost, s)

	s, ok = ParseProspectStatus(" Admitted ")
	assert.True(t, ok)
	assert.Equal(t, StatusAdmitted, s)

	_, ok = ParseProspectStatus("graduated")
	assert.False(t, ok)
}

func TestIsForward(t *testing.T) {
	assert.True(t, IsForward(StatusNew, StatusDocuments))
	assert.False(t, IsForward(StatusAdmitted, StatusFirstContact))
	assert.False(t, IsForward(StatusNew, StatusLost))
	assert.Equal(t, -1, StatusLost.Index())
}

func TestAdmissionProgress(t *testing.T) {
	approved := []Document{{Status: DocumentPending}, {Status: DocumentApproved}}
	paid := []Payment{{Status: PaymentFailed}, {Status: PaymentCompleted}}

	tests := []struct {
		name     string
		status   ProspectStatus
		docs     []Document
		payments []Payment
		want     int
	}{
		{"baseline", StatusNew, nil, nil, 0},
		{"documents stage", StatusDocuments, nil, nil, 25},
		{"approved doc", StatusDocuments, approved, nil, 50},
		{"approved doc outside stage", StatusFirstContact, approved, nil, 50},
		{"admitted", StatusAdmitted, nil, nil, 75},
		{"admitted with approved doc", StatusAdmitted, approved, nil, 75},
		{"completed payment", StatusAdmitted, nil, paid, 100},
		{"enrolled", StatusEnrolled, nil, nil, 100},
		{"lost keeps flags", StatusLost, approved, nil, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdmissionProgress(tt.status, tt.docs, tt.payments))
		})
	}
}

func TestCompletedPaymentsTotal(t *testing.T) {
	payments := []Payment{
		{Amount: decimal.RequireFromString("1500.50"), Status: PaymentCompleted},
		{Amount: decimal.RequireFromString("900"), Status: PaymentPending},
		{Amount: decimal.RequireFromString("499.50"), Status: PaymentCompleted},
	}
	assert.True(t, CompletedPaymentsTotal(payments).Equal(decimal.NewFromInt(2000)))
}

func TestFrequencyNext(t *testing.T) {
	d := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, d.AddDate(0, 0, 1), FrequencyDaily.Next(d))
	assert.Equal(t, d.Add(7*24*time.Hour), FrequencyWeekly.Next(d))
	assert.Equal(t, time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC), FrequencyMonthly.Next(d))
	assert.Equal(t, d.Add(7*24*time.Hour), Frequency("yearly").Next(d))

	mid := time.Date(2024, time.May, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.June, FrequencyMonthly.Next(mid).Month())
}

func TestProspectRevenue(t *testing.T) {
	v := decimal.NewFromInt(5000)
	p := Prospect{Status: StatusAdmitted, EnrollmentValue: &v}
	assert.True(t, p.Revenue().IsZero())
	p.Status = StatusEnrolled
	assert.True(t, p.Revenue().Equal(v))
}

func TestLeadFormPublicDefaults(t *testing.T) {
	f := LeadForm{Title: "Open house"}
	assert.Equal(t, DefaultFormFields, f.Public().Fields)
}
