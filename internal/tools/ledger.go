package tools

import (
	"strings"
	"sync"
	"time"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// ExpenseRecord is one claimable expense line.
type ExpenseRecord struct {
	ID          string   `json:"record_id"`
	TravelDate  string   `json:"travel_date"`
	Destination string   `json:"destination"`
	Purpose     string   `json:"purpose"`
	Category    string   `json:"category"`
	Amount      float64  `json:"amount"`
	InvoiceIDs  []string `json:"invoice_ids,omitempty"`
}

// Bill is one submitted reimbursement.
type Bill struct {
	ID          string    `json:"bill_id"`
	Applicant   string    `json:"applicant"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"` // "submitted", "under_review", "approved", "paid"
	SubmittedAt time.Time `json:"submitted_at"`
}

// TravelApplication is one pre-approved trip.
type TravelApplication struct {
	ID          string `json:"application_id"`
	Applicant   string `json:"applicant"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
}

// Ledger is the deterministic in-process backend behind the tool set.
// Safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	expenses map[string]ExpenseRecord
	bills    map[string]Bill
	trips    map[string][]TravelApplication
	budgets  map[string]float64
}

// NewLedger seeds a ledger with reference data for travel applications
// and department budgets.
func NewLedger() *Ledger {
	return &Ledger{
		expenses: make(map[string]ExpenseRecord),
		bills:    make(map[string]Bill),
		trips: map[string][]TravelApplication{
			"zhang wei": {
				{ID: "TA-2024-0117", Applicant: "zhang wei", Destination: "Shanghai", StartDate: "2024-03-11", EndDate: "2024-03-14", Status: "approved"},
			},
			"li na": {
				{ID: "TA-2024-0142", Applicant: "li na", Destination: "Beijing", StartDate: "2024-04-02", EndDate: "2024-04-05", Status: "approved"},
			},
		},
		budgets: map[string]float64{
			"engineering": 120000,
			"sales":       80000,
			"finance":     40000,
		},
	}
}

func (l *Ledger) addExpense(rec ExpenseRecord) ExpenseRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec.ID == "" {
		rec.ID = "ER-" + domain.NewID()
	}
	l.expenses[rec.ID] = rec
	return rec
}

func (l *Ledger) expense(id string) (ExpenseRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.expenses[id]
	return rec, ok
}

func (l *Ledger) listExpenses() []ExpenseRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ExpenseRecord, 0, len(l.expenses))
	for _, rec := range l.expenses {
		out = append(out, rec)
	}
	return out
}

func (l *Ledger) addBill(bill Bill) Bill {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bill.ID == "" {
		bill.ID = "BILL-" + domain.NewID()
	}
	l.bills[bill.ID] = bill
	return bill
}

func (l *Ledger) bill(id string) (Bill, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bill, ok := l.bills[id]
	return bill, ok
}

func (l *Ledger) applications(applicant string) []TravelApplication {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]TravelApplication(nil), l.trips[strings.ToLower(applicant)]...)
}

func (l *Ledger) budget(department string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	amount, ok := l.budgets[strings.ToLower(department)]
	return amount, ok
}
