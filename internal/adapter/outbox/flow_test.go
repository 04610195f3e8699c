package outbox

import (
	"context"
	"testing"

	"loanapp-backend/internal/adapter/repository/mysql"
	"loanapp-backend/internal/domain/applicant"
	domain "loanapp-backend/internal/domain/outbox"
	"loanapp-backend/internal/usecase/application"
	"loanapp-backend/internal/usecase/approval"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type flow struct {
	db        *gorm.DB
	applicant *mysql.ApplicantRepository
	submit    *application.Usecase
	approve   *approval.Usecase
	relay     *Relay
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := mysql.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tx := mysql.NewGormUoW(db)
	repo := mysql.NewApplicantRepository(db)
	approve := approval.NewUsecase(tx, nil, nil)
	relay := newTestRelay(mysql.NewOutboxRepository(db), NewListenerSink(approve), Config{BatchSize: 10, RetryMaxTries: 3, MaxAttempts: 5})
	return &flow{
		db:        db,
		applicant: repo,
		submit:    application.NewUsecase(repo, tx, relay, nil, nil),
		approve:   approve,
		relay:     relay,
	}
}

func submission(email string, income int64) application.SubmitInput {
	return application.SubmitInput{
		FirstName:      "John",
		LastName:       "Doe",
		Email:          email,
		LoanAmount:     decimal.NewFromInt(10000),
		Tenor:          6,
		MonthlyIncome:  decimal.NewFromInt(income),
		MonthlyPayment: decimal.NewFromInt(1000),
	}
}

func outboxStatuses(t *testing.T, db *gorm.DB) []domain.Status {
	t.Helper()
	var rows []domain.Message
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	out := make([]domain.Status, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Status)
	}
	return out
}

func TestFlow_SubmitThenRelayApproves(t *testing.T) {
	f := newFlow(t)
	ctx := context.Background()

	if _, err := f.submit.Submit(ctx, submission("john@example.com", 5000)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	a, err := f.applicant.GetByEmail(ctx, "john@example.com")
	if err != nil || a.Status != applicant.StatusDraft {
		t.Fatalf("before relay: %+v err=%v", a, err)
	}
	if len(f.relay.wake) != 1 {
		t.Fatal("submit must nudge the relay")
	}

	n, err := f.relay.Drain(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Drain = %d, %v", n, err)
	}

	a, err = f.applicant.GetByEmail(ctx, "john@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != applicant.StatusApproved || a.Loan == nil || !a.Loan.Credited.Decimal.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("after relay: %+v", a)
	}
	if got := outboxStatuses(t, f.db); len(got) != 1 || got[0] != domain.StatusDelivered {
		t.Fatalf("outbox = %v", got)
	}
}

func TestFlow_LargestAmountsOneCentAboveThresholdStayApproved(t *testing.T) {
	f := newFlow(t)
	ctx := context.Background()

	in := submission("edge@example.com", 0)
	in.MonthlyIncome = decimal.RequireFromString("3000000000000000.01")
	in.MonthlyPayment = decimal.RequireFromString("1000000000000000")
	in.LoanAmount = decimal.RequireFromString("9999999999999999.99")
	if _, err := f.submit.Submit(ctx, in); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	stored, err := f.applicant.GetByEmail(ctx, "edge@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !stored.MonthlyIncome.Decimal.Equal(in.MonthlyIncome) || !stored.MonthlyPayment.Decimal.Equal(in.MonthlyPayment) {
		t.Fatalf("stored income=%s payment=%s, want exact values", stored.MonthlyIncome.Decimal, stored.MonthlyPayment.Decimal)
	}

	if _, err := f.relay.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	a, err := f.applicant.GetByEmail(ctx, "edge@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != applicant.StatusApproved || a.Loan == nil || !a.Loan.Credited.Decimal.Equal(in.LoanAmount) {
		t.Fatalf("after relay: status=%s loan=%+v", a.Status, a.Loan)
	}
	if !a.Balance.Decimal.Equal(in.LoanAmount) {
		t.Fatalf("balance = %s, want %s", a.Balance.Decimal, in.LoanAmount)
	}
}

func TestFlow_SyncApprovalWinsAndRedeliveryIsNoop(t *testing.T) {
	f := newFlow(t)
	ctx := context.Background()

	if _, err := f.submit.Submit(ctx, submission("jane@example.com", 5000)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	a, _ := f.applicant.GetByEmail(ctx, "jane@example.com")

	status, err := f.approve.Approve(ctx, a.ApplicantID)
	if err != nil || status != applicant.StatusApproved {
		t.Fatalf("Approve = %s, %v", status, err)
	}

	if _, err := f.relay.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	var loans int64
	if err := f.db.Model(&applicant.Loan{}).Count(&loans).Error; err != nil {
		t.Fatal(err)
	}
	if loans != 1 {
		t.Fatalf("loans = %d, want exactly 1", loans)
	}
	got, _ := f.applicant.GetByEmail(ctx, "jane@example.com")
	if got.Version != 1 {
		t.Fatalf("listener must not write again, version = %d", got.Version)
	}
}

func TestFlow_IneligibleSubmissionLeavesNoTrace(t *testing.T) {
	f := newFlow(t)
	ctx := context.Background()

	if _, err := f.submit.Submit(ctx, submission("poor@example.com", 3000)); err == nil {
		t.Fatal("expected ineligible error")
	}
	if _, err := f.applicant.GetByEmail(ctx, "poor@example.com"); err == nil {
		t.Fatal("ineligible applicant must not be stored")
	}
	if got := outboxStatuses(t, f.db); len(got) != 0 {
		t.Fatalf("outbox = %v, want empty", got)
	}
}

func TestFlow_EventForMissingApplicantFailsImmediately(t *testing.T) {
	f := newFlow(t)
	ctx := context.Background()

	orphan := &domain.Message{
		MessageID:   "0123456789abcdef0123456789abcdef",
		EventType:   "ApproveLoanEvent",
		AggregateID: "ghost@example.com",
		Payload:     `{"applicantEmail":"ghost@example.com","amountRequested":"100"}`,
	}
	if err := mysql.NewOutboxRepository(f.db).Enqueue(ctx, orphan); err != nil {
		t.Fatal(err)
	}
	if _, err := f.relay.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := outboxStatuses(t, f.db); len(got) != 1 || got[0] != domain.StatusFailed {
		t.Fatalf("outbox = %v, want [failed]", got)
	}
}
