package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/config"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/terminal"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret",
		JWTExpirationHours:     1,
		TerminalTimeoutSeconds: 2,
		MaxDiscountPercent:     10,
		BalanceScope:           config.BalanceScopeLifetime,
		RecordSaleMovements:    true,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func TestOpenSessionRecordsOpeningMovement(t *testing.T) {
	repo := newStubCashRepo()
	svc := NewCashService(repo, terminal.NewRegistry(), testConfig())
	operator := uuid.New()

	report, err := svc.Open(context.Background(), operator, dto.OpenSessionRequest{
		RegisterNumber: 1,
		OpeningAmount:  dec("150.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "open", report.Status)
	assert.Equal(t, 1, report.RegisterNumber)
	assert.True(t, report.ExpectedAmount.Equal(dec("150.00")))

	require.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementOpen, repo.movements[0].Type)
	assert.True(t, repo.movements[0].Amount.Equal(dec("150.00")))
	assert.Equal(t, operator, repo.movements[0].OperatorID)
}

func TestOpenSessionRejectsSecondOpen(t *testing.T) {
	repo := newStubCashRepo()
	svc := NewCashService(repo, terminal.NewRegistry(), testConfig())

	_, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("100")})
	require.NoError(t, err)

	// Even from another register: the one-open-session policy is global.
	_, err = svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{RegisterNumber: 2, OpeningAmount: dec("50")})
	require.Error(t, err)
	assert.Equal(t, apperr.SessionConflict, apperr.KindOf(err))
}

func TestOpenSessionRejectsNegativeAmount(t *testing.T) {
	svc := NewCashService(newStubCashRepo(), nil, testConfig())

	_, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("-1")})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestPostMovementRequiresOpenSession(t *testing.T) {
	svc := NewCashService(newStubCashRepo(), nil, testConfig())

	_, err := svc.PostMovement(context.Background(), uuid.New(), dto.MovementRequest{
		Type: model.MovementSupply, Amount: dec("10"), Reason: "change fund",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.SessionConflict, apperr.KindOf(err))
}

func TestBalanceSignsWithdrawals(t *testing.T) {
	repo := newStubCashRepo()
	svc := NewCashService(repo, nil, testConfig())
	operator := uuid.New()

	_, err := svc.Open(context.Background(), operator, dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("100.00")})
	require.NoError(t, err)

	post := func(movType, amount string) {
		_, err := svc.PostMovement(context.Background(), operator, dto.MovementRequest{
			Type: movType, Amount: dec(amount), Reason: "ledger test entry",
		})
		require.NoError(t, err)
	}
	post(model.MovementSupply, "50.00")
	post(model.MovementWithdrawal, "30.00")
	post(model.MovementReceipt, "20.00")

	balance, err := svc.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(dec("140.00")), "got %s", balance.Balance)
	assert.Equal(t, config.BalanceScopeLifetime, balance.Scope)
}

func TestBalanceSessionScope(t *testing.T) {
	repo := newStubCashRepo()
	cfg := testConfig()
	cfg.BalanceScope = config.BalanceScopeSession
	svc := NewCashService(repo, nil, cfg)

	// Session scope with nothing open is a conflict, not a zero balance.
	_, err := svc.Balance(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.SessionConflict, apperr.KindOf(err))

	// A movement left over from an earlier, closed session must not count.
	repo.movements = append(repo.movements, model.CashMovement{
		ID: uuid.New(), SessionID: uuid.New(), Type: model.MovementSupply, Amount: dec("999"),
	})

	_, err = svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("80.00")})
	require.NoError(t, err)

	balance, err := svc.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(dec("80.00")), "got %s", balance.Balance)
	assert.Equal(t, config.BalanceScopeSession, balance.Scope)
}

func TestCloseDeviationClasses(t *testing.T) {
	cases := []struct {
		name     string
		declared string
		notes    *string
		class    string
	}{
		{"exact count", "100.00", nil, "normal"},
		{"within one percent", "100.90", nil, "normal"},
		{"warning band", "103.00", nil, "warning"},
		{"critical with notes", "90.00", strPtr("drawer skimmed, incident filed"), "critical"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubCashRepo()
			svc := NewCashService(repo, nil, testConfig())
			operator := uuid.New()

			_, err := svc.Open(context.Background(), operator, dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("100.00")})
			require.NoError(t, err)

			report, err := svc.Close(context.Background(), operator, dto.CloseSessionRequest{
				DeclaredAmount: dec(tc.declared),
				Notes:          tc.notes,
			})
			require.NoError(t, err)

			assert.Equal(t, "closed", report.Status)
			require.NotNil(t, report.Deviation)
			assert.Equal(t, tc.class, report.Deviation.Class)
			assert.True(t, report.Deviation.Amount.Equal(dec(tc.declared).Sub(dec("100.00"))))
			assert.NotNil(t, report.ClosedAt)
		})
	}
}

func TestCloseCriticalDeviationRequiresNotes(t *testing.T) {
	repo := newStubCashRepo()
	svc := NewCashService(repo, nil, testConfig())
	operator := uuid.New()

	_, err := svc.Open(context.Background(), operator, dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("100.00")})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), operator, dto.CloseSessionRequest{DeclaredAmount: dec("80.00")})
	require.Error(t, err)
	assert.Equal(t, apperr.Policy, apperr.KindOf(err))

	// The failed close must not have flipped the session.
	session, err := repo.FindOpenSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open", session.Status)
}

func TestCloseRefusedWhileTerminalBusy(t *testing.T) {
	repo := newStubCashRepo()
	registry := terminal.NewRegistry()
	svc := NewCashService(repo, registry, testConfig())
	operator := uuid.New()

	_, err := svc.Open(context.Background(), operator, dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("100.00")})
	require.NoError(t, err)

	term := registry.Bind(1, terminal.SessionContext{OperatorID: operator, RegisterNumber: 1}, decimal.NewFromInt(10))
	term.Lock()
	term.Cart.AddOrMerge("4711", "Soap bar", decimal.NewFromInt(1), dec("3.50"))
	term.Unlock()

	_, err = svc.Close(context.Background(), operator, dto.CloseSessionRequest{DeclaredAmount: dec("100.00")})
	require.Error(t, err)
	assert.Equal(t, apperr.SessionConflict, apperr.KindOf(err))

	// The session stays open; the count can be retried once the sale ends.
	session, err := repo.FindOpenSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open", session.Status)
}

func TestCloseDropsTerminals(t *testing.T) {
	repo := newStubCashRepo()
	registry := terminal.NewRegistry()
	svc := NewCashService(repo, registry, testConfig())
	operator := uuid.New()

	_, err := svc.Open(context.Background(), operator, dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("100.00")})
	require.NoError(t, err)
	registry.Bind(1, terminal.SessionContext{OperatorID: operator, RegisterNumber: 1}, decimal.NewFromInt(10))

	_, err = svc.Close(context.Background(), operator, dto.CloseSessionRequest{DeclaredAmount: dec("100.00")})
	require.NoError(t, err)

	assert.Nil(t, registry.Get(1))
}

func TestReportRecomputesExpectedForOpenSession(t *testing.T) {
	repo := newStubCashRepo()
	svc := NewCashService(repo, nil, testConfig())
	operator := uuid.New()

	opened, err := svc.Open(context.Background(), operator, dto.OpenSessionRequest{RegisterNumber: 1, OpeningAmount: dec("100.00")})
	require.NoError(t, err)
	_, err = svc.PostMovement(context.Background(), operator, dto.MovementRequest{
		Type: model.MovementSupply, Amount: dec("25.00"), Reason: "change fund",
	})
	require.NoError(t, err)

	report, err := svc.Report(context.Background(), uuid.MustParse(opened.SessionID))
	require.NoError(t, err)
	assert.True(t, report.ExpectedAmount.Equal(dec("125.00")), "got %s", report.ExpectedAmount)
	assert.Nil(t, report.Deviation)
}

func TestReportUnknownSession(t *testing.T) {
	svc := NewCashService(newStubCashRepo(), nil, testConfig())

	_, err := svc.Report(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
