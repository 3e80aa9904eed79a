package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichieLoco/coinsniper/internal/persistence"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func sampleAnnouncement() persistence.Announcement {
	return persistence.Announcement{
		ID:          "5f0c6f4e-1111-2222-3333-444455556666",
		Title:       "Binance Will List NewCoin (NEW)",
		Symbol:      "NEW",
		AnnouncedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAnnouncementsRepo_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnnouncementsRepo(db, time.Second)
	ann := sampleAnnouncement()

	mock.ExpectExec("INSERT INTO announcements").
		WithArgs(ann.ID, ann.Title, ann.Symbol, ann.AnnouncedAt, ann.Delisting).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), ann))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementsRepo_InsertRejectsEmptySymbol(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewAnnouncementsRepo(db, time.Second)

	ann := sampleAnnouncement()
	ann.Symbol = ""

	err := repo.Insert(context.Background(), ann)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol")
}

func TestAnnouncementsRepo_InsertDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnnouncementsRepo(db, time.Second)
	ann := sampleAnnouncement()

	mock.ExpectExec("INSERT INTO announcements").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Insert(context.Background(), ann)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate announcement")
}

func TestAnnouncementsRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnnouncementsRepo(db, time.Second)

	mock.ExpectQuery("SELECT id, title, symbol").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnnouncementsRepo_ListBySymbol(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnnouncementsRepo(db, time.Second)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "title", "symbol", "announced_at", "delisting", "created_at"}).
		AddRow("id-2", "Binance Will List NewCoin (NEW)", "NEW", now, false, now).
		AddRow("id-1", "Binance Will Delist NewCoin (NEW)", "NEW", now.Add(-time.Hour), true, now)

	mock.ExpectQuery("SELECT id, title, symbol").
		WithArgs("NEW", 10).
		WillReturnRows(rows)

	got, err := repo.ListBySymbol(context.Background(), "NEW", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "id-2", got[0].ID)
	assert.True(t, got[1].Delisting)
}

func TestAssessmentsRepo_InsertWithNilFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssessmentsRepo(db, time.Second)

	a := persistence.RiskAssessment{
		ContextType: "exchange_selection",
		ContextDesc: "exchange selection for NEW",
		AssessedAt:  time.Now().UTC(),
	}

	// All optional fields nil must reach the driver as NULLs, not defaults.
	mock.ExpectExec("INSERT INTO risk_assessments").
		WithArgs(a.ContextType, a.ContextDesc, nil, nil, nil, nil, nil, nil, nil, a.AssessedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentsRepo_ListByContext(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssessmentsRepo(db, time.Second)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "context_type", "context_desc", "exchange", "coin_listing", "coin_pair",
		"overall_risk_score", "liquidity", "trading_volume", "trading_fees",
		"assessed_at", "created_at",
	}).
		AddRow(int64(1), "exchange_selection", "exchange selection for NEW",
			"Binance", "NEWUSDT", nil, 3.0, "Low", "Medium", nil, now, now)

	mock.ExpectQuery("SELECT id, context_type").
		WithArgs("exchange_selection", 5).
		WillReturnRows(rows)

	got, err := repo.ListByContext(context.Background(), "exchange_selection", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)

	a := got[0]
	require.NotNil(t, a.Exchange)
	assert.Equal(t, "Binance", *a.Exchange)
	require.NotNil(t, a.OverallRiskScore)
	assert.Equal(t, 3.0, *a.OverallRiskScore)
	require.NotNil(t, a.Liquidity)
	assert.Equal(t, persistence.RiskLow, *a.Liquidity)
	require.NotNil(t, a.TradingVolume)
	assert.Equal(t, persistence.RiskMedium, *a.TradingVolume)
	assert.Nil(t, a.TradingFees)
	assert.Nil(t, a.CoinPair)
}

func TestDecisionsRepo_InsertWritesBackGeneratedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDecisionsRepo(db, time.Second)

	now := time.Now().UTC()
	score := 3.0
	d := &persistence.TradeDecision{
		Symbol:    "NEW",
		Exchange:  "Binance",
		RiskScore: &score,
		Executed:  true,
		DecidedAt: now,
	}

	mock.ExpectQuery("INSERT INTO trade_decisions").
		WithArgs(d.Symbol, d.Exchange, d.RiskScore, d.Executed, d.DecidedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	require.NoError(t, repo.Insert(context.Background(), d))
	assert.Equal(t, int64(42), d.ID)
	assert.Equal(t, now, d.CreatedAt)
}

func TestDecisionsRepo_ListBySymbolKeepsUnknownScore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDecisionsRepo(db, time.Second)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "symbol", "exchange", "risk_score", "executed", "decided_at", "created_at"}).
		AddRow(int64(2), "NEW", "Binance", nil, false, now, now).
		AddRow(int64(1), "NEW", "Binance", 3.0, true, now.Add(-time.Minute), now)

	mock.ExpectQuery("SELECT id, symbol, exchange").
		WithArgs("NEW", 10).
		WillReturnRows(rows)

	got, err := repo.ListBySymbol(context.Background(), "NEW", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].RiskScore, "a NULL score must read back as unknown")
	require.NotNil(t, got[1].RiskScore)
	assert.Equal(t, 3.0, *got[1].RiskScore)
}

func TestDecisionsRepo_InsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDecisionsRepo(db, time.Second)

	mock.ExpectQuery("INSERT INTO trade_decisions").
		WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), &persistence.TradeDecision{Symbol: "NEW"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert trade decision")
}

func TestErrorsRepo_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewErrorsRepo(db, time.Second)

	code := 500
	rec := persistence.ErrorRecord{
		Source:     "announcement-feed",
		Message:    "announcement feed returned 500",
		StatusCode: &code,
		OccurredAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO error_records").
		WithArgs(rec.Source, rec.Message, rec.StatusCode, rec.OccurredAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorsRepo_ListRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewErrorsRepo(db, time.Second)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "source", "message", "status_code", "occurred_at", "created_at"}).
		AddRow(int64(2), "announcement-feed", "feed timeout", nil, now, now).
		AddRow(int64(1), "announcement-feed", "announcement feed returned 500", 500, now.Add(-time.Minute), now)

	mock.ExpectQuery("SELECT id, source, message").
		WithArgs(20).
		WillReturnRows(rows)

	got, err := repo.ListRecent(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].StatusCode)
	require.NotNil(t, got[1].StatusCode)
	assert.Equal(t, 500, *got[1].StatusCode)
}
