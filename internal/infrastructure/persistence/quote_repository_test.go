package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/domain/quote"
	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/quotedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupQuoteTestDB creates an in-memory SQLite database for testing
func setupQuoteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&quote.Quote{}, &quote.Item{}))
	return db
}

func newPersistedQuote(t *testing.T, folio string) *quote.Quote {
	q, err := quote.New(folio, uuid.New(), "Aceros del Sur SpA")
	require.NoError(t, err)
	_, err = q.AddItem("FLG-150", "Flange 150mm", 2, valueobject.NewMoneyCLPFromFloat(45000), "")
	require.NoError(t, err)
	return q
}

func TestGormQuoteRepository_SaveAndFind(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	q := newPersistedQuote(t, "Q-1000")
	require.NoError(t, repo.Save(ctx, q))

	found, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q-1000", found.Folio)
	assert.Equal(t, 1, found.Version)
	assert.Len(t, found.Items, 1)
	assert.True(t, found.Subtotal.Equal(decimal.NewFromInt(90000)))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormQuoteRepository_Save_DuplicateFolioVersion(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newPersistedQuote(t, "Q-1000")))

	err := repo.Save(ctx, newPersistedQuote(t, "Q-1000"))
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestGormQuoteRepository_SaveRevision(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	parent := newPersistedQuote(t, "Q-1000")
	require.NoError(t, parent.Submit())
	require.NoError(t, repo.Save(ctx, parent))

	rev, err := quote.NewRevision(parent)
	require.NoError(t, err)
	require.NoError(t, repo.SaveRevision(ctx, rev))

	latest, err := repo.FindLatestByFolio(ctx, "Q-1000")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, quote.StatusOpen, latest.Status)

	all, err := repo.FindByFolio(ctx, "Q-1000")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, 2, all[1].Version)
}

func TestGormQuoteRepository_SaveRevision_ConcurrentLoser(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	parent := newPersistedQuote(t, "Q-1000")
	require.NoError(t, parent.Submit())
	require.NoError(t, repo.Save(ctx, parent))

	// Two revisions derived from the same parent both target version 2
	first, err := quote.NewRevision(parent)
	require.NoError(t, err)
	second, err := quote.NewRevision(parent)
	require.NoError(t, err)

	require.NoError(t, repo.SaveRevision(ctx, first))

	err = repo.SaveRevision(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConflict)

	latest, err := repo.FindLatestByFolio(ctx, "Q-1000")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version, "exactly one revision lands")
}

func TestGormQuoteRepository_SaveRevision_UnknownFolio(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)

	orphan := newPersistedQuote(t, "Q-9999")
	orphan.Version = 2

	err := repo.SaveRevision(context.Background(), orphan)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormQuoteRepository_FindLatestByFolio_IgnoresStatus(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	parent := newPersistedQuote(t, "Q-1000")
	require.NoError(t, parent.Submit())
	require.NoError(t, repo.Save(ctx, parent))

	rev, err := quote.NewRevision(parent)
	require.NoError(t, err)
	require.NoError(t, rev.Reject())
	require.NoError(t, repo.SaveRevision(ctx, rev))

	// The rejected revision is still the latest lineage member
	latest, err := repo.FindLatestByFolio(ctx, "Q-1000")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, quote.StatusRejected, latest.Status)
}

func TestGormQuoteRepository_UpdateStatus(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	q := newPersistedQuote(t, "Q-1000")
	require.NoError(t, q.Submit())
	require.NoError(t, repo.Save(ctx, q))

	previous := q.Status
	require.NoError(t, q.Accept())
	require.NoError(t, repo.UpdateStatus(ctx, q, previous))

	found, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.StatusAccepted, found.Status)
	assert.NotNil(t, found.AcceptedAt)
}

func TestGormQuoteRepository_UpdateStatus_ConcurrentLoser(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	q := newPersistedQuote(t, "Q-1000")
	require.NoError(t, q.Submit())
	require.NoError(t, repo.Save(ctx, q))

	// First transition wins
	winner := *q
	previous := winner.Status
	require.NoError(t, winner.Accept())
	require.NoError(t, repo.UpdateStatus(ctx, &winner, previous))

	// Second transition raced from the same open state and loses
	loser := *q
	require.NoError(t, loser.Reject())
	err := repo.UpdateStatus(ctx, &loser, previous)
	assert.ErrorIs(t, err, shared.ErrConflict)

	found, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.StatusAccepted, found.Status, "winner's transition is untouched")
}

func TestGormQuoteRepository_UpdateStatus_NotFound(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)

	q := newPersistedQuote(t, "Q-1000")
	require.NoError(t, q.Submit())

	err := repo.UpdateStatus(context.Background(), q, quote.StatusDraft)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormQuoteRepository_FindAllAndCount(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	clientID := uuid.New()
	for _, folio := range []string{"Q-1000", "Q-1001", "Q-1002"} {
		q, err := quote.New(folio, clientID, "Aceros del Sur SpA")
		require.NoError(t, err)
		_, err = q.AddItem("FLG-150", "Flange 150mm", 1, valueobject.NewMoneyCLPFromFloat(1000), "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, q))
	}

	filter := shared.DefaultFilter()
	filter.Filters["client_id"] = clientID

	quotes, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, quotes, 3)

	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	filter.Filters["folio"] = "Q-1001"
	quotes, err = repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Q-1001", quotes[0].Folio)
}

func TestGormQuoteRepository_FindAll_LatestOnly(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	parent := newPersistedQuote(t, "Q-1000")
	require.NoError(t, parent.Submit())
	require.NoError(t, repo.Save(ctx, parent))

	rev, err := quote.NewRevision(parent)
	require.NoError(t, err)
	require.NoError(t, repo.SaveRevision(ctx, rev))

	filter := shared.DefaultFilter()
	filter.Filters["latest_only"] = true

	quotes, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 2, quotes[0].Version)
}

func TestGormQuoteRepository_FindAll_OrderByWhitelisted(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, folio := range []string{"Q-1000", "Q-1001", "Q-1002"} {
		q := newPersistedQuote(t, folio)
		q.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, q))
	}

	filter := shared.DefaultFilter()
	filter.OrderBy = "folio"
	filter.OrderDir = "asc"
	quotes, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, "Q-1000", quotes[0].Folio)

	// An order expression not on the whitelist never reaches the SQL;
	// listing falls back to created_at descending
	filter.OrderBy = "(SELECT CASE WHEN (SELECT COUNT(*) FROM clients) >= 0 THEN version ELSE folio END)"
	filter.OrderDir = ""
	quotes, err = repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, "Q-1002", quotes[0].Folio)
}
