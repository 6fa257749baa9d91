package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cine-reservas/internal/database"
	"github.com/iliyamo/cine-reservas/internal/model"
)

// Integration tests run against a throwaway MySQL database named by
// TEST_DB_DSN (parseTime=true required) and are skipped otherwise:
//
//	TEST_DB_DSN='root:pass@tcp(127.0.0.1:3306)/cine_test?parseTime=true' go test ./...
//
// Every test starts from empty tables and a freshly provisioned seat
// grid.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := testDSN(t)
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, database.CreateTables(ctx, db))
	for _, table := range []string{"reservations", "refresh_tokens", "users", "seats"} {
		_, err := db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}
	require.NoError(t, NewSeatRepo(db).Provision(ctx))
	return db
}

func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	return dsn
}

func newTestUser(t *testing.T, db *sql.DB, name string) model.User {
	t.Helper()
	u, err := NewUserRepo(db, 100, 10*time.Minute).Create(context.Background(), name, "secret", 4)
	require.NoError(t, err)
	return u
}

func seatByLabel(t *testing.T, db *sql.DB, row string, number int) model.Seat {
	t.Helper()
	var s model.Seat
	err := db.QueryRow(
		`SELECT id, row_letter, seat_number, status, is_premium FROM seats WHERE row_letter=? AND seat_number=?`,
		row, number).Scan(&s.ID, &s.RowLetter, &s.Number, &s.Status, &s.IsPremium)
	require.NoError(t, err)
	return s
}

func seatStatus(t *testing.T, db *sql.DB, seatID uint64) string {
	t.Helper()
	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM seats WHERE id=?`, seatID).Scan(&status))
	return status
}

func expireUser(t *testing.T, db *sql.DB, userID uint64) {
	t.Helper()
	_, err := db.Exec(`UPDATE users SET expires_at = UTC_TIMESTAMP() - INTERVAL 1 MINUTE WHERE id=?`, userID)
	require.NoError(t, err)
}

func TestReserveAndListByUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewReservationRepo(db)
	u := newTestUser(t, db, "alice")
	a1 := seatByLabel(t, db, "A", 1)
	a2 := seatByLabel(t, db, "A", 2)

	combo := "Combo Clásico"
	created, err := repo.Reserve(ctx, u.ID, []uint64{a1.ID, a2.ID}, &combo)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	assert.Equal(t, "reserved", seatStatus(t, db, a1.ID))
	assert.Equal(t, "reserved", seatStatus(t, db, a2.ID))

	mine, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.NotNil(t, mine[0].Combo)
	assert.Equal(t, combo, *mine[0].Combo)
}

func TestReserveMutualExclusion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewReservationRepo(db)
	u1 := newTestUser(t, db, "alice")
	u2 := newTestUser(t, db, "bob")
	target := seatByLabel(t, db, "C", 7)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []uint64{u1.ID, u2.ID} {
		wg.Add(1)
		go func(i int, uid uint64) {
			defer wg.Done()
			_, errs[i] = repo.Reserve(ctx, uid, []uint64{target.ID}, nil)
		}(i, uid)
	}
	wg.Wait()

	var ok, lost int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		var unavailable *SeatsUnavailableError
		require.ErrorAs(t, err, &unavailable)
		lost++
	}
	assert.Equal(t, 1, ok, "exactly one winner")
	assert.Equal(t, 1, lost, "exactly one loser")

	var holders int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reservations WHERE seat_id=?`, target.ID).Scan(&holders))
	assert.Equal(t, 1, holders)
}

func TestReserveAtomicity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewReservationRepo(db)
	u1 := newTestUser(t, db, "alice")
	u2 := newTestUser(t, db, "bob")
	taken := seatByLabel(t, db, "B", 1)
	free := seatByLabel(t, db, "B", 2)

	_, err := repo.Reserve(ctx, u1.ID, []uint64{taken.ID}, nil)
	require.NoError(t, err)

	_, err = repo.Reserve(ctx, u2.ID, []uint64{taken.ID, free.ID}, nil)
	var unavailable *SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.MissingIDs, taken.ID)

	// The free seat must not be touched by the failed batch.
	assert.Equal(t, "available", seatStatus(t, db, free.ID))
	mine, err := repo.ListByUser(ctx, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestReserveUserLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewReservationRepo(db)
	u := newTestUser(t, db, "alice")

	first := make([]uint64, 0, 5)
	for n := 1; n <= 5; n++ {
		first = append(first, seatByLabel(t, db, "F", n).ID)
	}
	_, err := repo.Reserve(ctx, u.ID, first, nil)
	require.NoError(t, err)

	more := []uint64{seatByLabel(t, db, "F", 6).ID, seatByLabel(t, db, "F", 7).ID}
	_, err = repo.Reserve(ctx, u.ID, more, nil)
	assert.ErrorIs(t, err, ErrUserLimitExceeded)

	mine, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 5, "failed batch must not partially land")
	assert.Equal(t, "available", seatStatus(t, db, more[0]))
}

func TestCancelIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewReservationRepo(db)
	u := newTestUser(t, db, "alice")
	s := seatByLabel(t, db, "G", 3)

	_, err := repo.Reserve(ctx, u.ID, []uint64{s.ID}, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Cancel(ctx, u.ID, s.ID))
	assert.Equal(t, "available", seatStatus(t, db, s.ID))

	assert.ErrorIs(t, repo.Cancel(ctx, u.ID, s.ID), ErrNotFound)
	assert.Equal(t, "available", seatStatus(t, db, s.ID))
}

func TestCancelOnlyOwn(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewReservationRepo(db)
	u1 := newTestUser(t, db, "alice")
	u2 := newTestUser(t, db, "bob")
	s := seatByLabel(t, db, "G", 5)

	_, err := repo.Reserve(ctx, u1.ID, []uint64{s.ID}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Cancel(ctx, u2.ID, s.ID), ErrNotFound)
	assert.Equal(t, "reserved", seatStatus(t, db, s.ID))
}

func TestRegistrationCap(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserRepo(db, 3, 10*time.Minute)

	var last model.User
	for i := 0; i < 3; i++ {
		u, err := users.Create(ctx, fmt.Sprintf("user%d", i), "secret", 4)
		require.NoError(t, err)
		last = u
	}

	_, err := users.Create(ctx, "overflow", "secret", 4)
	assert.ErrorIs(t, err, ErrCapacityFull)

	// An expired slot opens up again.
	expireUser(t, db, last.ID)
	_, err = users.Create(ctx, "late", "secret", 4)
	assert.NoError(t, err)
}

func TestRegistrationDuplicateName(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserRepo(db, 10, 10*time.Minute)

	_, err := users.Create(ctx, "Alice", "secret", 4)
	require.NoError(t, err)
	_, err = users.Create(ctx, "alice", "secret", 4)
	assert.ErrorIs(t, err, ErrUsernameExists, "usernames are case-insensitive")
}

func TestSweepExpiredCascades(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserRepo(db, 10, 10*time.Minute)
	repo := NewReservationRepo(db)

	u := newTestUser(t, db, "doomed")
	s1 := seatByLabel(t, db, "H", 1)
	s2 := seatByLabel(t, db, "H", 2)
	_, err := repo.Reserve(ctx, u.ID, []uint64{s1.ID, s2.ID}, nil)
	require.NoError(t, err)

	expireUser(t, db, u.ID)

	n, err := users.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var left int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reservations WHERE user_id=?`, u.ID).Scan(&left))
	assert.Zero(t, left)
	assert.Equal(t, "available", seatStatus(t, db, s1.ID))
	assert.Equal(t, "available", seatStatus(t, db, s2.ID))

	n, err = users.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second sweep finds nothing")
}

func TestReconcileCorrectsDrift(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seats := NewSeatRepo(db)
	repo := NewReservationRepo(db)
	u := newTestUser(t, db, "alice")

	held := seatByLabel(t, db, "A", 5)
	_, err := repo.Reserve(ctx, u.ID, []uint64{held.ID}, nil)
	require.NoError(t, err)

	// Inject drift in both directions.
	stale := seatByLabel(t, db, "A", 6)
	_, err = db.Exec(`UPDATE seats SET status='reserved' WHERE id=?`, stale.ID)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE seats SET status='available' WHERE id=?`, held.ID)
	require.NoError(t, err)

	require.NoError(t, seats.Reconcile(ctx))
	assert.Equal(t, "reserved", seatStatus(t, db, held.ID))
	assert.Equal(t, "available", seatStatus(t, db, stale.ID))

	// Idempotent: a second pass changes nothing.
	require.NoError(t, seats.Reconcile(ctx))
	assert.Equal(t, "reserved", seatStatus(t, db, held.ID))
	assert.Equal(t, "available", seatStatus(t, db, stale.ID))
}

func TestReconcileFreesSeatsOfExpiredUsers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seats := NewSeatRepo(db)
	repo := NewReservationRepo(db)
	u := newTestUser(t, db, "ghost")

	s := seatByLabel(t, db, "B", 8)
	_, err := repo.Reserve(ctx, u.ID, []uint64{s.ID}, nil)
	require.NoError(t, err)
	expireUser(t, db, u.ID)

	available, err := seats.ListAvailable(ctx, false)
	require.NoError(t, err)
	ids := make(map[uint64]bool, len(available))
	for _, seat := range available {
		ids[seat.ID] = true
	}
	assert.True(t, ids[s.ID], "a seat held only by an expired user reads as available")
}

func TestUpgradePicksBestSeats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	premium := NewPremiumRepo(db, NewSeatRepo(db))
	repo := NewReservationRepo(db)
	u := newTestUser(t, db, "alice")

	selected, err := premium.Upgrade(ctx, u.ID, true, 2)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "D4", selected[0].Label())
	assert.Equal(t, "D5", selected[1].Label())

	mine, err := repo.DetailsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, d := range mine {
		require.NotNil(t, d.Combo)
		assert.Equal(t, VIPCombo, *d.Combo)
	}
}

func TestUpgradeReplacesExistingReservations(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	premium := NewPremiumRepo(db, NewSeatRepo(db))
	repo := NewReservationRepo(db)
	u := newTestUser(t, db, "alice")

	old := seatByLabel(t, db, "A", 1)
	_, err := repo.Reserve(ctx, u.ID, []uint64{old.ID}, nil)
	require.NoError(t, err)

	selected, err := premium.Upgrade(ctx, u.ID, true, 1)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "D4", selected[0].Label())

	assert.Equal(t, "available", seatStatus(t, db, old.ID))
	mine, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestUpgradeAlreadyPremium(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	premium := NewPremiumRepo(db, NewSeatRepo(db))
	u := newTestUser(t, db, "alice")

	_, err := premium.Upgrade(ctx, u.ID, false, 1)
	require.NoError(t, err)

	_, err = premium.Upgrade(ctx, u.ID, false, 1)
	assert.ErrorIs(t, err, ErrAlreadyPremium)
}

func TestUpgradeSeatCountBounds(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	premium := NewPremiumRepo(db, NewSeatRepo(db))
	u := newTestUser(t, db, "alice")

	_, err := premium.Upgrade(ctx, u.ID, true, 5)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = premium.Upgrade(ctx, u.ID, true, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	fresh, err := NewUserRepo(db, 10, 10*time.Minute).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, fresh.IsPremium, "failed upgrade must not flip the flag")
}

func TestEnsureBot(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserRepo(db, 2, 10*time.Minute)

	id1, err := users.EnsureBot(ctx, 4)
	require.NoError(t, err)
	id2, err := users.EnsureBot(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// The bot does not count against the live-user cap.
	_, err = users.Create(ctx, "alice", "secret", 4)
	require.NoError(t, err)
	_, err = users.Create(ctx, "bob", "secret", 4)
	require.NoError(t, err)
	_, err = users.Create(ctx, "carol", "secret", 4)
	assert.ErrorIs(t, err, ErrCapacityFull)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tokens := NewTokenRepo(db)
	u := newTestUser(t, db, "alice")

	hash := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, hash, time.Now().UTC().Add(time.Hour)))

	uid, err := tokens.ValidateRefresh(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	require.NoError(t, tokens.RevokeByHash(ctx, hash))
	_, err = tokens.ValidateRefresh(ctx, hash)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
