package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"storeops.dev/internal/auth"
	"storeops.dev/internal/track"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := New(db)
	s.SetClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	return s, mock
}

func TestRegisterStoreInsertsHashedPassword(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select 1 from stores where username = \$1`).
		WithArgs("qa1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`insert into stores\(id, name, location, username, password_hash, created_at\)`).
		WithArgs(sqlmock.AnyArg(), "Queen Anne", "Seattle", "qa1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	st, err := s.RegisterStore(context.Background(), track.RegisterParams{
		Name:     "Queen Anne",
		Location: "Seattle",
		Username: " QA1 ",
		Password: "p@ss1234",
	})
	if err != nil {
		t.Fatalf("RegisterStore: %v", err)
	}
	if st.Username != "qa1" {
		t.Fatalf("username not normalized: %q", st.Username)
	}
	if st.PasswordHash == "p@ss1234" || st.PasswordHash == "" {
		t.Fatalf("password not hashed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterStoreDuplicateDoesNotInsert(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select 1 from stores where username = \$1`).
		WithArgs("qa1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, err := s.RegisterStore(context.Background(), track.RegisterParams{
		Name:     "Queen Anne",
		Location: "Seattle",
		Username: "qa1",
		Password: "p@ss1234",
	})
	if !errors.Is(err, track.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthenticateStoreUnknownUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`select id, name, location, username, password_hash, created_at\s+from stores where username = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := s.AuthenticateStore(context.Background(), "ghost", "whatever")
	if !errors.Is(err, track.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateStoreWrongPassword(t *testing.T) {
	s, mock := newMockStore(t)

	hash, err := auth.HashPassword("p@ss1234")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	rows := sqlmock.NewRows([]string{"id", "name", "location", "username", "password_hash", "created_at"}).
		AddRow("store-1", "Queen Anne", "Seattle", "qa1", hash, time.Now())
	mock.ExpectQuery(`from stores where username = \$1`).WithArgs("qa1").WillReturnRows(rows)

	if _, err := s.AuthenticateStore(context.Background(), "qa1", "wrong"); !errors.Is(err, track.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestListTemperaturesQueryConstruction(t *testing.T) {
	s, mock := newMockStore(t)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	expected := regexp.QuoteMeta(
		`where store_id = $1 and equipment_type = $2 and machine_id = $3 and hopper = $4` +
			` and recorded_at >= $5 and recorded_at <= $6 order by recorded_at desc`)
	rows := sqlmock.NewRows([]string{"id", "store_id", "equipment_type", "machine_id", "hopper", "temperature", "recorded_at"}).
		AddRow("rec-1", "store-1", "Ice Cream Machine", 3, "A", -2.5, from)
	mock.ExpectQuery(expected).
		WithArgs("store-1", "Ice Cream Machine", 3, "A", from, to).
		WillReturnRows(rows)

	recs, err := s.ListTemperatures(context.Background(), "store-1", track.TemperatureFilter{
		EquipmentType: track.EquipmentIceCreamMachine,
		MachineID:     3,
		Hopper:        track.HopperA,
		Range:         track.RangeFilter{From: from, To: to},
	})
	if err != nil {
		t.Fatalf("ListTemperatures: %v", err)
	}
	if len(recs) != 1 || recs[0].Hopper != track.HopperA {
		t.Fatalf("unexpected result: %+v", recs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListTemperaturesEmptyFilterStillScopesByStore(t *testing.T) {
	s, mock := newMockStore(t)

	expected := regexp.QuoteMeta(`where store_id = $1 order by recorded_at desc`)
	mock.ExpectQuery(expected).
		WithArgs("store-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "equipment_type", "machine_id", "hopper", "temperature", "recorded_at"}))

	recs, err := s.ListTemperatures(context.Background(), "store-1", track.TemperatureFilter{})
	if err != nil {
		t.Fatalf("ListTemperatures: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty result, got %d", len(recs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListTipsSingleBoundRange(t *testing.T) {
	s, mock := newMockStore(t)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expected := regexp.QuoteMeta(`from tips where store_id = $1 and recorded_at >= $2 order by recorded_at desc`)
	mock.ExpectQuery(expected).
		WithArgs("store-1", from).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "amount", "notes", "recorded_at"}).
			AddRow("tip-1", "store-1", 42.5, nil, from))

	tips, err := s.ListTips(context.Background(), "store-1", track.RangeFilter{From: from})
	if err != nil {
		t.Fatalf("ListTips: %v", err)
	}
	if len(tips) != 1 || tips[0].Notes != "" {
		t.Fatalf("unexpected tips: %+v", tips)
	}
}

func TestCreateTemperatureRejectsInvalidInputWithoutSQL(t *testing.T) {
	s, mock := newMockStore(t)

	// No expectations: validation fails before any statement runs.
	_, err := s.CreateTemperature(context.Background(), "store-1", track.TemperatureInput{
		EquipmentType: track.EquipmentIceCreamMachine,
		MachineID:     3,
	})
	if !errors.Is(err, track.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected SQL executed: %v", err)
	}
}

func TestRestockItemNotFoundForForeignStore(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`from out_of_stock where id = \$1 and store_id = \$2`).
		WithArgs("item-1", "intruder").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.RestockItem(context.Background(), "intruder", "item-1")
	if !errors.Is(err, track.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRestockItemAlreadyRestocked(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "store_id", "item_name", "quantity", "notes", "status", "recorded_at"}).
		AddRow("item-1", "store-1", "Waffle Cones", 4, nil, track.StatusRestocked, time.Now())
	mock.ExpectBegin()
	mock.ExpectQuery(`from out_of_stock where id = \$1 and store_id = \$2`).
		WithArgs("item-1", "store-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := s.RestockItem(context.Background(), "store-1", "item-1")
	if !errors.Is(err, track.ErrAlreadyRestocked) {
		t.Fatalf("expected ErrAlreadyRestocked, got %v", err)
	}
}

func TestRestockItemTransitions(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "store_id", "item_name", "quantity", "notes", "status", "recorded_at"}).
		AddRow("item-1", "store-1", "Waffle Cones", 4, "back row", track.StatusOutstanding, time.Now())
	mock.ExpectBegin()
	mock.ExpectQuery(`from out_of_stock where id = \$1 and store_id = \$2`).
		WithArgs("item-1", "store-1").
		WillReturnRows(rows)
	mock.ExpectExec(`update out_of_stock set status = \$1 where id = \$2 and store_id = \$3`).
		WithArgs(track.StatusRestocked, "item-1", "store-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := s.RestockItem(context.Background(), "store-1", "item-1")
	if err != nil {
		t.Fatalf("RestockItem: %v", err)
	}
	if item.Status != track.StatusRestocked {
		t.Fatalf("unexpected status: %s", item.Status)
	}
	if item.Notes != "back row" {
		t.Fatalf("unexpected notes: %q", item.Notes)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteOutOfStockNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`delete from out_of_stock where id = \$1 and store_id = \$2`).
		WithArgs("item-1", "store-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteOutOfStock(context.Background(), "store-1", "item-1"); !errors.Is(err, track.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
