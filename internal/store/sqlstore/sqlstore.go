// Package sqlstore implements track.Service on database/sql. The same SQL
// serves PostgreSQL (pgx) and SQLite (mattn/go-sqlite3): placeholders use the
// $N form both engines accept, and timestamps are bound from Go rather than
// generated in the database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"storeops.dev/internal/auth"
	"storeops.dev/internal/ids"
	"storeops.dev/internal/track"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ track.Service = (*Store)(nil)

// Open connects using the given driver ("pgx" or "sqlite3") and DSN.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "pgx", "sqlite3":
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		// Single writer; the driver serializes access to the file.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(15 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	return New(db), nil
}

// New wraps an existing connection. Used by tests with sqlmock.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// SetClock overrides the time source. Only intended for test use.
func (s *Store) SetClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

func (s *Store) RegisterStore(ctx context.Context, params track.RegisterParams) (track.Store, error) {
	if err := params.Validate(); err != nil {
		return track.Store{}, err
	}
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return track.Store{}, err
	}
	username := strings.ToLower(strings.TrimSpace(params.Username))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return track.Store{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `select 1 from stores where username = $1`, username).Scan(&exists)
	if err == nil {
		return track.Store{}, track.ErrDuplicateUsername
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return track.Store{}, err
	}

	st := track.Store{
		ID:           ids.New(),
		Name:         params.Name,
		Location:     params.Location,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		insert into stores(id, name, location, username, password_hash, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, st.ID, st.Name, st.Location, st.Username, st.PasswordHash, st.CreatedAt); err != nil {
		return track.Store{}, err
	}
	if err := tx.Commit(); err != nil {
		return track.Store{}, err
	}
	return st, nil
}

func (s *Store) AuthenticateStore(ctx context.Context, username, password string) (track.Store, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	st, err := s.findStore(ctx, `username = $1`, username)
	if errors.Is(err, track.ErrNotFound) {
		// Same failure for unknown user and wrong password.
		return track.Store{}, track.ErrInvalidCredentials
	}
	if err != nil {
		return track.Store{}, err
	}
	if err := auth.VerifyPassword(st.PasswordHash, password); err != nil {
		return track.Store{}, track.ErrInvalidCredentials
	}
	return st, nil
}

func (s *Store) GetStore(ctx context.Context, id string) (track.Store, error) {
	return s.findStore(ctx, `id = $1`, id)
}

func (s *Store) findStore(ctx context.Context, cond string, arg any) (track.Store, error) {
	var st track.Store
	err := s.db.QueryRowContext(ctx, `
		select id, name, location, username, password_hash, created_at
		from stores where `+cond, arg).
		Scan(&st.ID, &st.Name, &st.Location, &st.Username, &st.PasswordHash, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return track.Store{}, track.ErrNotFound
	}
	if err != nil {
		return track.Store{}, err
	}
	return st, nil
}

func (s *Store) CreateTemperature(ctx context.Context, storeID string, in track.TemperatureInput) (track.Temperature, error) {
	if err := in.Validate(); err != nil {
		return track.Temperature{}, err
	}
	rec := track.Temperature{
		ID:            ids.New(),
		StoreID:       storeID,
		EquipmentType: in.EquipmentType,
		MachineID:     in.MachineID,
		Hopper:        in.Hopper,
		Temperature:   in.Temperature,
		RecordedAt:    s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		insert into temperatures(id, store_id, equipment_type, machine_id, hopper, temperature, recorded_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, rec.ID, rec.StoreID, string(rec.EquipmentType), rec.MachineID, nullable(string(rec.Hopper)), rec.Temperature, rec.RecordedAt)
	if err != nil {
		return track.Temperature{}, err
	}
	return rec, nil
}

func (s *Store) ListTemperatures(ctx context.Context, storeID string, filter track.TemperatureFilter) ([]track.Temperature, error) {
	// The owning-store predicate always comes first and cannot be
	// overridden by caller-supplied filters.
	where, args := newPredicate(storeID)
	if filter.EquipmentType != "" {
		where.add(&args, "equipment_type =", string(filter.EquipmentType))
	}
	if filter.MachineID != 0 {
		where.add(&args, "machine_id =", filter.MachineID)
	}
	if filter.Hopper != "" {
		where.add(&args, "hopper =", string(filter.Hopper))
	}
	where.addRange(&args, filter.Range)

	rows, err := s.db.QueryContext(ctx, `
		select id, store_id, equipment_type, machine_id, hopper, temperature, recorded_at
		from temperatures where `+where.String()+` order by recorded_at desc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]track.Temperature, 0)
	for rows.Next() {
		var (
			rec    track.Temperature
			equip  string
			hopper sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.StoreID, &equip, &rec.MachineID, &hopper, &rec.Temperature, &rec.RecordedAt); err != nil {
			return nil, err
		}
		rec.EquipmentType = track.EquipmentType(equip)
		if hopper.Valid {
			rec.Hopper = track.Hopper(hopper.String)
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (s *Store) CreateTip(ctx context.Context, storeID string, in track.TipInput) (track.Tip, error) {
	if err := in.Validate(); err != nil {
		return track.Tip{}, err
	}
	rec := track.Tip{
		ID:         ids.New(),
		StoreID:    storeID,
		Amount:     in.Amount,
		Notes:      in.Notes,
		RecordedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		insert into tips(id, store_id, amount, notes, recorded_at)
		values ($1,$2,$3,$4,$5)
	`, rec.ID, rec.StoreID, rec.Amount, nullable(rec.Notes), rec.RecordedAt)
	if err != nil {
		return track.Tip{}, err
	}
	return rec, nil
}

func (s *Store) ListTips(ctx context.Context, storeID string, filter track.RangeFilter) ([]track.Tip, error) {
	where, args := newPredicate(storeID)
	where.addRange(&args, filter)

	rows, err := s.db.QueryContext(ctx, `
		select id, store_id, amount, notes, recorded_at
		from tips where `+where.String()+` order by recorded_at desc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]track.Tip, 0)
	for rows.Next() {
		var (
			rec   track.Tip
			notes sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.StoreID, &rec.Amount, &notes, &rec.RecordedAt); err != nil {
			return nil, err
		}
		rec.Notes = notes.String
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (s *Store) CreateOutOfStock(ctx context.Context, storeID string, in track.OutOfStockInput) (track.OutOfStockItem, error) {
	if err := in.Validate(); err != nil {
		return track.OutOfStockItem{}, err
	}
	rec := track.OutOfStockItem{
		ID:         ids.New(),
		StoreID:    storeID,
		ItemName:   in.ItemName,
		Quantity:   in.Quantity,
		Notes:      in.Notes,
		Status:     track.StatusOutstanding,
		RecordedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		insert into out_of_stock(id, store_id, item_name, quantity, notes, status, recorded_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, rec.ID, rec.StoreID, rec.ItemName, rec.Quantity, nullable(rec.Notes), rec.Status, rec.RecordedAt)
	if err != nil {
		return track.OutOfStockItem{}, err
	}
	return rec, nil
}

func (s *Store) ListOutOfStock(ctx context.Context, storeID string, filter track.RangeFilter) ([]track.OutOfStockItem, error) {
	where, args := newPredicate(storeID)
	where.addRange(&args, filter)

	rows, err := s.db.QueryContext(ctx, `
		select id, store_id, item_name, quantity, notes, status, recorded_at
		from out_of_stock where `+where.String()+` order by recorded_at desc`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]track.OutOfStockItem, 0)
	for rows.Next() {
		var (
			rec   track.OutOfStockItem
			notes sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.StoreID, &rec.ItemName, &rec.Quantity, &notes, &rec.Status, &rec.RecordedAt); err != nil {
			return nil, err
		}
		rec.Notes = notes.String
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (s *Store) RestockItem(ctx context.Context, storeID, itemID string) (track.OutOfStockItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return track.OutOfStockItem{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		rec   track.OutOfStockItem
		notes sql.NullString
	)
	// Ownership check folded into the lookup: a record owned by another
	// store is indistinguishable from a missing one.
	err = tx.QueryRowContext(ctx, `
		select id, store_id, item_name, quantity, notes, status, recorded_at
		from out_of_stock where id = $1 and store_id = $2
	`, itemID, storeID).Scan(&rec.ID, &rec.StoreID, &rec.ItemName, &rec.Quantity, &notes, &rec.Status, &rec.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return track.OutOfStockItem{}, track.ErrNotFound
	}
	if err != nil {
		return track.OutOfStockItem{}, err
	}
	rec.Notes = notes.String
	if rec.Status == track.StatusRestocked {
		return track.OutOfStockItem{}, track.ErrAlreadyRestocked
	}

	if _, err := tx.ExecContext(ctx, `
		update out_of_stock set status = $1 where id = $2 and store_id = $3
	`, track.StatusRestocked, itemID, storeID); err != nil {
		return track.OutOfStockItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return track.OutOfStockItem{}, err
	}
	rec.Status = track.StatusRestocked
	return rec, nil
}

func (s *Store) DeleteOutOfStock(ctx context.Context, storeID, itemID string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from out_of_stock where id = $1 and store_id = $2
	`, itemID, storeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return track.ErrNotFound
	}
	return nil
}

// --- predicate helpers ---

// predicate accumulates ANDed WHERE clauses with positional placeholders.
// The first clause is always the owning-store match.
type predicate []string

func newPredicate(storeID string) (predicate, []any) {
	return predicate{"store_id = $1"}, []any{storeID}
}

func (p *predicate) add(args *[]any, expr string, value any) {
	*args = append(*args, value)
	*p = append(*p, fmt.Sprintf("%s $%d", expr, len(*args)))
}

func (p *predicate) addRange(args *[]any, r track.RangeFilter) {
	// Inclusive on both ends; each bound applies independently.
	if !r.From.IsZero() {
		p.add(args, "recorded_at >=", r.From)
	}
	if !r.To.IsZero() {
		p.add(args, "recorded_at <=", r.To)
	}
}

func (p predicate) String() string { return strings.Join(p, " and ") }

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
