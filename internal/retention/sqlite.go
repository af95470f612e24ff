package retention

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"flowpulse/pkg/contracts/domain"
)

// SQLiteBackend persists datasets in a SQLite file through modernc.org/sqlite
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path and initializes the schema
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by SQLite anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_owner ON datasets(owner_id, created_at);

	CREATE TABLE IF NOT EXISTS equipment (
		dataset_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		flowrate REAL NOT NULL,
		pressure REAL NOT NULL,
		temperature REAL NOT NULL,
		PRIMARY KEY (dataset_id, position),
		FOREIGN KEY (dataset_id) REFERENCES datasets(id)
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Commit evicts the victims and inserts ds in one transaction
func (b *SQLiteBackend) Commit(ctx context.Context, victims []domain.DatasetID, ds *domain.Dataset) (domain.DatasetID, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range victims {
		if err := deleteDatasetTx(ctx, tx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return 0, err
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (owner_id, name, created_at) VALUES (?, ?, ?)`,
		ds.OwnerID, ds.Name, ds.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to insert dataset: %w", err)
	}
	rawID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO equipment (dataset_id, position, name, type, flowrate, pressure, temperature)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare equipment insert: %w", err)
	}
	defer stmt.Close()

	for i, eq := range ds.Equipment {
		if _, err := stmt.ExecContext(ctx, rawID, i, eq.Name, eq.Type, eq.Flowrate, eq.Pressure, eq.Temperature); err != nil {
			return 0, fmt.Errorf("failed to insert equipment row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return domain.DatasetID(rawID), nil
}

// List returns the owner's datasets, most recent first
func (b *SQLiteBackend) List(ctx context.Context, ownerID string) ([]domain.DatasetInfo, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.created_at, COUNT(e.position)
		FROM datasets d
		LEFT JOIN equipment e ON e.dataset_id = d.id
		WHERE d.owner_id = ?
		GROUP BY d.id, d.name, d.created_at
		ORDER BY d.created_at DESC, d.id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	result := make([]domain.DatasetInfo, 0)
	for rows.Next() {
		var info domain.DatasetInfo
		var created int64
		if err := rows.Scan(&info.ID, &info.Name, &created, &info.EquipmentCount); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		info.CreatedAt = time.Unix(0, created).UTC()
		result = append(result, info)
	}
	return result, rows.Err()
}

// Get loads a dataset and its equipment inside one transaction
func (b *SQLiteBackend) Get(ctx context.Context, id domain.DatasetID) (*domain.Dataset, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ds := &domain.Dataset{ID: id}
	var created int64
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id, name, created_at FROM datasets WHERE id = ?`, id).
		Scan(&ds.OwnerID, &ds.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset: %w", err)
	}
	ds.CreatedAt = time.Unix(0, created).UTC()

	rows, err := tx.QueryContext(ctx, `
		SELECT name, type, flowrate, pressure, temperature
		FROM equipment WHERE dataset_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment: %w", err)
	}
	defer rows.Close()

	ds.Equipment = make([]domain.Equipment, 0)
	for rows.Next() {
		var eq domain.Equipment
		if err := rows.Scan(&eq.Name, &eq.Type, &eq.Flowrate, &eq.Pressure, &eq.Temperature); err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		ds.Equipment = append(ds.Equipment, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Delete removes a dataset and its equipment
func (b *SQLiteBackend) Delete(ctx context.Context, id domain.DatasetID) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDatasetTx(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Ping checks the database connection
func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func deleteDatasetTx(ctx context.Context, tx *sql.Tx, id domain.DatasetID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM equipment WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete equipment of dataset %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
