package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stockForecast/internal/domain"
	"stockForecast/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.DatasetRepository and ports.ForecastRepository
// interfaces using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/stock_forecast.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		filename TEXT NOT NULL,
		uploaded_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dataset_prices (
		dataset_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		date TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		PRIMARY KEY (dataset_id, seq)
	);

	CREATE TABLE IF NOT EXISTS forecasts (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL,
		forecast_days INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		rmse REAL DEFAULT NULL,
		mape REAL DEFAULT NULL,
		chart_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS forecast_points (
		forecast_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		date TEXT NOT NULL,
		forecast REAL NOT NULL,
		lower_bound REAL NOT NULL,
		upper_bound REAL NOT NULL,
		PRIMARY KEY (forecast_id, seq)
	);

	-- Lookups are by generated id only; created_at serves the recent-forecasts listing.
	CREATE INDEX IF NOT EXISTS idx_forecasts_created_at ON forecasts (created_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- DatasetRepository Implementation ---

// CreateDataset saves a new dataset together with all of its rows in one
// transaction, so a failed upload leaves no partial record behind.
func (r *Repository) CreateDataset(ctx context.Context, ds *domain.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin dataset transaction: %w", err)
	}
	defer tx.Rollback()

	const insertDataset = `
	INSERT INTO datasets (id, symbol, filename, uploaded_at)
	VALUES (?, ?, ?, ?)`

	if _, err := tx.ExecContext(ctx, insertDataset, ds.ID, ds.Symbol, ds.Filename, ds.UploadedAt); err != nil {
		return fmt.Errorf("failed to insert dataset %s: %w", ds.ID, err)
	}

	const insertRow = `
	INSERT INTO dataset_prices (dataset_id, seq, date, open, high, low, close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return fmt.Errorf("failed to prepare dataset row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range ds.Rows {
		if _, err := stmt.ExecContext(ctx, ds.ID, i, row.Date.Format(domain.DateLayout),
			row.Open, row.High, row.Low, row.Close, row.Volume); err != nil {
			return fmt.Errorf("failed to insert dataset %s row %d: %w", ds.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset %s: %w", ds.ID, err)
	}
	r.logger.Debug(ctx, "Dataset created", map[string]interface{}{"datasetID": ds.ID, "symbol": ds.Symbol, "rows": len(ds.Rows)})
	return nil
}

// FindDatasetByID retrieves a dataset and its rows by id.
func (r *Repository) FindDatasetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	const query = `
	SELECT id, symbol, filename, uploaded_at
	FROM datasets
	WHERE id = ?`

	ds := &domain.Dataset{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ds.ID, &ds.Symbol, &ds.Filename, &ds.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dataset %s: %w", id, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query dataset %s: %w", id, err)
	}

	const rowQuery = `
	SELECT date, open, high, low, close, volume
	FROM dataset_prices
	WHERE dataset_id = ?
	ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, rowQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset %s rows: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var pr domain.PriceRow
		var dateStr string
		if err := rows.Scan(&dateStr, &pr.Open, &pr.High, &pr.Low, &pr.Close, &pr.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan dataset %s row: %w", id, err)
		}
		pr.Date, err = time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt date %q in dataset %s: %w", dateStr, id, err)
		}
		ds.Rows = append(ds.Rows, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dataset %s rows: %w", id, err)
	}
	return ds, nil
}

// --- ForecastRepository Implementation ---

// CreateForecast saves a new forecast result and its points in one transaction.
func (r *Repository) CreateForecast(ctx context.Context, fr *domain.ForecastResult) error {
	chartJSON, err := json.Marshal(fr.Chart)
	if err != nil {
		return fmt.Errorf("failed to marshal chart payload for forecast %s: %w", fr.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin forecast transaction: %w", err)
	}
	defer tx.Rollback()

	const insertForecast = `
	INSERT INTO forecasts (id, dataset_id, forecast_days, created_at, rmse, mape, chart_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := tx.ExecContext(ctx, insertForecast,
		fr.ID, fr.DatasetID, fr.ForecastDays, fr.CreatedAt,
		nullable(fr.RMSE), nullable(fr.MAPE), string(chartJSON)); err != nil {
		return fmt.Errorf("failed to insert forecast %s: %w", fr.ID, err)
	}

	const insertPoint = `
	INSERT INTO forecast_points (forecast_id, seq, date, forecast, lower_bound, upper_bound)
	VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, insertPoint)
	if err != nil {
		return fmt.Errorf("failed to prepare forecast point insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range fr.Points {
		if _, err := stmt.ExecContext(ctx, fr.ID, i, p.Date.Format(domain.DateLayout),
			p.Value, p.Lower, p.Upper); err != nil {
			return fmt.Errorf("failed to insert forecast %s point %d: %w", fr.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit forecast %s: %w", fr.ID, err)
	}
	r.logger.Debug(ctx, "Forecast created", map[string]interface{}{"forecastID": fr.ID, "datasetID": fr.DatasetID, "points": len(fr.Points)})
	return nil
}

// FindForecastByID retrieves a forecast result by id, including chart payload
// and points.
func (r *Repository) FindForecastByID(ctx context.Context, id string) (*domain.ForecastResult, error) {
	const query = `
	SELECT id, dataset_id, forecast_days, created_at, rmse, mape, chart_json
	FROM forecasts
	WHERE id = ?`

	fr, err := scanForecast(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("forecast %s: %w", id, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query forecast %s: %w", id, err)
	}

	const pointQuery = `
	SELECT date, forecast, lower_bound, upper_bound
	FROM forecast_points
	WHERE forecast_id = ?
	ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, pointQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast %s points: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.ForecastPoint
		var dateStr string
		if err := rows.Scan(&dateStr, &p.Value, &p.Lower, &p.Upper); err != nil {
			return nil, fmt.Errorf("failed to scan forecast %s point: %w", id, err)
		}
		p.Date, err = time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt date %q in forecast %s: %w", dateStr, id, err)
		}
		fr.Points = append(fr.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast %s points: %w", id, err)
	}
	return fr, nil
}

// ListForecasts retrieves the most recent forecast results, newest first.
// Points are omitted; they are only needed for CSV export.
func (r *Repository) ListForecasts(ctx context.Context, limit int) ([]*domain.ForecastResult, error) {
	const query = `
	SELECT id, dataset_id, forecast_days, created_at, rmse, mape, chart_json
	FROM forecasts
	ORDER BY created_at DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	forecasts := make([]*domain.ForecastResult, 0)
	for rows.Next() {
		fr, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast during ListForecasts: %w", err)
		}
		forecasts = append(forecasts, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast rows: %w", err)
	}
	return forecasts, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning logic.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanForecast(s scanner) (*domain.ForecastResult, error) {
	fr := &domain.ForecastResult{}
	var rmse, mape sql.NullFloat64
	var chartJSON string
	if err := s.Scan(&fr.ID, &fr.DatasetID, &fr.ForecastDays, &fr.CreatedAt, &rmse, &mape, &chartJSON); err != nil {
		return nil, err
	}
	if rmse.Valid {
		fr.RMSE = &rmse.Float64
	}
	if mape.Valid {
		fr.MAPE = &mape.Float64
	}
	if err := json.Unmarshal([]byte(chartJSON), &fr.Chart); err != nil {
		return nil, fmt.Errorf("corrupt chart payload: %w", err)
	}
	return fr, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
