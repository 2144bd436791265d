package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"diabetesrisk/ml"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT,
        pregnancies INTEGER,
        glucose REAL,
        blood_pressure REAL,
        skin_thickness REAL,
        insulin REAL,
        bmi REAL,
        diabetes_pedigree REAL,
        age INTEGER,
        result TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_email ON predictions(email);
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        model_name VARCHAR(50),
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME,
        data_points INTEGER
    );
    `

// Store persists predictions and training runs in SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database file at path and makes sure
// the schema exists.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	database.SetMaxOpenConns(4)
	database.SetMaxIdleConns(2)

	store := NewStore(database, logger)
	if err := store.Init(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an already open handle. The schema is not touched.
func NewStore(database *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: database, logger: logger}
}

// Init creates the prediction and training log tables if absent.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PredictionRecord is one stored prediction. Rows are never updated.
type PredictionRecord struct {
	ID       int64       `json:"id"`
	Email    string      `json:"email"`
	Features ml.Features `json:"features"`
	Result   int         `json:"result"`
}

// SavePrediction appends a prediction for email and returns its row id.
func (s *Store) SavePrediction(ctx context.Context, email string, features ml.Features, label int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("database not initialized")
	}
	if label != 0 && label != 1 {
		return 0, fmt.Errorf("invalid prediction label %d", label)
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO predictions (
            email, pregnancies, glucose, blood_pressure, skin_thickness,
            insulin, bmi, diabetes_pedigree, age, result
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		email,
		features.Pregnancies,
		features.Glucose,
		features.BloodPressure,
		features.SkinThickness,
		features.Insulin,
		features.BMI,
		features.DiabetesPedigree,
		features.Age,
		strconv.Itoa(label),
	)
	if err != nil {
		return 0, fmt.Errorf("save prediction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save prediction: %w", err)
	}
	s.logger.Debug("prediction saved", zap.Int64("id", id), zap.Int("result", label))
	return id, nil
}

const predictionColumns = `id, email, pregnancies, glucose, blood_pressure, skin_thickness,
            insulin, bmi, diabetes_pedigree, age, result`

// PredictionHistory returns the predictions saved for email in insertion
// order. A user without predictions gets an empty slice.
func (s *Store) PredictionHistory(ctx context.Context, email string) ([]PredictionRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+predictionColumns+`
        FROM predictions
        WHERE email = ?
        ORDER BY id ASC`, email)
	if err != nil {
		return nil, fmt.Errorf("query prediction history: %w", err)
	}
	return scanPredictions(rows)
}

// AllPredictions returns every stored prediction in insertion order.
func (s *Store) AllPredictions(ctx context.Context) ([]PredictionRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+predictionColumns+`
        FROM predictions
        ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	return scanPredictions(rows)
}

func scanPredictions(rows *sql.Rows) ([]PredictionRecord, error) {
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var (
			r      PredictionRecord
			email  sql.NullString
			result sql.NullString
		)
		err := rows.Scan(&r.ID, &email,
			&r.Features.Pregnancies, &r.Features.Glucose, &r.Features.BloodPressure,
			&r.Features.SkinThickness, &r.Features.Insulin, &r.Features.BMI,
			&r.Features.DiabetesPedigree, &r.Features.Age, &result)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		r.Email = email.String
		if result.Valid {
			label, err := strconv.Atoi(result.String)
			if err != nil {
				return nil, fmt.Errorf("prediction %d has invalid result %q", r.ID, result.String)
			}
			r.Result = label
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	return records, nil
}

type TrainingLog struct {
	RunID      string    `json:"run_id"`
	ModelName  string    `json:"model_name"`
	Accuracy   float64   `json:"accuracy"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
}

// RecordTraining appends a training run to the training log.
func (s *Store) RecordTraining(ctx context.Context, report ml.TrainingReport) error {
	if s == nil || s.db == nil {
		return errors.New("database not initialized")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO training_log (
            run_id, model_name, accuracy, precision, recall, trained_at, data_points
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.ModelName,
		report.Accuracy,
		report.Precision,
		report.Recall,
		report.TrainedAt.UTC(),
		report.TrainSize+report.TestSize,
	)
	if err != nil {
		return fmt.Errorf("record training run: %w", err)
	}
	return nil
}

// LoadTrainingLog returns training runs, newest first.
func (s *Store) LoadTrainingLog(ctx context.Context) ([]TrainingLog, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT run_id, model_name, accuracy, precision, recall, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC, id DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query training log: %w", err)
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.RunID, &log.ModelName, &log.Accuracy, &log.Precision, &log.Recall, &log.TrainedAt, &log.DataPoints); err != nil {
			return nil, fmt.Errorf("scan training log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
