package retention

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flowpulse/internal/config"
	"flowpulse/pkg/contracts/domain"
)

type datasetRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OwnerID   string `gorm:"size:128;not null;index:idx_datasets_owner_created,priority:1"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:false;index:idx_datasets_owner_created,priority:2"`

	Equipment []equipmentRecord `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`
}

func (datasetRecord) TableName() string { return "datasets" }

type equipmentRecord struct {
	DatasetID   int64   `gorm:"primaryKey;autoIncrement:false"`
	Position    int     `gorm:"primaryKey;autoIncrement:false"`
	Name        string  `gorm:"size:255;not null"`
	Type        string  `gorm:"size:255;not null"`
	Flowrate    float64 `gorm:"not null"`
	Pressure    float64 `gorm:"not null"`
	Temperature float64 `gorm:"not null"`
}

func (equipmentRecord) TableName() string { return "equipment" }

type datasetListRow struct {
	ID             int64
	Name           string
	CreatedAt      int64
	EquipmentCount int
}

// GormBackend persists datasets in PostgreSQL or MySQL through gorm
type GormBackend struct {
	db *gorm.DB
}

// OpenGormBackend connects with the driver matching the backend name and migrates the schema
func OpenGormBackend(backend, dsn string, log *slog.Logger) (*GormBackend, error) {
	var dialector gorm.Dialector
	switch backend {
	case config.BackendPostgres:
		dialector = postgres.Open(dsn)
	case config.BackendMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm backend %q", backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", backend, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if log != nil {
		log.Info("Database connected", slog.String("backend", backend))
	}
	return NewGormBackend(db)
}

// NewGormBackend wraps an open gorm handle and migrates the schema
func NewGormBackend(db *gorm.DB) (*GormBackend, error) {
	if err := db.AutoMigrate(&datasetRecord{}, &equipmentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormBackend{db: db}, nil
}

var readTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// Commit evicts the victims and inserts ds in one transaction
func (b *GormBackend) Commit(ctx context.Context, victims []domain.DatasetID, ds *domain.Dataset) (domain.DatasetID, error) {
	rec := datasetRecord{
		OwnerID:   ds.OwnerID,
		Name:      ds.Name,
		CreatedAt: ds.CreatedAt.UnixNano(),
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(victims) > 0 {
			ids := toInt64s(victims)
			if err := tx.Where("dataset_id IN ?", ids).Delete(&equipmentRecord{}).Error; err != nil {
				return fmt.Errorf("failed to delete evicted equipment: %w", err)
			}
			if err := tx.Where("id IN ?", ids).Delete(&datasetRecord{}).Error; err != nil {
				return fmt.Errorf("failed to delete evicted datasets: %w", err)
			}
		}

		if err := tx.Omit("Equipment").Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to insert dataset: %w", err)
		}

		if len(ds.Equipment) == 0 {
			return nil
		}
		rows := make([]equipmentRecord, len(ds.Equipment))
		for i, eq := range ds.Equipment {
			rows[i] = equipmentRecord{
				DatasetID:   rec.ID,
				Position:    i,
				Name:        eq.Name,
				Type:        eq.Type,
				Flowrate:    eq.Flowrate,
				Pressure:    eq.Pressure,
				Temperature: eq.Temperature,
			}
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("failed to insert equipment: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return domain.DatasetID(rec.ID), nil
}

// List returns the owner's datasets, most recent first
func (b *GormBackend) List(ctx context.Context, ownerID string) ([]domain.DatasetInfo, error) {
	var rows []datasetListRow
	err := b.db.WithContext(ctx).
		Table("datasets AS d").
		Select("d.id, d.name, d.created_at, COUNT(e.position) AS equipment_count").
		Joins("LEFT JOIN equipment e ON e.dataset_id = d.id").
		Where("d.owner_id = ?", ownerID).
		Group("d.id, d.name, d.created_at").
		Order("d.created_at DESC, d.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}

	result := make([]domain.DatasetInfo, 0, len(rows))
	for _, r := range rows {
		result = append(result, domain.DatasetInfo{
			ID:             domain.DatasetID(r.ID),
			Name:           r.Name,
			CreatedAt:      time.Unix(0, r.CreatedAt).UTC(),
			EquipmentCount: r.EquipmentCount,
		})
	}
	return result, nil
}

// Get loads a dataset and its equipment in one repeatable-read transaction
func (b *GormBackend) Get(ctx context.Context, id domain.DatasetID) (*domain.Dataset, error) {
	var rec datasetRecord
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Preload("Equipment", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).First(&rec, int64(id)).Error
	}, readTxOptions)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	ds := &domain.Dataset{
		ID:        domain.DatasetID(rec.ID),
		OwnerID:   rec.OwnerID,
		Name:      rec.Name,
		CreatedAt: time.Unix(0, rec.CreatedAt).UTC(),
		Equipment: make([]domain.Equipment, 0, len(rec.Equipment)),
	}
	for _, e := range rec.Equipment {
		ds.Equipment = append(ds.Equipment, domain.Equipment{
			Name:        e.Name,
			Type:        e.Type,
			Flowrate:    e.Flowrate,
			Pressure:    e.Pressure,
			Temperature: e.Temperature,
		})
	}
	return ds, nil
}

// Delete removes a dataset and its equipment
func (b *GormBackend) Delete(ctx context.Context, id domain.DatasetID) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dataset_id = ?", int64(id)).Delete(&equipmentRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete equipment: %w", err)
		}
		res := tx.Delete(&datasetRecord{}, int64(id))
		if res.Error != nil {
			return fmt.Errorf("failed to delete dataset: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Ping checks the connection pool
func (b *GormBackend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool
func (b *GormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

func toInt64s(ids []domain.DatasetID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
