package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/palemoky/emoguchi/internal/apperrors"
	"github.com/palemoky/emoguchi/internal/game/room"
)

// RoomRecord rooms 表的一行：常用字段单独成列，完整房间以 JSON 存放
type RoomRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Phase     string `gorm:"size:16;index"`
	Players   int
	Data      string `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName gorm 表名
func (RoomRecord) TableName() string { return "rooms" }

// PostgresStore 基于 gorm 的 PostgreSQL 房间仓库
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres 连接 PostgreSQL 并迁移 rooms 表
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&RoomRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

// NewPostgresStore 创建 PostgreSQL 仓库
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (ps *PostgresStore) Create(ctx context.Context, r *room.Room) error {
	rec, err := toRecord(r)
	if err != nil {
		return err
	}
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&RoomRecord{}).Where("id = ?", r.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrRoomExists
		}
		return tx.Create(rec).Error
	})
}

func (ps *PostgresStore) Get(ctx context.Context, id string) (*room.Room, error) {
	var rec RoomRecord
	err := ps.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return fromRecord(&rec)
}

func (ps *PostgresStore) Update(ctx context.Context, r *room.Room) error {
	rec, err := toRecord(r)
	if err != nil {
		return err
	}
	res := ps.db.WithContext(ctx).Model(&RoomRecord{}).Where("id = ?", r.ID).Updates(map[string]any{
		"phase":      rec.Phase,
		"players":    rec.Players,
		"data":       rec.Data,
		"updated_at": rec.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrRoomNotFound
	}
	return nil
}

func (ps *PostgresStore) Delete(ctx context.Context, id string) error {
	return ps.db.WithContext(ctx).Where("id = ?", id).Delete(&RoomRecord{}).Error
}

func (ps *PostgresStore) List(ctx context.Context) ([]*room.Room, error) {
	var recs []RoomRecord
	if err := ps.db.WithContext(ctx).Order("created_at").Find(&recs).Error; err != nil {
		return nil, err
	}

	rooms := make([]*room.Room, 0, len(recs))
	for i := range recs {
		r, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, nil
}

func toRecord(r *room.Room) (*RoomRecord, error) {
	data, err := room.Marshal(r)
	if err != nil {
		return nil, err
	}
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return &RoomRecord{
		ID:        r.ID,
		Phase:     string(r.Phase),
		Players:   len(r.Players),
		Data:      string(data),
		CreatedAt: r.CreatedAt,
		UpdatedAt: updated,
	}, nil
}

func fromRecord(rec *RoomRecord) (*room.Room, error) {
	return room.Unmarshal([]byte(rec.Data))
}
