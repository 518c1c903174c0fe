package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"candle_sync/internal/feature/candles/domain/entity"
	"candle_sync/internal/feature/candles/usecase"
	"candle_sync/internal/shared/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DefaultTable is the table holding one deployment's candle series.
const DefaultTable = "candlestick_data"

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

type candleGorm struct {
	db     *gorm.DB
	table  string
	series entity.Series
}

var _ usecase.CandleRepository = (*candleGorm)(nil)

// NewCandleRepository returns a repository for one series stored in table.
// An empty table name falls back to DefaultTable.
func NewCandleRepository(db *gorm.DB, table string, series entity.Series) *candleGorm {
	if table == "" {
		table = DefaultTable
	}
	return &candleGorm{db: db, table: table, series: series}
}

// CandleModel maps a row of the candle table. Date holds the open time in
// milliseconds and is the dedup key.
type CandleModel struct {
	ID     uint    `gorm:"column:id;primaryKey"`
	Date   int64   `gorm:"column:date;not null;uniqueIndex"`
	High   float64 `gorm:"column:high;not null"`
	Low    float64 `gorm:"column:low;not null"`
	Open   float64 `gorm:"column:open;not null"`
	Close  float64 `gorm:"column:close;not null"`
	Volume float64 `gorm:"column:volume;not null;default:0"`
}

func (CandleModel) TableName() string {
	return DefaultTable
}

func toModel(e entity.Candle) CandleModel {
	return CandleModel{
		Date:   e.OpenTime,
		High:   e.High,
		Low:    e.Low,
		Open:   e.Open,
		Close:  e.Close,
		Volume: e.Volume,
	}
}

func (r *candleGorm) toEntity(m CandleModel) entity.Candle {
	return entity.Candle{
		Symbol:    r.series.Symbol,
		Timeframe: r.series.Timeframe,
		OpenTime:  m.Date,
		Open:      m.Open,
		High:      m.High,
		Low:       m.Low,
		Close:     m.Close,
		Volume:    m.Volume,
	}
}

// InitSchema creates the candle table and its unique index when absent.
// Safe to call on every startup.
func (r *candleGorm) InitSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Table(r.table).AutoMigrate(&CandleModel{}); err != nil {
		return fmt.Errorf("%w: migrate %s: %w", apperr.ErrStorageUnavailable, r.table, err)
	}
	return nil
}

func (r *candleGorm) MaxOpenTime(ctx context.Context) (int64, bool, error) {
	var maxDate sql.NullInt64
	row := r.db.WithContext(ctx).Table(r.table).Select("MAX(date)").Row()
	if err := row.Scan(&maxDate); err != nil {
		return 0, false, fmt.Errorf("%w: max date: %w", apperr.ErrStorageUnavailable, err)
	}
	if !maxDate.Valid {
		return 0, false, nil
	}
	return maxDate.Int64, true, nil
}

func (r *candleGorm) Insert(ctx context.Context, candle entity.Candle) error {
	m := toModel(candle)
	if err := r.db.WithContext(ctx).Table(r.table).Create(&m).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: date=%d", apperr.ErrDuplicateKey, candle.OpenTime)
		}
		return fmt.Errorf("%w: insert date=%d: %w", apperr.ErrStorageUnavailable, candle.OpenTime, err)
	}
	return nil
}

func (r *candleGorm) Find(ctx context.Context, limit int) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).Table(r.table).Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: find: %w", apperr.ErrStorageUnavailable, err)
	}
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, r.toEntity(m))
	}
	return out, nil
}

// isDuplicateKey reports whether err is a unique constraint violation.
// gorm translates it to ErrDuplicatedKey when TranslateError is on; the
// driver-level checks cover connections opened without it.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
