// Package mysql 价格快照的 MySQL 落库实现。
package mysql

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

// SnapshotPO
type SnapshotPO struct {
	ID        uint            `gorm:"primarykey"`
	Ticker    string          `gorm:"column:ticker;type:varchar(20);index:idx_ticker_asof;not null"`
	Symbol    string          `gorm:"column:symbol;type:varchar(20);not null"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null"`
	Currency  string          `gorm:"column:currency;type:varchar(8);not null"`
	Source    string          `gorm:"column:source;type:varchar(16);not null"`
	AsOf      time.Time       `gorm:"column:as_of;index:idx_ticker_asof;not null"`
	CreatedAt time.Time
}

func (SnapshotPO) TableName() string { return "marketdata_snapshots" }

func (po *SnapshotPO) ToDomain() *domain.PriceSnapshot {
	return &domain.PriceSnapshot{
		Ticker:   po.Ticker,
		Symbol:   po.Symbol,
		Price:    po.Price,
		Currency: po.Currency,
		Source:   domain.SnapshotSource(po.Source),
		AsOf:     po.AsOf,
	}
}

func (po *SnapshotPO) FromDomain(snap *domain.PriceSnapshot) {
	po.Ticker = snap.Ticker
	po.Symbol = snap.Symbol
	po.Price = snap.Price
	po.Currency = snap.Currency
	po.Source = string(snap.Source)
	po.AsOf = snap.AsOf
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建基于 MySQL 的快照历史仓储。
func NewSnapshotRepository(db *gorm.DB) domain.SnapshotHistoryRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Save(ctx context.Context, snap *domain.PriceSnapshot) error {
	var po SnapshotPO
	po.FromDomain(snap)
	return r.db.WithContext(ctx).Create(&po).Error
}

func (r *snapshotRepository) History(ctx context.Context, ticker string, limit int) ([]*domain.PriceSnapshot, error) {
	var pos []SnapshotPO
	if err := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("as_of desc").
		Limit(limit).
		Find(&pos).Error; err != nil {
		return nil, err
	}
	snaps := make([]*domain.PriceSnapshot, 0, len(pos))
	for i := range pos {
		snaps = append(snaps, pos[i].ToDomain())
	}
	return snaps, nil
}
