package repositories

import (
	"context"

	"github.com/anonto42/nano-press/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository is the append-only payment ledger.
type TransactionRepository interface {
	// AppendTransaction inserts tx unless a row with the same payment id and
	// status exists; inserted is false for such duplicates.
	AppendTransaction(ctx context.Context, tx *models.Transaction) (inserted bool, err error)
	ListByUser(ctx context.Context, userID uint, p models.Pagination) ([]models.Transaction, int64, error)
}

// PostgresTransactionRepository implements TransactionRepository for PostgreSQL
type PostgresTransactionRepository struct {
	db *gorm.DB
}

// NewPostgresTransactionRepository creates a new PostgresTransactionRepository
func NewPostgresTransactionRepository(db *gorm.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) AppendTransaction(ctx context.Context, tx *models.Transaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_payment_id"}, {Name: "status"}},
			DoNothing: true,
		}).
		Create(tx)
	if res.Error != nil {
		return false, translate(res.Error, "transaction")
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresTransactionRepository) ListByUser(ctx context.Context, userID uint, p models.Pagination) ([]models.Transaction, int64, error) {
	txs := []models.Transaction{}
	var total int64
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "transaction")
	}
	if err := q.Order("created_at DESC, id DESC").Offset(p.Offset()).Limit(p.Limit).Find(&txs).Error; err != nil {
		return nil, 0, translate(err, "transaction")
	}
	return txs, total, nil
}
