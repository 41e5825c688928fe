package memory

import (
	"context"
	"time"

	"github.com/anonto42/nano-press/backend/internal/models"
)

func (s *Store) AppendTransaction(_ context.Context, tx *models.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.StripePaymentID == tx.StripePaymentID && existing.Status == tx.Status {
			return false, nil
		}
	}
	tx.ID = s.nextID()
	tx.CreatedAt = s.now()
	if tx.Currency == "" {
		tx.Currency = "usd"
	}
	s.transactions = append(s.transactions, *tx)
	return true, nil
}

func (s *Store) ListByUser(_ context.Context, userID uint, p models.Pagination) ([]models.Transaction, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []models.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			txs = append(txs, tx)
		}
	}
	sortByCreatedDesc(txs,
		func(t models.Transaction) time.Time { return t.CreatedAt },
		func(t models.Transaction) uint { return t.ID })
	return paginate(txs, p), int64(len(txs)), nil
}
