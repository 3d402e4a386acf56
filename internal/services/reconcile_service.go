// internal/services/reconcile_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/highdeium-backend/internal/database"
	"github.com/javajoker/highdeium-backend/internal/models"
)

// ReconcileService recomputes denormalized counters from the rows they
// summarize and repairs any that drifted.
type ReconcileService struct {
	db *gorm.DB
}

type ReconcileResult struct {
	LikeCounts    int64 `json:"like_counts"`
	CommentCounts int64 `json:"comment_counts"`
	Earnings      int64 `json:"earnings"`
}

// Total is the number of rows corrected.
func (r ReconcileResult) Total() int64 {
	return r.LikeCounts + r.CommentCounts + r.Earnings
}

const (
	likeCountSQL = `UPDATE books SET like_count = (SELECT COUNT(*) FROM likes WHERE likes.book_id = books.id)
WHERE like_count <> (SELECT COUNT(*) FROM likes WHERE likes.book_id = books.id)`

	commentCountSQL = `UPDATE books SET comment_count = (SELECT COUNT(*) FROM comments WHERE comments.book_id = books.id)
WHERE comment_count <> (SELECT COUNT(*) FROM comments WHERE comments.book_id = books.id)`

	// Purchases of soft-deleted books still count toward earnings.
	earningsSQL = `UPDATE users SET total_earnings = (
	SELECT COALESCE(SUM(purchases.amount), 0) FROM purchases
	JOIN books ON books.id = purchases.book_id
	WHERE books.author_id = users.id)
WHERE ABS(total_earnings - (
	SELECT COALESCE(SUM(purchases.amount), 0) FROM purchases
	JOIN books ON books.id = purchases.book_id
	WHERE books.author_id = users.id)) >= 0.005`
)

func NewReconcileService(db *gorm.DB) *ReconcileService {
	return &ReconcileService{db: db}
}

// Reconcile fixes like counts, comment counts and author earnings in one
// transaction.
func (s *ReconcileService) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		steps := []struct {
			name  string
			sql   string
			count *int64
		}{
			{"like_count", likeCountSQL, &result.LikeCounts},
			{"comment_count", commentCountSQL, &result.CommentCounts},
			{"total_earnings", earningsSQL, &result.Earnings},
		}
		for _, step := range steps {
			res := tx.Exec(step.sql)
			if res.Error != nil {
				return fmt.Errorf("failed to reconcile %s: %w", step.name, res.Error)
			}
			*step.count = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := logrus.WithFields(logrus.Fields{
		"like_counts":    result.LikeCounts,
		"comment_counts": result.CommentCounts,
		"earnings":       result.Earnings,
	})
	if result.Total() > 0 {
		entry.Warn("Reconciled drifted counters")
	} else {
		entry.Info("Counters consistent")
	}

	return result, nil
}

// PruneViews drops view de-duplication rows older than the cutoff. They no
// longer affect counting once their window has passed.
func (s *ReconcileService) PruneViews(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&models.BookView{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune views: %w", res.Error)
	}
	return res.RowsAffected, nil
}
