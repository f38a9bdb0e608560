package receipt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"parkeasy/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Sequencer hands out the next receipt counter for a day (YYYYMMDD).
// Implementations must never return the same value twice for one day.
type Sequencer interface {
	Next(ctx context.Context, tx *gorm.DB, day string) (int, error)
}

func prefix(day string) string {
	return "RCPT-" + day + "-"
}

// FormatNumber renders RCPT-YYYYMMDD-NNNN.
func FormatNumber(day string, n int) string {
	return fmt.Sprintf("%s%04d", prefix(day), n)
}

// lastIssued returns the highest counter already used in a receipt number for day.
func lastIssued(tx *gorm.DB, day string) (int, error) {
	var numbers []string
	err := tx.Model(&models.Receipt{}).
		Where("receipt_number LIKE ?", prefix(day)+"%").
		Order("LENGTH(receipt_number) desc, receipt_number desc").
		Limit(1).
		Pluck("receipt_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix(day)))
	if err != nil {
		return 0, fmt.Errorf("malformed receipt number %q: %w", numbers[0], err)
	}
	return n, nil
}

// DBSequencer keeps one counter row per day in receipt_sequences. The
// increment is a single UPDATE so it holds the row lock until tx ends.
type DBSequencer struct{}

func (DBSequencer) Next(ctx context.Context, tx *gorm.DB, day string) (int, error) {
	tx = tx.WithContext(ctx)
	for attempt := 0; attempt < 3; attempt++ {
		res := tx.Model(&models.ReceiptSequence{}).
			Where("day = ?", day).
			UpdateColumn("counter", gorm.Expr("counter + 1"))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 1 {
			var seq models.ReceiptSequence
			if err := tx.First(&seq, "day = ?", day).Error; err != nil {
				return 0, err
			}
			return seq.Counter, nil
		}

		// first receipt of the day: seed past anything issued before the row existed
		last, err := lastIssued(tx, day)
		if err != nil {
			return 0, err
		}
		seq := models.ReceiptSequence{Day: day, Counter: last + 1}
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&seq).Error
		})
		if err == nil {
			return seq.Counter, nil
		}
		if !models.IsUniqueViolation(err) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: receipt sequence for %s", models.ErrConflict, day)
}

// RedisSequencer uses INCR on receipt:seq:<day>. A fresh key is seeded from
// the receipts table so a flushed redis cannot reissue numbers.
type RedisSequencer struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSequencer(rdb *redis.Client) *RedisSequencer {
	return &RedisSequencer{rdb: rdb, ttl: 48 * time.Hour}
}

func (s *RedisSequencer) key(day string) string {
	return "receipt:seq:" + day
}

func (s *RedisSequencer) Next(ctx context.Context, tx *gorm.DB, day string) (int, error) {
	key := s.key(day)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
			return 0, fmt.Errorf("redis expire %s: %w", key, err)
		}
		last, err := lastIssued(tx.WithContext(ctx), day)
		if err != nil {
			return 0, err
		}
		if last > 0 {
			if n, err = s.rdb.IncrBy(ctx, key, int64(last)).Result(); err != nil {
				return 0, fmt.Errorf("redis incrby %s: %w", key, err)
			}
		}
	}
	return int(n), nil
}
