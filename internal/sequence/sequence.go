// Package sequence hands out monotonically increasing codes. A code is never
// handed out twice, even after the entity that used it is deleted.
package sequence

import (
	"context"
	"fmt"

	"github.com/diewo77/agrodocs/internal/config"
	"github.com/diewo77/agrodocs/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sequence names.
const (
	Subtotals = "subtotals"
	Templates = "templates"
)

// Generator returns the next code of a named sequence. Ensure raises a counter
// so that Next never returns a code at or below floor.
type Generator interface {
	Next(ctx context.Context, name string) (int64, error)
	Ensure(ctx context.Context, name string, floor int64) error
}

// DB keeps counters in the sequences table.
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB { return &DB{db: db} }

// Next increments the counter inside a transaction. The UPDATE takes the row lock,
// so concurrent callers serialize on it.
func (g *DB) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Sequence{Name: name}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Sequence{}).Where("name = ?", name).
			Update("value", gorm.Expr("value + 1")).Error; err != nil {
			return err
		}
		var seq models.Sequence
		if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
			return err
		}
		value = seq.Value
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	return value, nil
}

// Ensure raises the counter to at least floor. Used after importing records whose
// codes were assigned elsewhere.
func (g *DB) Ensure(ctx context.Context, name string, floor int64) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Sequence{Name: name}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Sequence{}).Where("name = ? AND value < ?", name, floor).
			Update("value", floor).Error
	})
}

// Redis keeps counters as redis keys, incremented with INCR.
type Redis struct {
	client *redis.Client
	prefix string
}

// raiseScript sets KEYS[1] to ARGV[1] unless it already holds more.
var raiseScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call("SET", KEYS[1], floor)
	return floor
end
return current
`)

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "agrodocs:seq:"}
}

func (g *Redis) Next(ctx context.Context, name string) (int64, error) {
	v, err := g.client.Incr(ctx, g.prefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	return v, nil
}

// Ensure raises the counter to at least floor in one atomic script run.
func (g *Redis) Ensure(ctx context.Context, name string, floor int64) error {
	if err := raiseScript.Run(ctx, g.client, []string{g.prefix + name}, floor).Err(); err != nil {
		return fmt.Errorf("ensure %s: %w", name, err)
	}
	return nil
}

// New builds the generator selected in cfg. The returned function releases its resources.
func New(ctx context.Context, cfg config.SequenceConfig, db *gorm.DB) (Generator, func() error, error) {
	switch cfg.Backend {
	case "", "db":
		return NewDB(db), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return NewRedis(client), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported sequence backend %q", cfg.Backend)
}
