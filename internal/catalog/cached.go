package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/models"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Cached, ödeme yöntemi ve kupür listelerini Redis'te tutan okuma önbelleği.
// Tabancalar (fiyat ve sayaç) her zaman alttaki okuyucudan gelir.
// Redis hataları loglanır ve veritabanına düşülür.
type Cached struct {
	next  Reader
	redis *redis.Client
	ttl   time.Duration
}

// NewCached, client nil ise doğrudan next'i döndürür.
func NewCached(next Reader, client *redis.Client, ttl time.Duration) Reader {
	if client == nil {
		return next
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{next: next, redis: client, ttl: ttl}
}

func (c *Cached) Nozzles(ctx context.Context, stationID uint, onlyAvailable bool) ([]models.Nozzle, error) {
	return c.next.Nozzles(ctx, stationID, onlyAvailable)
}

func (c *Cached) PaymentMethods(ctx context.Context, stationID uint) ([]models.PaymentMethod, error) {
	key := fmt.Sprintf("catalog:%d:payment_methods", stationID)
	var methods []models.PaymentMethod
	if c.get(ctx, key, &methods) {
		return methods, nil
	}

	methods, err := c.next.PaymentMethods(ctx, stationID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, methods)
	return methods, nil
}

// PaymentMethod, önbelleklenmiş aktif yöntem listesinden çözülür.
func (c *Cached) PaymentMethod(ctx context.Context, stationID, id uint) (models.PaymentMethod, error) {
	methods, err := c.PaymentMethods(ctx, stationID)
	if err != nil {
		return models.PaymentMethod{}, err
	}
	for _, m := range methods {
		if m.ID == id {
			return m, nil
		}
	}
	return models.PaymentMethod{}, apperror.Newf(apperror.KindInvalidInput, "Ödeme yöntemi bulunamadı: %d", id)
}

func (c *Cached) Denominations(ctx context.Context, stationID uint) ([]models.Denomination, error) {
	key := fmt.Sprintf("catalog:%d:denominations", stationID)
	var list []models.Denomination
	if c.get(ctx, key, &list) {
		return list, nil
	}

	list, err := c.next.Denominations(ctx, stationID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, list)
	return list, nil
}

func (c *Cached) get(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(data, dst); err != nil {
			log.Warnf("önbellek verisi çözülemedi %s (veritabanından devam): %v", key, err)
			return false
		}
		return true
	case errors.Is(err, redis.Nil):
		return false
	default:
		log.Warnf("redis hatası %s (veritabanından devam): %v", key, err)
		return false
	}
}

func (c *Cached) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warnf("önbellek verisi kodlanamadı %s: %v", key, err)
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warnf("önbelleğe yazılamadı %s: %v", key, err)
	}
}
