package cache

import "gin-seckill/internal/domain/seckill"

const (
	availablePrefix  = "seckill:gs:"
	reservedPrefix   = "seckill:rs:"
	soldOutPrefix    = "seckill:go:"
	warmUpLockPrefix = "seckill:lock:warmup:"
	releasedPrefix   = "seckill:rel:"
	rateLimitPrefix  = "rate_limit:"
)

func availableKey(sale seckill.SaleKey) string { return availablePrefix + sale.String() }

func reservedKey(sale seckill.SaleKey) string { return reservedPrefix + sale.String() }

func soldOutKey(sale seckill.SaleKey) string { return soldOutPrefix + sale.String() }

func warmUpLockKey(sale seckill.SaleKey) string { return warmUpLockPrefix + sale.String() }

// releasedKey marks that a transaction's reserved unit has been freed.
func releasedKey(txID string) string { return releasedPrefix + txID }

// RateLimitKey builds "rate_limit:<name>:<scope part>".
func RateLimitKey(name, scopePart string) string {
	return rateLimitPrefix + name + ":" + scopePart
}
