package cache

import "github.com/redis/go-redis/v9"

// KEYS[1]=available KEYS[2]=reserved.
// Returns the remaining stock, -1 when exhausted, -2 when the counters are not loaded.
var decrAndReserveScript = redis.NewScript(`
if redis.call('exists', KEYS[1]) == 0 then
  return -2
end
local stock = redis.call('decr', KEYS[1])
if stock >= 0 then
  redis.call('incr', KEYS[2])
  return stock
end
redis.call('incr', KEYS[1])
return -1
`)

// KEYS[1]=available KEYS[2]=reserved KEYS[3]=released marker ARGV[1]=marker ttl (s).
// Returns 0 when the transaction's unit already left reserved.
var rollbackScript = redis.NewScript(`
if not redis.call('set', KEYS[3], 1, 'NX', 'EX', ARGV[1]) then
  return 0
end
redis.call('incr', KEYS[1])
redis.call('decr', KEYS[2])
return 1
`)

// KEYS[1]=reserved KEYS[2]=released marker ARGV[1]=marker ttl (s).
// Never drives the counter below zero. Returns 0 when already released.
var releaseReservedScript = redis.NewScript(`
if not redis.call('set', KEYS[2], 1, 'NX', 'EX', ARGV[1]) then
  return 0
end
local reserved = tonumber(redis.call('get', KEYS[1]) or '0')
if reserved > 0 then
  redis.call('decr', KEYS[1])
end
return 1
`)

// KEYS[1]=available. A counter that is not loaded is left for warm-up.
var restockScript = redis.NewScript(`
if redis.call('exists', KEYS[1]) == 1 then
  return redis.call('incr', KEYS[1])
end
return -1
`)

// KEYS[1]=available KEYS[2]=reserved.
var readPairScript = redis.NewScript(`
return {redis.call('get', KEYS[1]), redis.call('get', KEYS[2])}
`)

// KEYS[1]=lock ARGV[1]=token.
var unlockScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
end
return 0
`)

// Token bucket. KEYS[1]=bucket
// ARGV: rate (tokens/s), capacity, now (ms), requested, ttl (s).
// Returns the remaining tokens (floored) or -ceil(wait ms).
var refillAndTakeScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('hmget', KEYS[1], 'tokens', 'ts')
local tokens = capacity
local ts = now
if state[1] then
  tokens = tonumber(state[1])
  ts = tonumber(state[2])
end

local elapsed = math.max(0, now - ts)
tokens = math.min(capacity, tokens + elapsed * rate / 1000)

local result
if tokens >= requested then
  tokens = tokens - requested
  result = math.floor(tokens)
else
  result = -math.ceil((requested - tokens) * 1000 / rate)
end

redis.call('hset', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('expire', KEYS[1], ttl)
return result
`)
