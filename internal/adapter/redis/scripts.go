package redis

import "github.com/redis/go-redis/v9"

// fetchAndPostponeScript claims the due host with the lowest score and pushes
// its score to the fallback time so no other consumer can claim it meanwhile.
//
// KEYS[1] heap
// ARGV[1] now (epoch ms), ARGV[2] fallback (epoch ms)
var fetchAndPostponeScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #due == 0 then
	return false
end
redis.call('ZADD', KEYS[1], 'XX', ARGV[2], due[1])
return due[1]
`)

// popAndReconcileScript pops the oldest item of a claimed host and asserts the
// host's real schedule. A host whose queue drains leaves the heap and the
// pending-count index. Hosts without an explicit delay keep the fallback score.
//
// KEYS[1] backend queue, KEYS[2] pending counts, KEYS[3] heap, KEYS[4] crawl delays
// ARGV[1] host, ARGV[2] now (epoch ms)
var popAndReconcileScript = redis.NewScript(`
local item = redis.call('RPOP', KEYS[1])
if not item then
	return false
end
redis.call('ZINCRBY', KEYS[2], -1, ARGV[1])
if redis.call('LLEN', KEYS[1]) == 0 then
	redis.call('ZREM', KEYS[3], ARGV[1])
	redis.call('ZREM', KEYS[2], ARGV[1])
	return item
end
local delay = redis.call('HGET', KEYS[4], ARGV[1])
if delay then
	redis.call('ZADD', KEYS[3], 'XX', tonumber(ARGV[2]) + tonumber(delay), ARGV[1])
end
return item
`)
