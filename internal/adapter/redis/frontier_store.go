package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/user/url-frontier/internal/entity"
	"github.com/user/url-frontier/internal/repository"
)

// Compile-time interface verification.
var _ repository.FrontierStore = (*FrontierStore)(nil)

// FrontierStore provides a concrete implementation of repository.FrontierStore on Redis
// lists, sorted sets and hashes. The claim and release steps run as server-side scripts.
type FrontierStore struct {
	client *redis.Client
}

// NewFrontierStore creates a new instance of FrontierStore.
func NewFrontierStore(client *redis.Client) *FrontierStore {
	return &FrontierStore{client: client}
}

// PushIntake adds a payload to the left side of the intake list.
func (s *FrontierStore) PushIntake(ctx context.Context, queue, payload string) error {
	return s.client.LPush(ctx, queue, payload).Err()
}

// PopIntake removes a payload from the right side of the intake list.
func (s *FrontierStore) PopIntake(ctx context.Context, queue string) (string, bool, error) {
	payload, err := s.client.RPop(ctx, queue).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

// RequeueIntake puts a payload back on the right side, so it is popped next.
func (s *FrontierStore) RequeueIntake(ctx context.Context, queue, payload string) error {
	return s.client.RPush(ctx, queue, payload).Err()
}

// IntakeLen returns the length of an intake list.
func (s *FrontierStore) IntakeLen(ctx context.Context, queue string) (int64, error) {
	return s.client.LLen(ctx, queue).Result()
}

// Promote runs the three promotion writes inside MULTI/EXEC.
func (s *FrontierStore) Promote(ctx context.Context, keys repository.HostKeys, host, payload string, now int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, keys.Backend, payload)
		pipe.ZIncrBy(ctx, keys.Counts, 1, host)
		pipe.ZAddNX(ctx, keys.Heap, redis.Z{Score: float64(now), Member: host})
		return nil
	})
	if err != nil {
		return fmt.Errorf("promote %s: %w", host, err)
	}
	return nil
}

// FetchAndPostpone claims the next due host.
func (s *FrontierStore) FetchAndPostpone(ctx context.Context, heap string, now, fallback int64) (string, bool, error) {
	host, err := fetchAndPostponeScript.Run(ctx, s.client, []string{heap}, now, fallback).Text()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetch and postpone: %w", err)
	}
	return host, true, nil
}

// PopAndReconcile releases a claimed host and returns its oldest item.
func (s *FrontierStore) PopAndReconcile(ctx context.Context, keys repository.HostKeys, host string, now int64) (string, bool, error) {
	payload, err := popAndReconcileScript.Run(ctx, s.client,
		[]string{keys.Backend, keys.Counts, keys.Heap, keys.Delays}, host, now).Text()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pop and reconcile %s: %w", host, err)
	}
	return payload, true, nil
}

// SetCrawlDelay writes the host's delay into the crawl delay hash.
func (s *FrontierStore) SetCrawlDelay(ctx context.Context, delays, host string, delayMS int64) error {
	return s.client.HSet(ctx, delays, host, delayMS).Err()
}

// DeleteCrawlDelay removes the host's field from the crawl delay hash.
func (s *FrontierStore) DeleteCrawlDelay(ctx context.Context, delays, host string) error {
	return s.client.HDel(ctx, delays, host).Err()
}

// ScanHeap pages through the heap with ZSCAN. Like ZSCAN, count is a hint.
func (s *FrontierStore) ScanHeap(ctx context.Context, heap string, cursor uint64, count int64) ([]entity.HeapEntry, uint64, error) {
	raw, next, err := s.client.ZScan(ctx, heap, cursor, "", count).Result()
	if err != nil {
		return nil, 0, err
	}
	entries := make([]entity.HeapEntry, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		score, err := strconv.ParseFloat(raw[i+1], 64)
		if err != nil {
			return nil, 0, fmt.Errorf("parse heap score for %s: %w", raw[i], err)
		}
		entries = append(entries, entity.HeapEntry{Host: raw[i], ReadyAt: int64(score)})
	}
	return entries, next, nil
}

// RangeBackend returns LRANGE start..stop of a backend queue.
func (s *FrontierStore) RangeBackend(ctx context.Context, backend string, start, stop int64) ([]string, error) {
	return s.client.LRange(ctx, backend, start, stop).Result()
}

// HostCount reads the host's score from the pending-count sorted set.
func (s *FrontierStore) HostCount(ctx context.Context, counts, host string) (int64, bool, error) {
	n, err := s.client.ZScore(ctx, counts, host).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int64(n), true, nil
}

func (s *FrontierStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *FrontierStore) Close() error {
	return s.client.Close()
}
