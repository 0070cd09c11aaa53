// Package memory provides an in-process FrontierStore for single-process
// deployments and tests. Every operation holds one mutex, which makes each
// procedure atomic in the same way a server-side script is.
package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/user/url-frontier/internal/entity"
	"github.com/user/url-frontier/internal/repository"
)

var _ repository.FrontierStore = (*FrontierStore)(nil)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memory store closed")

// FrontierStore keeps lists, scored sets and hashes keyed the same way the Redis store does.
type FrontierStore struct {
	mu     sync.Mutex
	lists  map[string][]string // index 0 is the producing end
	zsets  map[string]map[string]float64
	hashes map[string]map[string]string
	closed bool
}

// NewFrontierStore creates an empty store.
func NewFrontierStore() *FrontierStore {
	return &FrontierStore{
		lists:  make(map[string][]string),
		zsets:  make(map[string]map[string]float64),
		hashes: make(map[string]map[string]string),
	}
}

func (s *FrontierStore) PushIntake(_ context.Context, queue, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.lpush(queue, payload)
	return nil
}

func (s *FrontierStore) PopIntake(_ context.Context, queue string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	payload, ok := s.rpop(queue)
	return payload, ok, nil
}

func (s *FrontierStore) RequeueIntake(_ context.Context, queue, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.lists[queue] = append(s.lists[queue], payload)
	return nil
}

func (s *FrontierStore) IntakeLen(_ context.Context, queue string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return int64(len(s.lists[queue])), nil
}

func (s *FrontierStore) Promote(_ context.Context, keys repository.HostKeys, host, payload string, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.lpush(keys.Backend, payload)
	s.zincr(keys.Counts, host, 1)
	heap := s.zset(keys.Heap)
	if _, ok := heap[host]; !ok {
		heap[host] = float64(now)
	}
	return nil
}

func (s *FrontierStore) FetchAndPostpone(_ context.Context, heap string, now, fallback int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	z := s.zsets[heap]
	host, found := "", false
	var best float64
	for member, score := range z {
		if score > float64(now) {
			continue
		}
		if !found || score < best || (score == best && member < host) {
			host, best, found = member, score, true
		}
	}
	if !found {
		return "", false, nil
	}
	z[host] = float64(fallback)
	return host, true, nil
}

func (s *FrontierStore) PopAndReconcile(_ context.Context, keys repository.HostKeys, host string, now int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	payload, ok := s.rpop(keys.Backend)
	if !ok {
		return "", false, nil
	}
	s.zincr(keys.Counts, host, -1)
	if len(s.lists[keys.Backend]) == 0 {
		s.zrem(keys.Heap, host)
		s.zrem(keys.Counts, host)
		return payload, true, nil
	}
	if raw, ok := s.hashes[keys.Delays][host]; ok {
		delay, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			if heap, ok := s.zsets[keys.Heap]; ok {
				if _, present := heap[host]; present {
					heap[host] = float64(now + delay)
				}
			}
		}
	}
	return payload, true, nil
}

func (s *FrontierStore) SetCrawlDelay(_ context.Context, delays, host string, delayMS int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	h, ok := s.hashes[delays]
	if !ok {
		h = make(map[string]string)
		s.hashes[delays] = h
	}
	h[host] = strconv.FormatInt(delayMS, 10)
	return nil
}

func (s *FrontierStore) DeleteCrawlDelay(_ context.Context, delays, host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if h, ok := s.hashes[delays]; ok {
		delete(h, host)
		if len(h) == 0 {
			delete(s.hashes, delays)
		}
	}
	return nil
}

// ScanHeap orders entries by score then host and treats the cursor as an offset.
func (s *FrontierStore) ScanHeap(_ context.Context, heap string, cursor uint64, count int64) ([]entity.HeapEntry, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrClosed
	}
	all := make([]entity.HeapEntry, 0, len(s.zsets[heap]))
	for host, score := range s.zsets[heap] {
		all = append(all, entity.HeapEntry{Host: host, ReadyAt: int64(score)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ReadyAt != all[j].ReadyAt {
			return all[i].ReadyAt < all[j].ReadyAt
		}
		return all[i].Host < all[j].Host
	})
	if count <= 0 {
		count = 10
	}
	if cursor >= uint64(len(all)) {
		return []entity.HeapEntry{}, 0, nil
	}
	start := int(cursor)
	if count >= int64(len(all)-start) {
		return all[start:], 0, nil
	}
	end := start + int(count)
	return all[start:end], uint64(end), nil
}

// RangeBackend follows LRANGE semantics, including negative indexes.
func (s *FrontierStore) RangeBackend(_ context.Context, backend string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	list := s.lists[backend]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (s *FrontierStore) HostCount(_ context.Context, counts, host string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, ErrClosed
	}
	n, ok := s.zsets[counts][host]
	return int64(n), ok, nil
}

func (s *FrontierStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *FrontierStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FrontierStore) lpush(key, value string) {
	list := s.lists[key]
	list = append(list, "")
	copy(list[1:], list)
	list[0] = value
	s.lists[key] = list
}

func (s *FrontierStore) rpop(key string) (string, bool) {
	list := s.lists[key]
	if len(list) == 0 {
		return "", false
	}
	v := list[len(list)-1]
	list = list[:len(list)-1]
	if len(list) == 0 {
		delete(s.lists, key)
	} else {
		s.lists[key] = list
	}
	return v, true
}

func (s *FrontierStore) zset(key string) map[string]float64 {
	z, ok := s.zsets[key]
	if !ok {
		z = make(map[string]float64)
		s.zsets[key] = z
	}
	return z
}

func (s *FrontierStore) zincr(key, member string, by float64) {
	s.zset(key)[member] += by
}

func (s *FrontierStore) zrem(key, member string) {
	z, ok := s.zsets[key]
	if !ok {
		return
	}
	delete(z, member)
	if len(z) == 0 {
		delete(s.zsets, key)
	}
}
