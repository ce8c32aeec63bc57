package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockTimeout is returned when the provider lock could not be taken in time
var ErrLockTimeout = errors.New("provider booking lock timeout")

// releaseLockScript deletes the lock key only while it still holds our token,
// so an expired lock re-acquired by another instance is never released by us.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	RedisBookingLockKeyPrefix = "booking:lock:provider:"

	defaultLockTTL = 10 * time.Second

	// Delay between SET NX attempts while another instance holds the lock
	lockRetryInterval = 25 * time.Millisecond

	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// BookingLockService serialises booking creation per provider.
//
// Two layers are taken in order:
// 1. An in-process mutex per provider (channel based so waiting honours ctx)
// 2. A Redis SET NX PX lock shared by all instances, when Redis is configured
//
// The booking transaction additionally takes a Postgres advisory lock, so a
// Redis outage degrades to the database lock instead of failing requests.
type BookingLockService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration

	// Per-provider mutex for in-process serialisation
	providerMu sync.Map // map[uuid.UUID]*mutexWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	sem      chan struct{}
	lastUsed atomic.Int64 // Unix timestamp
}

func newMutexWithTimestamp() *mutexWithTimestamp {
	return &mutexWithTimestamp{sem: make(chan struct{}, 1)}
}

func (m *mutexWithTimestamp) lock(ctx context.Context) error {
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mutexWithTimestamp) tryLock() bool {
	select {
	case m.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *mutexWithTimestamp) unlock() {
	<-m.sem
}

// NewBookingLockService creates a new BookingLockService. redisClient may be
// nil, in which case only the in-process layer is used.
// Starts background goroutine for mutex cleanup. Call Stop() during graceful shutdown.
func NewBookingLockService(redisClient *redis.Client, ttl time.Duration, log *logrus.Logger) *BookingLockService {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	svc := &BookingLockService{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
		stopChan:    make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// Stop gracefully shuts down the service.
// Safe to call multiple times.
func (s *BookingLockService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("BookingLockService stopped")
	}
}

// Acquire blocks until the provider lock is held, ctx is done, or the lock TTL
// elapses. The returned release func must be called exactly once.
func (s *BookingLockService) Acquire(ctx context.Context, providerID uuid.UUID) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, s.ttl)
	defer cancel()

	mt, err := s.lockProviderMutex(ctx, providerID, s.getProviderMutex(providerID))
	if err != nil {
		return nil, fmt.Errorf("%w: provider %s", ErrLockTimeout, providerID)
	}

	if s.redisClient == nil {
		return mt.unlock, nil
	}

	key := RedisBookingLockKeyPrefix + providerID.String()
	token := uuid.NewString()

	held, err := s.acquireRedis(ctx, key, token)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			mt.unlock()
			return nil, fmt.Errorf("%w: provider %s", ErrLockTimeout, providerID)
		}
		// Redis unavailable: the advisory lock in the booking transaction still applies.
		s.log.Warnf("Redis booking lock unavailable for provider %s, continuing with local lock: %+v", providerID, err)
		return mt.unlock, nil
	}
	if !held {
		mt.unlock()
		return nil, fmt.Errorf("%w: provider %s", ErrLockTimeout, providerID)
	}

	return func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), time.Second)
		defer releaseCancel()
		if err := releaseLockScript.Run(releaseCtx, s.redisClient, []string{key}, token).Err(); err != nil {
			s.log.Warnf("Failed to release Redis booking lock for provider %s: %+v", providerID, err)
		}
		mt.unlock()
	}, nil
}

func (s *BookingLockService) acquireRedis(ctx context.Context, key, token string) (bool, error) {
	for {
		ok, err := s.redisClient.SetNX(ctx, key, token, s.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			return false, err
		}
		if ok {
			return true, nil
		}

		timer := time.NewTimer(lockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

// getProviderMutex returns mutex for a specific provider ID
func (s *BookingLockService) getProviderMutex(providerID uuid.UUID) *mutexWithTimestamp {
	mt, _ := s.providerMu.LoadOrStore(providerID, newMutexWithTimestamp())
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// lockProviderMutex locks mt and checks it is still the provider's mutex. The
// cleanup loop may drop mt between lookup and lock; the lock is then retried
// on the mutex now stored for the provider.
func (s *BookingLockService) lockProviderMutex(ctx context.Context, providerID uuid.UUID, mt *mutexWithTimestamp) (*mutexWithTimestamp, error) {
	for {
		if err := mt.lock(ctx); err != nil {
			return nil, err
		}
		if current, ok := s.providerMu.Load(providerID); ok && current == mt {
			mt.lastUsed.Store(time.Now().Unix())
			return mt, nil
		}
		mt.unlock()
		mt = s.getProviderMutex(providerID)
	}
}

// cleanupMutexMapLoop runs in background to clean stale mutexes
func (s *BookingLockService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes removes mutexes unused since cutoff. A mutex currently
// held is skipped; lastUsed is checked while holding it.
func (s *BookingLockService) cleanupStaleMutexes(cutoff time.Time) int {
	var cleaned int

	s.providerMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.tryLock() {
			if mt.lastUsed.Load() < cutoff.Unix() {
				s.providerMu.Delete(key)
				cleaned++
			}
			mt.unlock()
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale provider mutexes", cleaned)
	}
	return cleaned
}
