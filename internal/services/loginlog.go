package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/conductionnl/commonground-gateway/internal/core"
	"github.com/conductionnl/commonground-gateway/internal/models"
	"github.com/conductionnl/commonground-gateway/internal/store"

	"github.com/google/uuid"
)

// LoginLogEntry is the data recorded for one authentication attempt.
type LoginLogEntry struct {
	Address string
	Method  string
	Status  string
}

// LoginLogService appends audit rows asynchronously. The write path is
// fire-and-forget relative to the login response: a full buffer drops the
// entry rather than blocking or failing the attempt.
type LoginLogService struct {
	store      *store.Store
	metrics    core.MetricsRecorder
	enabled    bool
	bufferSize int

	// Async logging channel
	logChan chan *models.LoginLog

	// Batch buffer
	batchBuffer []*models.LoginLog
	batchMutex  sync.Mutex
	batchTicker *time.Ticker

	// Graceful shutdown
	wg         sync.WaitGroup
	shutdownCh chan struct{}
}

// NewLoginLogService creates a new login-log service and starts its worker
// when enabled.
func NewLoginLogService(s *store.Store, m core.MetricsRecorder, enabled bool, bufferSize int) *LoginLogService {
	if bufferSize <= 0 {
		bufferSize = 1000 // Default buffer size
	}

	service := &LoginLogService{
		store:       s,
		metrics:     m,
		enabled:     enabled,
		bufferSize:  bufferSize,
		logChan:     make(chan *models.LoginLog, bufferSize),
		batchBuffer: make([]*models.LoginLog, 0, 100),
		batchTicker: time.NewTicker(1 * time.Second),
		shutdownCh:  make(chan struct{}),
	}

	if enabled {
		service.wg.Add(1)
		go service.worker()
		log.Printf("Login log service started with buffer size %d", bufferSize)
	} else {
		log.Println("Login log service is disabled")
	}

	return service
}

// worker is the background goroutine that flushes login-log batches
func (s *LoginLogService) worker() {
	defer s.wg.Done()

	for {
		select {
		case entry := <-s.logChan:
			s.addToBatch(entry)

		case <-s.batchTicker.C:
			// Flush batch every second
			s.flushBatch()

		case <-s.shutdownCh:
			// Flush remaining entries before shutdown
			s.drainChannel()
			s.flushBatch()
			return
		}
	}
}

// drainChannel moves any queued entries into the batch buffer
func (s *LoginLogService) drainChannel() {
	for {
		select {
		case entry := <-s.logChan:
			s.addToBatch(entry)
		default:
			return
		}
	}
}

func (s *LoginLogService) addToBatch(entry *models.LoginLog) {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()

	s.batchBuffer = append(s.batchBuffer, entry)

	// Flush if batch is full (100 entries)
	if len(s.batchBuffer) >= 100 {
		s.flushBatchUnsafe()
	}
}

func (s *LoginLogService) flushBatch() {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()
	s.flushBatchUnsafe()
}

// flushBatchUnsafe flushes the batch buffer without locking (caller must hold lock)
func (s *LoginLogService) flushBatchUnsafe() {
	if len(s.batchBuffer) == 0 {
		return
	}

	toWrite := make([]*models.LoginLog, len(s.batchBuffer))
	copy(toWrite, s.batchBuffer)
	s.batchBuffer = s.batchBuffer[:0]

	if err := s.store.CreateLoginLogBatch(toWrite); err != nil {
		log.Printf("Failed to write login log batch: %v", err)
	}
}

// Log records a login-log entry asynchronously. It never blocks and never
// fails the caller.
func (s *LoginLogService) Log(entry LoginLogEntry) {
	if !s.enabled {
		return
	}

	row := &models.LoginLog{
		ID:        uuid.New().String(),
		Address:   entry.Address,
		Method:    entry.Method,
		Status:    entry.Status,
		CreatedAt: time.Now(),
	}

	select {
	case s.logChan <- row:
		// Successfully queued
	default:
		// Channel is full, drop the entry and log a warning
		s.metrics.RecordLoginLogDropped()
		log.Printf("WARNING: Login log buffer full, dropping entry for %s", entry.Address)
	}
}

// GetLoginLogs retrieves login logs with pagination and filtering
func (s *LoginLogService) GetLoginLogs(
	params store.PaginationParams,
	filters store.LoginLogFilters,
) ([]models.LoginLog, store.PaginationResult, error) {
	return s.store.GetLoginLogsPaginated(params, filters)
}

// CleanupOldLogs deletes login logs older than the retention period
func (s *LoginLogService) CleanupOldLogs(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.store.DeleteOldLoginLogs(cutoff)
}

// Shutdown gracefully stops the worker, flushing what is buffered.
func (s *LoginLogService) Shutdown(ctx context.Context) error {
	if !s.enabled {
		return nil
	}

	s.batchTicker.Stop()
	close(s.shutdownCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Login log service shut down gracefully")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("login log service shutdown timeout: %w", ctx.Err())
	}
}
