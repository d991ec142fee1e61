package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

// memSequenceStore increments an atomic per-day counter like the SQL
// upsert does.
type memSequenceStore struct {
	mu     sync.Mutex
	values map[string]int
	err    error
}

func newMemSequenceStore() *memSequenceStore {
	return &memSequenceStore{values: make(map[string]int)}
}

func (s *memSequenceStore) NextValue(_ context.Context, issuanceDate time.Time) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	day := issuanceDate.UTC().Format("2006-01-02")
	s.values[day]++
	return s.values[day], nil
}

func TestNextNumberFormat(t *testing.T) {
	svc := NewNumberingService(newMemSequenceStore(), "TCET", zap.NewNop())
	issued := time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)

	number, err := svc.NextNumber(context.Background(), issued)
	require.NoError(t, err)
	assert.Equal(t, "TCET/NOC/2026/0305/001", number)

	number, err = svc.NextNumber(context.Background(), issued)
	require.NoError(t, err)
	assert.Equal(t, "TCET/NOC/2026/0305/002", number)
}

func TestNextNumberResetsPerDay(t *testing.T) {
	svc := NewNumberingService(newMemSequenceStore(), "TCET", zap.NewNop())

	first, err := svc.NextNumber(context.Background(), time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := svc.NextNumber(context.Background(), time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "TCET/NOC/2026/0305/001", first)
	assert.Equal(t, "TCET/NOC/2026/0306/001", second)
}

func TestNextNumberWidensWithoutCollision(t *testing.T) {
	store := newMemSequenceStore()
	store.values["2026-03-05"] = 999
	svc := NewNumberingService(store, "TCET", zap.NewNop())
	issued := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	number, err := svc.NextNumber(context.Background(), issued)
	require.NoError(t, err)
	assert.Equal(t, "TCET/NOC/2026/0305/1000", number)

	parsed, err := models.ParseCertificateNumber(number)
	require.NoError(t, err)
	assert.Equal(t, 1000, parsed.Sequence)
}

func TestNextNumberRoundTripsThroughParse(t *testing.T) {
	svc := NewNumberingService(newMemSequenceStore(), "TCET", zap.NewNop())
	issued := time.Date(2026, time.November, 21, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		number, err := svc.NextNumber(context.Background(), issued)
		require.NoError(t, err)
		parsed, err := models.ParseCertificateNumber(number)
		require.NoError(t, err)
		assert.Equal(t, i, parsed.Sequence)
		assert.Equal(t, 11, parsed.Month)
		assert.Equal(t, 21, parsed.Day)
	}
}

func TestNextNumberConcurrentMintsAreUnique(t *testing.T) {
	svc := NewNumberingService(newMemSequenceStore(), "TCET", zap.NewNop())
	issued := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	const mints = 50
	numbers := make(chan string, mints)
	var wg sync.WaitGroup
	for i := 0; i < mints; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := svc.NextNumber(context.Background(), issued)
			assert.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]struct{}, mints)
	for number := range numbers {
		_, dup := seen[number]
		assert.False(t, dup, fmt.Sprintf("duplicate number %s", number))
		seen[number] = struct{}{}
	}
	assert.Len(t, seen, mints)
}

func TestNextNumberCounterFailureIsTransient(t *testing.T) {
	store := newMemSequenceStore()
	store.err = errors.New("connection refused")
	svc := NewNumberingService(store, "TCET", zap.NewNop())

	_, err := svc.NextNumber(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTransient.Code, appErrors.FromError(err).Code)
}

func TestNextNumberDeadlineIsTimeout(t *testing.T) {
	store := newMemSequenceStore()
	store.err = context.DeadlineExceeded
	svc := NewNumberingService(store, "TCET", zap.NewNop())

	_, err := svc.NextNumber(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTimeout.Code, appErrors.FromError(err).Code)
}
