package reference

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftremit/backend/internal/domain"
)

type fakeChecker struct {
	taken  map[string]bool
	takenN int
	calls  int
	err    error
}

func (f *fakeChecker) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.takenN > 0 {
		f.takenN--
		return true, nil
	}
	return f.taken[reference], nil
}

var referencePattern = regexp.MustCompile(`^SR[1-9][0-9]{7}$`)

func TestGenerateFormat(t *testing.T) {
	g := NewGenerator(&fakeChecker{})

	for range 50 {
		ref, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Regexp(t, referencePattern, ref)
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	checker := &fakeChecker{takenN: 3}
	g := NewGenerator(checker)

	ref, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, referencePattern, ref)
	assert.Equal(t, 4, checker.calls, "three collisions then a fresh candidate")
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	checker := &fakeChecker{takenN: 1 << 30}
	g := NewGeneratorWithAttempts(checker, 5)

	_, err := g.Generate(context.Background())
	require.ErrorIs(t, err, domain.ErrReferenceExhausted)
	assert.Equal(t, 5, checker.calls)
}

func TestGeneratePropagatesStorageError(t *testing.T) {
	checker := &fakeChecker{err: domain.ErrNotFound}
	g := NewGenerator(checker)

	_, err := g.Generate(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, checker.calls, "storage errors are not retried")
}
