package reference

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/shiftremit/backend/internal/domain"
	"github.com/shiftremit/backend/internal/logging"
)

const (
	prefix = "SR"

	// 8-digit suffix without a leading zero: [10_000_000, 100_000_000).
	suffixMin  = 10_000_000
	suffixSpan = 90_000_000

	// DefaultMaxAttempts bounds collision retries. At 9e7 candidates a single
	// collision is already unlikely; exhausting the budget indicates a
	// systemic bug, not bad luck, and is surfaced as a fatal error.
	DefaultMaxAttempts = 10
)

type existsChecker interface {
	ReferenceExists(ctx context.Context, reference string) (bool, error)
}

// Generator issues transfer references unique against the existing transfer
// set. The pre-check here is advisory only; the storage layer's unique
// constraint is the real guarantee, and the ledger retries generation when
// an insert trips it.
type Generator struct {
	transfers   existsChecker
	maxAttempts int
}

func NewGenerator(transfers existsChecker) *Generator {
	return &Generator{transfers: transfers, maxAttempts: DefaultMaxAttempts}
}

// NewGeneratorWithAttempts is used by tests that exercise the retry budget.
func NewGeneratorWithAttempts(transfers existsChecker, maxAttempts int) *Generator {
	return &Generator{transfers: transfers, maxAttempts: maxAttempts}
}

// Generate returns a reference not present in storage at the time of check.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	log := logging.FromContext(ctx)

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate, err := newCandidate()
		if err != nil {
			return "", fmt.Errorf("Generate: %w", err)
		}

		exists, err := g.transfers.ReferenceExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("Generate: %w", err)
		}
		if !exists {
			return candidate, nil
		}

		log.Warn("transfer reference collision",
			"reference", candidate,
			"attempt", attempt,
		)
	}

	return "", fmt.Errorf("Generate: %d attempts: %w", g.maxAttempts, domain.ErrReferenceExhausted)
}

func newCandidate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(suffixSpan))
	if err != nil {
		return "", fmt.Errorf("newCandidate: %w", err)
	}
	return fmt.Sprintf("%s%d", prefix, n.Int64()+suffixMin), nil
}
