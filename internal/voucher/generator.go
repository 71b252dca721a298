package voucher

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/azure-wallet/azure_wallet/internal/rank"
)

// Generator produces voucher codes and tier-dependent values from a seedable
// pseudo-random source. Tests inject a fixed seed to assert exact outputs;
// production wiring seeds from the clock.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator builds a generator from an explicit seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewDefaultGenerator builds a generator seeded from the current time.
func NewDefaultGenerator() *Generator {
	return NewGenerator(time.Now().UnixNano())
}

// Ambiguous characters (0/O, 1/I/L) are left out of voucher suffixes.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeSuffixLen = 8

// Code derives a voucher code for the owner: VCHR-<USER>-<8 random chars>.
func (g *Generator) Code(owner string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	suffix := make([]byte, codeSuffixLen)
	for i := range suffix {
		suffix[i] = codeAlphabet[g.rng.Intn(len(codeAlphabet))]
	}
	return fmt.Sprintf("VCHR-%s-%s", strings.ToUpper(owner), suffix)
}

// Value ranges per tier in centavos: half-open intervals over whole-currency
// bounds, e.g. Bronze draws from [1.00, 21.00).
var valueRanges = map[rank.Tier]struct{ low, span int64 }{
	rank.Bronze:   {low: 1_00, span: 20_00},
	rank.Silver:   {low: 50_00, span: 50_00},
	rank.Gold:     {low: 100_00, span: 150_00},
	rank.Platinum: {low: 250_00, span: 200_00},
}

// ValueFor draws a voucher value uniformly from the tier's range.
func (g *Generator) ValueFor(tier rank.Tier) int64 {
	r, ok := valueRanges[tier]
	if !ok {
		r = valueRanges[rank.Bronze]
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return r.low + g.rng.Int63n(r.span)
}
