// Package mining searches the nonce space of a block header for a hash below the difficulty target.
package mining

import (
	"context"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/looplab/fsm"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/nilaychugh/summer-of-bitcoin/services/blockassembly"
	"github.com/nilaychugh/summer-of-bitcoin/settings"
	"github.com/nilaychugh/summer-of-bitcoin/ulogger"
	"github.com/nilaychugh/summer-of-bitcoin/util"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// NonceLimit is the exclusive upper bound of the search: nonces 0 to 2^32-2 are tried, and reaching
// 2^32-1 without a solution exhausts the search.
const NonceLimit uint32 = math.MaxUint32

// batchSize is how many hashes a worker computes between checks for cancellation.
const batchSize = 1 << 14

// progressLogRate caps how often progress is logged when the interval is small compared to the hash rate.
const progressLogRate = time.Second

// Searcher brute-forces the nonce of a header template. Nonces are tried in ascending order; with
// several workers each one owns a contiguous range and the lowest winning nonce is reported, so the
// result never depends on the number of workers.
type Searcher struct {
	logger           ulogger.Logger
	template         *model.HeaderTemplate
	target           [chainhash.HashSize]byte
	nonceLimit       uint64
	workers          int
	progressInterval uint64
	progressLimiter  *rate.Limiter

	fsm       *fsm.FSM
	attempts  *atomic.Uint64
	bestNonce *atomic.Uint64
	mu        sync.Mutex
	best      *model.MiningResult
}

type Options func(*Searcher)

// WithWorkers sets the number of goroutines searching disjoint nonce ranges.
func WithWorkers(workers int) Options {
	return func(s *Searcher) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// WithNonceLimit lowers the exclusive nonce bound, mainly so tests can exhaust a small range.
func WithNonceLimit(limit uint32) Options {
	return func(s *Searcher) {
		s.nonceLimit = uint64(limit)
	}
}

// WithProgressInterval logs the attempt count every interval hashes. Zero disables progress logging.
func WithProgressInterval(interval uint64) Options {
	return func(s *Searcher) {
		s.progressInterval = interval
	}
}

// NewSearcher prepares a search over the 80 byte serialized header.
func NewSearcher(logger ulogger.Logger, header []byte, target *big.Int, opts ...Options) (*Searcher, error) {
	initPrometheusMetrics()

	if target == nil || target.Sign() < 0 || target.BitLen() > 8*chainhash.HashSize {
		return nil, errors.NewInvalidArgumentError("[Searcher] target must be a non-negative 256 bit integer")
	}

	template, err := model.NewHeaderTemplate(header)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		logger:          logger,
		template:        template,
		nonceLimit:      uint64(NonceLimit),
		workers:         1,
		progressLimiter: rate.NewLimiter(rate.Every(progressLogRate), 1),
		fsm:             NewFiniteStateMachine(),
		attempts:        atomic.NewUint64(0),
		bestNonce:       atomic.NewUint64(math.MaxUint64),
	}

	target.FillBytes(s.target[:])

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Searcher) State() State {
	return State(s.fsm.Current())
}

func (s *Searcher) transition(event string) {
	if err := s.fsm.Event(context.Background(), event); err != nil {
		s.logger.Errorf("[Searcher] could not apply %s in state %s: %v", event, s.fsm.Current(), err)
	}
}

// Attempts is the number of hashes computed so far.
func (s *Searcher) Attempts() uint64 {
	return s.attempts.Load()
}

// Search runs until a header hashes below the target, the nonce range is exhausted or ctx is done.
// Exhaustion is reported as a SearchExhausted error so the caller can retry with a new timestamp.
func (s *Searcher) Search(ctx context.Context) (*model.MiningResult, error) {
	start := time.Now()

	if s.State() != Searching {
		s.transition(eventSearch)
	}

	s.attempts.Store(0)
	s.bestNonce.Store(math.MaxUint64)
	s.best = nil

	defer func() {
		prometheusMiningSearchDuration.Observe(time.Since(start).Seconds())
	}()

	if err := s.run(ctx); err != nil {
		s.transition(eventCancel)
		return nil, err
	}

	if s.best == nil {
		s.transition(eventExhaust)
		return nil, errors.NewSearchExhaustedError("[Search] no nonce below %d produced a hash below the target after %d attempts", s.nonceLimit, s.Attempts())
	}

	s.transition(eventFind)

	result := *s.best
	result.Attempts = s.Attempts()

	return &result, nil
}

func (s *Searcher) run(ctx context.Context) error {
	workers := uint64(s.workers)
	if workers > s.nonceLimit {
		workers = s.nonceLimit
	}

	if workers <= 1 {
		return s.searchRange(ctx, s.template, 0, s.nonceLimit)
	}

	chunk := (s.nonceLimit + workers - 1) / workers

	g, gCtx := errgroup.WithContext(ctx)

	for i := uint64(0); i < workers; i++ {
		rangeStart := i * chunk
		rangeEnd := min(rangeStart+chunk, s.nonceLimit)

		if rangeStart >= rangeEnd {
			continue
		}

		template := s.template.Clone()

		g.Go(func() error {
			return s.searchRange(gCtx, template, rangeStart, rangeEnd)
		})
	}

	return g.Wait()
}

// searchRange tries nonces in [start, end). It returns early once a nonce below start has won, since
// nothing in this range can beat it.
func (s *Searcher) searchRange(ctx context.Context, template *model.HeaderTemplate, start, end uint64) error {
	if err := ctx.Err(); err != nil {
		return errors.NewContextCanceledError("[Searcher] search cancelled before nonce %d", start, err)
	}

	var pending uint64

	defer func() {
		s.addAttempts(pending)
	}()

	for nonce := start; nonce < end; nonce++ {
		if pending == batchSize {
			s.addAttempts(pending)
			pending = 0

			if err := ctx.Err(); err != nil {
				return errors.NewContextCanceledError("[Searcher] search cancelled at nonce %d", nonce, err)
			}

			if s.bestNonce.Load() < start {
				return nil
			}
		}

		//nolint:gosec // nonce < end <= 2^32-1
		template.SetNonce(uint32(nonce))

		hash := chainhash.DoubleHashH(template.Bytes())
		pending++

		if s.isBelowTarget(&hash) {
			s.submit(template, nonce, &hash)
			return nil
		}
	}

	return nil
}

// isBelowTarget compares the hash, read as a little-endian integer, against the big-endian target.
func (s *Searcher) isBelowTarget(hash *chainhash.Hash) bool {
	for i := 0; i < chainhash.HashSize; i++ {
		h := hash[chainhash.HashSize-1-i]

		if h != s.target[i] {
			return h < s.target[i]
		}
	}

	return false
}

func (s *Searcher) submit(template *model.HeaderTemplate, nonce uint64, hash *chainhash.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.best != nil && nonce >= s.bestNonce.Load() {
		return
	}

	s.best = &model.MiningResult{
		Header: template.CloneBytes(),
		Nonce:  template.Nonce(),
		Hash:   hash,
	}

	s.bestNonce.Store(nonce)
}

func (s *Searcher) addAttempts(n uint64) {
	if n == 0 {
		return
	}

	total := s.attempts.Add(n)
	prometheusMiningHashes.Add(float64(n))

	if s.progressInterval > 0 && total/s.progressInterval != (total-n)/s.progressInterval && s.progressLimiter.Allow() {
		s.logger.Infof("[Searcher] %d hashes tried", total)
	}
}

// Mine searches for a nonce for tmpl with the configured target, workers and timeout.
func Mine(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, tmpl *model.BlockTemplate) (*model.MiningResult, error) {
	target, err := model.NewTargetFromString(tSettings.Mining.DifficultyTarget)
	if err != nil {
		return nil, errors.NewConfigurationError("[Mine] invalid mining_difficultyTarget", err)
	}

	if tSettings.Mining.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, tSettings.Mining.Timeout)
		defer cancel()
	}

	if compact := model.BigToCompact(target); compact != tmpl.Bits.Uint32() {
		logger.Warnf("[Mine] target %s compacts to %08x, the header bits are %s", tSettings.Mining.DifficultyTarget, compact, tmpl.Bits)
	}

	header, err := blockassembly.BuildTemplateHeader(tmpl, 0)
	if err != nil {
		return nil, err
	}

	searcher, err := NewSearcher(logger, header, target,
		WithWorkers(tSettings.Mining.Workers),
		WithProgressInterval(tSettings.Mining.ProgressInterval),
	)
	if err != nil {
		return nil, err
	}

	logger.Infof("[Mine] searching nonces for block at height %d with %d worker(s), difficulty %s, expecting about %s hashes",
		tmpl.Height, tSettings.Mining.Workers, tmpl.Bits.CalculateDifficulty().Text('g', 6), util.CalculateWork(target))

	result, err := searcher.Search(ctx)
	if err != nil {
		return nil, err
	}

	logger.Infof("[Mine] found nonce %d after %d attempts, block hash %s", result.Nonce, result.Attempts, result.Hash)

	return result, nil
}
