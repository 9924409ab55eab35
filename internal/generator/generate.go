package generator

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeymeijers/fraudgen/internal/batch"
	"github.com/joeymeijers/fraudgen/internal/config"
	"github.com/joeymeijers/fraudgen/internal/utils"
)

// Approximate in-memory size of one Transaction, strings included.
const RECORD_SIZE = 256

const USER_POOL = 10_000

// Records are generated in at most PARTITIONS contiguous ranges, each with its
// own seeded source, so a seed gives the same batch for any worker count.
const PARTITIONS = 64

var (
	ErrInvalidBatchSize = errors.New("batch size must be > 0")
	ErrInvalidFraudRate = errors.New("fraud rate must be within [0,1]")
	ErrUnexpectedBatch  = errors.New("unexpected batch type")
	ErrEmptyBatchID     = errors.New("batch id is empty")
)

var (
	categories       = []string{"grocery", "restaurant", "fuel", "retail", "utilities", "pharmacy", "entertainment"}
	fraudCategories  = []string{"electronics", "gift_cards", "travel", "crypto", "jewelry"}
	foreignCountries = []string{"NG", "RU", "BR", "CN", "RO", "VN", "UA"}
)

const HOME_COUNTRY = "US"

var now = time.Now

// FraudDataGenerator produces and persists batches of synthetic transactions.
type FraudDataGenerator struct {
	OutputDir string
	Seed      int64  // 0 = seeded from the clock
	Workers   int    // 0 = runtime.NumCPU()
	MaxMemory uint64 // 0 = half of available system memory
	Progress  bool

	ProgressWriter io.Writer // nil = os.Stderr
}

var _ batch.Generator = (*FraudDataGenerator)(nil)

func New(cfg config.DataConfig) *FraudDataGenerator {
	return &FraudDataGenerator{
		OutputDir: cfg.OutputDir,
		Seed:      cfg.Seed,
		MaxMemory: cfg.MemoryLimit(),
		Progress:  true,
	}
}

// Generate returns n transactions of which exactly round(n*fraudRate) are fraudulent,
// ordered by timestamp.
func (g *FraudDataGenerator) Generate(n int, fraudRate float64) ([]Transaction, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, n)
	}
	if math.IsNaN(fraudRate) || fraudRate < 0 || fraudRate > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidFraudRate, fraudRate)
	}
	if err := utils.CheckBatchFits(n, RECORD_SIZE, utils.MemoryBudget(g.MaxMemory)); err != nil {
		return nil, err
	}

	seed := g.Seed
	if seed == 0 {
		seed = now().UnixNano()
	}
	master := rand.New(rand.NewSource(seed))

	nFraud := int(math.Round(float64(n) * fraudRate))
	isFraud := make([]bool, n)
	for _, i := range master.Perm(n)[:nFraud] {
		isFraud[i] = true
	}

	// Timestamps fall within the 24 hours preceding the start of the current hour.
	windowEnd := now().Truncate(time.Hour)
	windowStart := windowEnd.Add(-24 * time.Hour)

	numWorkers := g.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	partSize := (n + PARTITIONS - 1) / PARTITIONS
	numParts := (n + partSize - 1) / partSize
	numWorkers = min(numWorkers, numParts)

	records := make([]Transaction, n)
	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		genErr  error
	)
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			for p := w; p < numParts; p += numWorkers {
				r := rand.New(rand.NewSource(seed + int64(p+1)*1_000_000))
				for i := p * partSize; i < min((p+1)*partSize, n); i++ {
					t, err := generateTransaction(r, windowStart, isFraud[i])
					if err != nil {
						errOnce.Do(func() { genErr = err })
						return
					}
					records[i] = t
				}
			}
		}(w)
	}
	wg.Wait()
	if genErr != nil {
		return nil, genErr
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	s := Summarize(records)
	utils.LogInfo("Generated %d transactions (%d fraudulent, %.2f%%) using %d workers",
		s.Count, s.Fraud, s.FraudRate()*100, numWorkers)
	return records, nil
}

// GenerateBatch satisfies batch.Generator.
func (g *FraudDataGenerator) GenerateBatch(batchSize int, fraudRate float64) (batch.Batch, error) {
	return g.Generate(batchSize, fraudRate)
}

func generateTransaction(r *rand.Rand, windowStart time.Time, fraud bool) (Transaction, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction id: %w", err)
	}

	t := Transaction{
		TransactionID: id.String(),
		UserID:        fmt.Sprintf("U%06d", r.Intn(USER_POOL)),
		IsFraud:       fraud,
	}

	var offset int
	if fraud {
		// mostly between midnight and 6 am
		if r.Float64() < 0.6 {
			offset = r.Intn(6)
		} else {
			offset = r.Intn(24)
		}
		t.Amount = logNormal(r, 5.5, 1.2)
		t.MerchantCategory = pick(r, fraudCategories)
		if r.Float64() < 0.5 {
			t.Country = pick(r, foreignCountries)
		} else {
			t.Country = HOME_COUNTRY
		}
		t.Channel = weighted(r, 0.7, "online", "pos", "atm")
		t.DeviceAgeDays = r.Intn(7)
	} else {
		offset = 6 + r.Intn(18)
		if r.Float64() < 0.05 {
			offset = r.Intn(6)
		}
		t.Amount = logNormal(r, 3.5, 1.0)
		t.MerchantCategory = pick(r, categories)
		if r.Float64() < 0.9 {
			t.Country = HOME_COUNTRY
		} else {
			t.Country = pick(r, foreignCountries)
		}
		t.Channel = weighted(r, 0.6, "pos", "online", "atm")
		t.DeviceAgeDays = 30 + r.Intn(1000)
	}

	// offset is an hour-of-day; place it on the day containing windowStart or the next one
	day := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, windowStart.Location())
	ts := day.Add(time.Duration(offset)*time.Hour + time.Duration(r.Intn(3600))*time.Second)
	if ts.Before(windowStart) {
		ts = ts.Add(24 * time.Hour)
	}
	t.Timestamp = ts
	t.Hour = ts.Hour()
	return t, nil
}

func logNormal(r *rand.Rand, mu, sigma float64) float64 {
	v := math.Exp(r.NormFloat64()*sigma + mu)
	return math.Max(0.01, math.Round(v*100)/100)
}

func pick(r *rand.Rand, options []string) string {
	return options[r.Intn(len(options))]
}

// weighted returns first with probability p, otherwise one of rest uniformly.
func weighted(r *rand.Rand, p float64, first string, rest ...string) string {
	if r.Float64() < p {
		return first
	}
	return pick(r, rest)
}
