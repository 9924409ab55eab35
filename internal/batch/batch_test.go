package batch_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/joeymeijers/fraudgen/internal/batch"
	"github.com/joeymeijers/fraudgen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateCall struct {
	batchSize int
	fraudRate float64
}

type saveCall struct {
	data    batch.Batch
	batchID string
}

type stubGenerator struct {
	generated []generateCall
	saved     []saveCall
	data      batch.Batch
	path      string
	genErr    error
	saveErr   error
}

func (s *stubGenerator) GenerateBatch(batchSize int, fraudRate float64) (batch.Batch, error) {
	s.generated = append(s.generated, generateCall{batchSize, fraudRate})
	return s.data, s.genErr
}

func (s *stubGenerator) SaveBatch(b batch.Batch, batchID string) (string, error) {
	s.saved = append(s.saved, saveCall{b, batchID})
	return s.path, s.saveErr
}

func (s *stubGenerator) called() bool {
	return len(s.generated) > 0 || len(s.saved) > 0
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// fixClock pins batch.Now and counts how often it is read.
func fixClock(t *testing.T, at time.Time) *int {
	t.Helper()
	calls := 0
	orig := batch.Now
	batch.Now = func() time.Time {
		calls++
		return at
	}
	t.Cleanup(func() { batch.Now = orig })
	return &calls
}

func TestRun_PassesConfigToGenerator(t *testing.T) {
	path := writeConfig(t, "data:\n  batch_size: 100\n  fraud_rate: 0.05\n")
	at := time.Date(2024, 3, 7, 9, 5, 2, 0, time.Local)
	fixClock(t, at)
	gen := &stubGenerator{data: []int{1, 2, 3}, path: "data/raw/batch_20240307_090502.csv"}
	var out bytes.Buffer

	got, err := batch.Run(path, gen, &out)
	require.NoError(t, err)

	require.Len(t, gen.generated, 1)
	assert.Equal(t, generateCall{batchSize: 100, fraudRate: 0.05}, gen.generated[0])
	require.Len(t, gen.saved, 1)
	assert.Equal(t, []int{1, 2, 3}, gen.saved[0].data)
	assert.Equal(t, "20240307_090502", gen.saved[0].batchID)
	assert.Equal(t, gen.path, got)
	assert.Equal(t, "New batch generated: "+gen.path+"\n", out.String())
}

func TestRun_MissingDataGroup(t *testing.T) {
	path := writeConfig(t, "model:\n  name: xgb\n")
	gen := &stubGenerator{}
	var out bytes.Buffer

	_, err := batch.Run(path, gen, &out)

	var ce *config.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, config.MissingField, ce.Kind)
	assert.False(t, gen.called())
	assert.Empty(t, out.String())
}

func TestRun_MissingConfigFile(t *testing.T) {
	calls := fixClock(t, time.Now())
	gen := &stubGenerator{}
	var out bytes.Buffer

	_, err := batch.Run(filepath.Join(t.TempDir(), "params.yaml"), gen, &out)

	var ce *config.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, config.NotFound, ce.Kind)
	assert.Equal(t, 0, *calls, "batch id must not be computed")
	assert.False(t, gen.called())
	assert.Empty(t, out.String())
}

func TestRun_GenerateFailure(t *testing.T) {
	path := writeConfig(t, "data:\n  batch_size: 5\n  fraud_rate: 0.5\n")
	boom := errors.New("boom")
	gen := &stubGenerator{genErr: boom}
	var out bytes.Buffer

	_, err := batch.Run(path, gen, &out)

	require.ErrorIs(t, err, boom)
	assert.Regexp(t, `^generating batch \d{8}_\d{6}: boom$`, err.Error())
	assert.Empty(t, gen.saved)
	assert.Empty(t, out.String())
}

func TestRun_SaveFailure(t *testing.T) {
	path := writeConfig(t, "data:\n  batch_size: 5\n  fraud_rate: 0.5\n")
	boom := errors.New("disk full")
	gen := &stubGenerator{data: "x", saveErr: boom}
	var out bytes.Buffer

	_, err := batch.Run(path, gen, &out)

	require.ErrorIs(t, err, boom)
	assert.Regexp(t, `^saving batch \d{8}_\d{6}: disk full$`, err.Error())
	assert.Len(t, gen.generated, 1)
	assert.Empty(t, out.String())
}

func TestRunWith_FactorySeesConfig(t *testing.T) {
	path := writeConfig(t, "data:\n  batch_size: 7\n  fraud_rate: 0.25\n  seed: 99\n")
	gen := &stubGenerator{path: "out.csv"}
	var seen *config.Config
	var out bytes.Buffer

	_, err := batch.RunWith(path, func(cfg *config.Config) (batch.Generator, error) {
		seen = cfg
		return gen, nil
	}, &out)
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, int64(99), seen.Data.Seed)
	assert.Equal(t, generateCall{7, 0.25}, gen.generated[0])
}

func TestRunWith_FactoryFailure(t *testing.T) {
	path := writeConfig(t, "data:\n  batch_size: 7\n  fraud_rate: 0.25\n")
	boom := errors.New("no generator")
	var out bytes.Buffer

	_, err := batch.RunWith(path, func(*config.Config) (batch.Generator, error) {
		return nil, boom
	}, &out)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, out.String())
}

func TestRunDefault_UsesParamsYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, batch.DefaultConfigPath),
		[]byte("data:\n  batch_size: 3\n  fraud_rate: 0\n"), 0644))
	chdir(t, dir)
	gen := &stubGenerator{path: "p.csv"}
	var out bytes.Buffer

	_, err := batch.RunDefault(gen, &out)
	require.NoError(t, err)
	assert.Equal(t, generateCall{3, 0}, gen.generated[0])
}

func TestNewBatchID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{8}_\d{6}$`)
	assert.Regexp(t, pattern, batch.NewBatchID(time.Now()))

	at := time.Date(1999, 12, 31, 23, 59, 58, 999_000_000, time.Local)
	assert.Equal(t, "19991231_235958", batch.NewBatchID(at))
}

func TestNewBatchID_SameSecond(t *testing.T) {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	assert.Equal(t, batch.NewBatchID(base), batch.NewBatchID(base.Add(900*time.Millisecond)))
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
