package factory

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/competition-console/internal/config"
	"github.com/mcoot/competition-console/internal/dependencies/mocks"
	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/services/auth"
	"github.com/mcoot/competition-console/internal/sse"
	"github.com/mcoot/competition-console/internal/storage/memory"
	"github.com/mcoot/competition-console/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Events     *events.Recorder
}

// NewTestApp creates an App over memory storage with mocked clock and randomness.
// Events reach both the SSE broadcaster and the Events recorder.
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(config.Default())
}

// NewTestAppWithConfig is NewTestApp with custom settings; the storage section is ignored
func NewTestAppWithConfig(cfg config.Config) *TestApp {
	logger := testutil.NopLogger()
	store := memory.New()
	mockClock := mocks.NewMockClock(testutil.BaseTime)
	mockRandom := mocks.NewMockRandom()

	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)
	recorder := &events.Recorder{}

	authCfg := auth.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost

	cfg.Storage.Type = config.StorageMemory
	app := newWithDependencies(cfg, store, mockClock, mockRandom, events.Multi{broadcaster, recorder}, hubManager, authCfg, logger)
	app.Broadcaster = broadcaster

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Events:     recorder,
	}
}
