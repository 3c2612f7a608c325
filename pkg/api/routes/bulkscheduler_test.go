package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eko/gocache/lib/v4/cache"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/tripscheduler/pkg/scheduler"
)

var handlerNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testHandler(store *fleetStore) *BulkScheduler {
	config := scheduler.DefaultConfig()
	config.Location = time.UTC
	config.Slots = scheduler.SlotTable{Default: []string{"06:00", "12:00", "18:00"}}

	engine := scheduler.NewEngine(config, store)
	engine.Now = func() time.Time { return handlerNow }

	return &BulkScheduler{Engine: engine}
}

func testApp(handler *BulkScheduler) *fiber.App {
	app := fiber.New()
	BulkSchedulerRouter(app.Group("/bulk-scheduler"), handler)
	return app
}

type response struct {
	code  int
	cache string
	body  map[string]interface{}
}

func call(t *testing.T, app *fiber.App, method string, target string, body string) response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return response{code: resp.StatusCode, cache: resp.Header.Get("X-Cache"), body: decoded}
}

func TestGenerateReturnsSummary(t *testing.T) {
	store, _ := oneDepotStore()
	app := testApp(testHandler(store))

	resp := call(t, app, http.MethodPost, "/bulk-scheduler/generate",
		`{"daysToSchedule": 2, "tripsPerDepotPerDay": 2, "startDate": "2026-03-02", "seed": 7}`)

	require.Equal(t, http.StatusOK, resp.code)
	assert.Equal(t, true, resp.body["success"])
	assert.Equal(t, "Successfully generated 4 trips across 1 depots", resp.body["message"])

	data := resp.body["data"].(map[string]interface{})
	assert.EqualValues(t, 4, data["totalGenerated"])
	assert.EqualValues(t, 4, data["totalInserted"])
	assert.EqualValues(t, 2, data["daysScheduled"])
	assert.EqualValues(t, 100, data["successRate"])
	assert.Equal(t, []interface{}{}, data["errors"])
	assert.NotNil(t, data["warnings"])

	assert.Len(t, store.trips, 4)
}

func TestGenerateRejectsLongRanges(t *testing.T) {
	store, _ := oneDepotStore()
	app := testApp(testHandler(store))

	resp := call(t, app, http.MethodPost, "/bulk-scheduler/generate", `{"daysToSchedule": 400}`)

	assert.Equal(t, http.StatusBadRequest, resp.code)
	assert.Equal(t, false, resp.body["success"])
	assert.Equal(t, "Cannot schedule more than 365 days in advance", resp.body["message"])
	assert.Empty(t, store.trips)
}

func TestGenerateWithoutDepots(t *testing.T) {
	app := testApp(testHandler(&fleetStore{}))

	resp := call(t, app, http.MethodPost, "/bulk-scheduler/generate", `{"daysToSchedule": 1}`)

	assert.Equal(t, http.StatusBadRequest, resp.code)
	assert.Equal(t, "No active depots found for scheduling", resp.body["message"])
}

type busyLock struct{}

func (busyLock) Acquire(ctx context.Context, dates []time.Time) (*scheduler.Lease, error) {
	return nil, scheduler.ErrRunInProgress
}

func (busyLock) AcquireCleanup(ctx context.Context) (*scheduler.Lease, error) {
	return nil, scheduler.ErrRunInProgress
}

func TestGenerateConflictsWithRunningRun(t *testing.T) {
	store, _ := oneDepotStore()
	handler := testHandler(store)
	handler.Engine.Lock = busyLock{}

	resp := call(t, testApp(handler), http.MethodPost, "/bulk-scheduler/generate", `{"daysToSchedule": 1}`)

	assert.Equal(t, http.StatusConflict, resp.code)
	assert.Equal(t, "Failed to generate bulk trips", resp.body["message"])
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	store, _ := oneDepotStore()

	resp := call(t, testApp(testHandler(store)), http.MethodPost, "/bulk-scheduler/generate", `{"daysToSchedule": `)

	assert.Equal(t, http.StatusBadRequest, resp.code)
	assert.Equal(t, "Invalid request body", resp.body["message"])
}

func TestStatusReportsUnavailableStore(t *testing.T) {
	store := &fleetStore{unavailable: errors.New("connection refused")}

	resp := call(t, testApp(testHandler(store)), http.MethodGet, "/bulk-scheduler/status", "")

	assert.Equal(t, http.StatusServiceUnavailable, resp.code)
	assert.Equal(t, "Failed to get scheduler status", resp.body["message"])
}

func TestStatusIsCachedUntilRunChangesTrips(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	store, _ := oneDepotStore()
	handler := testHandler(store)
	handler.Cache = cache.New[string](redisstore.NewRedis(client))
	app := testApp(handler)

	first := call(t, app, http.MethodGet, "/bulk-scheduler/status", "")
	require.Equal(t, http.StatusOK, first.code)
	assert.Equal(t, "MISS", first.cache)

	second := call(t, app, http.MethodGet, "/bulk-scheduler/status", "")
	assert.Equal(t, "HIT", second.cache)
	assert.Equal(t, first.body, second.body)

	generated := call(t, app, http.MethodPost, "/bulk-scheduler/generate", `{"daysToSchedule": 1, "startDate": "2026-03-02"}`)
	require.Equal(t, http.StatusOK, generated.code)

	third := call(t, app, http.MethodGet, "/bulk-scheduler/status", "")
	assert.Equal(t, "MISS", third.cache)
	current := third.body["data"].(map[string]interface{})["current"].(map[string]interface{})
	assert.EqualValues(t, 2, current["totalTrips"])
	assert.EqualValues(t, 2, current["todayTrips"])

	server.FastForward(ReportCacheExpiration + time.Second)
	assert.False(t, server.Exists(statusCacheKey))
}

func TestDepotAnalysis(t *testing.T) {
	store, depotID := oneDepotStore()

	resp := call(t, testApp(testHandler(store)), http.MethodGet, "/bulk-scheduler/depot-analysis", "")

	require.Equal(t, http.StatusOK, resp.code)
	analysis := resp.body["data"].([]interface{})
	require.Len(t, analysis, 1)

	depot := analysis[0].(map[string]interface{})
	assert.Equal(t, depotID.Hex(), depot["depotId"])
	assert.EqualValues(t, 1, depot["readinessScore"])
	assert.Equal(t, true, depot["canSchedule"])
	assert.EqualValues(t, 2, depot["maxTripsPerDay"])
}

func TestCleanupRequiresConfirmation(t *testing.T) {
	store, _ := oneDepotStore()

	resp := call(t, testApp(testHandler(store)), http.MethodPost, "/bulk-scheduler/cleanup", `{"deleteAll": true}`)

	assert.Equal(t, http.StatusBadRequest, resp.code)
	assert.Equal(t, "Cleanup requires confirmation. Set confirmCleanup: true", resp.body["message"])
}

func TestCleanupDeletesTrips(t *testing.T) {
	store, _ := oneDepotStore()
	app := testApp(testHandler(store))

	generated := call(t, app, http.MethodPost, "/bulk-scheduler/generate", `{"daysToSchedule": 3, "tripsPerDepotPerDay": 1, "startDate": "2026-03-02"}`)
	require.Equal(t, http.StatusOK, generated.code)
	require.Len(t, store.trips, 3)

	resp := call(t, app, http.MethodPost, "/bulk-scheduler/cleanup", `{"deleteAll": true, "confirmCleanup": true}`)

	require.Equal(t, http.StatusOK, resp.code)
	assert.EqualValues(t, 3, resp.body["deletedCount"])
	assert.Equal(t, "Deleted 3 trips", resp.body["message"])
	assert.Empty(t, store.trips)
}

func TestCleanupConflictsWithRunningRun(t *testing.T) {
	store, _ := oneDepotStore()
	handler := testHandler(store)
	handler.Engine.Lock = busyLock{}

	resp := call(t, testApp(handler), http.MethodPost, "/bulk-scheduler/cleanup", `{"deleteAll": true, "confirmCleanup": true}`)

	assert.Equal(t, http.StatusConflict, resp.code)
	assert.Equal(t, "Failed to cleanup trips", resp.body["message"])
}

func TestTripsReducedByGroup(t *testing.T) {
	store, depotID := oneDepotStore()
	app := testApp(testHandler(store))

	generated := call(t, app, http.MethodPost, "/bulk-scheduler/generate", `{"daysToSchedule": 2, "tripsPerDepotPerDay": 2, "startDate": "2026-03-02"}`)
	require.Equal(t, http.StatusOK, generated.code)

	basic := call(t, app, http.MethodGet, "/bulk-scheduler/trips?date=2026-03-03&depotId="+depotID.Hex(), "")
	require.Equal(t, http.StatusOK, basic.code)
	trips := basic.body["data"].([]interface{})
	require.Len(t, trips, 2)
	trip := trips[0].(map[string]interface{})
	assert.Equal(t, depotID.Hex(), trip["depotId"])
	assert.Contains(t, trip, "startTime")
	assert.NotContains(t, trip, "scheduling")

	detailed := call(t, app, http.MethodGet, "/bulk-scheduler/trips?date=2026-03-03&detailed=true", "")
	require.Equal(t, http.StatusOK, detailed.code)
	trip = detailed.body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Tuesday", trip["scheduling"].(map[string]interface{})["dayOfWeek"])
}

func TestTripsValidatesQuery(t *testing.T) {
	app := testApp(testHandler(&fleetStore{}))

	missing := call(t, app, http.MethodGet, "/bulk-scheduler/trips", "")
	assert.Equal(t, http.StatusBadRequest, missing.code)
	assert.Equal(t, "A date must be provided", missing.body["message"])

	badDepot := call(t, app, http.MethodGet, "/bulk-scheduler/trips?date=2026-03-03&depotId=nope", "")
	assert.Equal(t, http.StatusBadRequest, badDepot.code)

	badDate := call(t, app, http.MethodGet, "/bulk-scheduler/trips?date=03/03/2026", "")
	assert.Equal(t, http.StatusBadRequest, badDate.code)
}
