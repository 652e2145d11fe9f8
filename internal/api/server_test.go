package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skyhook-org/dronelog/internal/config"
	"github.com/skyhook-org/dronelog/internal/database"
	"github.com/skyhook-org/dronelog/internal/models"
	"github.com/skyhook-org/dronelog/internal/services"
	"github.com/skyhook-org/dronelog/internal/utils"
)

func setupTestServer(t *testing.T) (*Server, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.AuthToken{},
		&models.LoginAttempt{},
		&models.Pilot{},
		&models.Drone{},
		&models.FlightLocation{},
		&models.Flight{},
		&models.Event{},
		&models.Document{},
		&models.RequestLog{},
		&models.Migration{},
	))

	cfg := config.NewDefault()
	cfg.JWT.Secret = "test-secret"

	testDB := database.NewDatabase(cfg.Database)
	testDB.SetDB(db)

	log := utils.NewLogger(utils.LoggerConfig{Level: "error", Pretty: false})

	masterKey, err := utils.GenerateMasterKey()
	require.NoError(t, err)
	encryption, err := utils.NewEncryptionService(masterKey)
	require.NoError(t, err)

	runner := database.NewMigrationRunner(db, log)
	runner.Register(database.Unit{
		Name: "001_noop",
		Up: func(ctx context.Context, tx *gorm.DB, logger zerolog.Logger) error {
			return nil
		},
	})

	svcs := Services{
		Pilots:      services.NewPilotService(db, log),
		Drones:      services.NewDroneService(db, log),
		Locations:   services.NewLocationService(db, log),
		Events:      services.NewEventService(db, log),
		Flights:     services.NewFlightService(db, log),
		Documents:   services.NewDocumentService(db, encryption, log),
		Dashboard:   services.NewDashboardService(db, time.UTC, log),
		Idempotency: services.NewIdempotencyService(db, 5*time.Minute, log),
	}

	server, err := NewServer(cfg, testDB, svcs, runner, log)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return server, db
}

func seedUser(t *testing.T, db *gorm.DB, email string, isAdmin bool) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Email: email, Password: string(hash), IsAdmin: isAdmin}
	require.NoError(t, db.Create(user).Error)
	return user
}

func login(t *testing.T, server *Server, email string) string {
	body, _ := json.Marshal(LoginRequest{Email: email, Password: "password123"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func doJSON(server *Server, method, path, token string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestLoginHandler(t *testing.T) {
	server, db := setupTestServer(t)
	seedUser(t, db, "pilot@example.com", false)

	t.Run("valid credentials", func(t *testing.T) {
		token := login(t, server, "pilot@example.com")
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		body, _ := json.Marshal(LoginRequest{Email: "pilot@example.com", Password: "wrong-password"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		server.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rate limited after repeated failures", func(t *testing.T) {
		var last int
		for i := 0; i < 6; i++ {
			body, _ := json.Marshal(LoginRequest{Email: "pilot@example.com", Password: "wrong-password"})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			server.Router().ServeHTTP(w, req)
			last = w.Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})
}

func TestAuthRequired(t *testing.T) {
	server, _ := setupTestServer(t)

	w := doJSON(server, http.MethodGet, "/api/v1/pilots", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminGate(t *testing.T) {
	server, db := setupTestServer(t)
	seedUser(t, db, "pilot@example.com", false)
	seedUser(t, db, "admin@example.com", true)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		token := login(t, server, "pilot@example.com")
		w := doJSON(server, http.MethodGet, "/api/v1/admin/migrations", token, nil, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin can list migrations", func(t *testing.T) {
		token := login(t, server, "admin@example.com")
		w := doJSON(server, http.MethodGet, "/api/v1/admin/migrations", token, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var statuses []database.Status
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
		require.Len(t, statuses, 1)
		assert.Equal(t, "001_noop", statuses[0].Name)
		assert.False(t, statuses[0].Executed)
	})

	t.Run("admin can run a migration", func(t *testing.T) {
		token := login(t, server, "admin@example.com")
		w := doJSON(server, http.MethodPost, "/api/v1/admin/migrations/001_noop/run", token, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var result database.RunResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.AlreadyExecuted)

		// Second run reports already executed
		w = doJSON(server, http.MethodPost, "/api/v1/admin/migrations/001_noop/run", token, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.AlreadyExecuted)
	})
}

func TestFlightLifecycle(t *testing.T) {
	server, db := setupTestServer(t)
	seedUser(t, db, "pilot@example.com", false)
	token := login(t, server, "pilot@example.com")

	pilot := &models.Pilot{Name: "Riley", MinutesOfFlightsNeeded: 45}
	require.NoError(t, db.Create(pilot).Error)
	drone := &models.Drone{Name: "Mavic", SerialNumber: "SN-001"}
	require.NoError(t, db.Create(drone).Error)

	startReq := services.StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID}

	w := doJSON(server, http.MethodPost, "/api/v1/flights", token, startReq, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var flight models.Flight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flight))
	assert.Nil(t, flight.FlightEndDate)

	t.Run("double start conflicts", func(t *testing.T) {
		w := doJSON(server, http.MethodPost, "/api/v1/flights", token, startReq, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("end then end again", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/flights/%d/end", flight.ID)
		w := doJSON(server, http.MethodPost, path, token, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(server, http.MethodPost, path, token, nil, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestFlightStartIdempotency(t *testing.T) {
	server, db := setupTestServer(t)
	seedUser(t, db, "pilot@example.com", false)
	token := login(t, server, "pilot@example.com")

	pilot := &models.Pilot{Name: "Riley", MinutesOfFlightsNeeded: 45}
	require.NoError(t, db.Create(pilot).Error)
	drone := &models.Drone{Name: "Mavic", SerialNumber: "SN-001"}
	require.NoError(t, db.Create(drone).Error)

	startReq := services.StartFlightRequest{PilotID: pilot.ID, DroneID: drone.ID}
	headers := map[string]string{requestIDHeader: "field-retry-1"}

	first := doJSON(server, http.MethodPost, "/api/v1/flights", token, startReq, headers)
	require.Equal(t, http.StatusCreated, first.Code)

	// The retry replays the cached response instead of hitting a conflict
	second := doJSON(server, http.MethodPost, "/api/v1/flights", token, startReq, headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	var count int64
	require.NoError(t, db.Model(&models.Flight{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A fresh request ID is a real second start and conflicts
	third := doJSON(server, http.MethodPost, "/api/v1/flights", token, startReq, map[string]string{requestIDHeader: "field-retry-2"})
	assert.Equal(t, http.StatusConflict, third.Code)
}

func multipartWriter(t *testing.T, body *bytes.Buffer, filename string, data []byte) string {
	t.Helper()
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType()
}

func TestDocumentRoundTrip(t *testing.T) {
	server, db := setupTestServer(t)
	seedUser(t, db, "pilot@example.com", false)
	token := login(t, server, "pilot@example.com")

	payload := []byte("operations manual v2")
	body := new(bytes.Buffer)
	mw := multipartWriter(t, body, "manual.txt", payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", mw)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var doc models.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, int64(len(payload)), doc.Size)

	// Stored bytes are not the plaintext
	var stored models.Document
	require.NoError(t, db.First(&stored, doc.ID).Error)
	assert.NotEqual(t, payload, stored.Ciphertext)

	// Download returns the original bytes
	dl := doJSON(server, http.MethodGet, fmt.Sprintf("/api/v1/documents/%d/download", doc.ID), token, nil, nil)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, payload, dl.Body.Bytes())
}
