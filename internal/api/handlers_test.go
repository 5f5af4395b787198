package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon-notification-service/internal/db"
	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/models"
	"salon-notification-service/internal/queue"
)

type fakeStore struct {
	notifications map[uuid.UUID]models.Notification
	approved      []uuid.UUID
}

func (f *fakeStore) GetNotifications(_ context.Context, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeStore) GetNotificationByID(_ context.Context, id uuid.UUID) (models.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return models.Notification{}, db.ErrNotFound
	}
	return n, nil
}

func (f *fakeStore) ApproveNotification(_ context.Context, id uuid.UUID) (bool, error) {
	n, ok := f.notifications[id]
	if !ok || n.Status != models.StatusWaitingApproval {
		return false, nil
	}
	n.Status = models.StatusPending
	f.notifications[id] = n
	f.approved = append(f.approved, id)
	return true, nil
}

type fakeEnqueuer struct {
	lastChannel models.NotificationChannel
	err         error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, channel models.NotificationChannel, typ models.NotificationType, recipient, content, subject string, metadata map[string]any) (*models.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastChannel = channel
	return &models.Notification{
		ID: uuid.New(), Channel: channel, Type: typ,
		Recipient: recipient, Content: content, Subject: subject,
		Metadata: metadata, Status: models.StatusPending,
	}, nil
}

type fakeJobs struct {
	sweepResult   queue.Result
	sweepCalls    int
	reminderCalls int
}

func (f *fakeJobs) RunSweep(context.Context) queue.Result {
	f.sweepCalls++
	return f.sweepResult
}

func (f *fakeJobs) RunReminders(context.Context) {
	f.reminderCalls++
}

type fakeRefresher struct {
	snap models.SalonSettings
}

func (f *fakeRefresher) Refresh(context.Context) (models.SalonSettings, error) {
	return f.snap, nil
}

func setupRouter(store *fakeStore, q *fakeEnqueuer, jobs *fakeJobs) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, q, jobs, &fakeRefresher{}, logging.NewNop())

	r := gin.New()
	r.POST("/notifications", h.EnqueueNotification)
	r.GET("/notifications/:id", h.GetNotificationByID)
	r.POST("/notifications/:id/approve", h.ApproveNotification)
	r.POST("/queue/process", h.ProcessQueue)
	r.POST("/reminders/run", h.RunReminders)
	return r
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEnqueueNotificationCreated(t *testing.T) {
	q := &fakeEnqueuer{}
	r := setupRouter(&fakeStore{}, q, &fakeJobs{})

	w := performJSON(t, r, http.MethodPost, "/notifications", map[string]any{
		"channel":   "EMAIL",
		"recipient": "jo@example.com",
		"content":   "<p>hi</p>",
		"subject":   "Hello",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.ChannelEmail, q.lastChannel)

	var n models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n))
	assert.Equal(t, "jo@example.com", n.Recipient)
	// No type given defaults to announcement
	assert.Equal(t, models.TypeAnnouncement, n.Type)
}

func TestEnqueueNotificationInvalidChannel(t *testing.T) {
	r := setupRouter(&fakeStore{}, &fakeEnqueuer{}, &fakeJobs{})

	w := performJSON(t, r, http.MethodPost, "/notifications", map[string]any{
		"channel":   "CARRIER_PIGEON",
		"recipient": "coop 7",
		"content":   "coo",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnqueueNotificationMissingFields(t *testing.T) {
	r := setupRouter(&fakeStore{}, &fakeEnqueuer{}, &fakeJobs{})

	w := performJSON(t, r, http.MethodPost, "/notifications", map[string]any{
		"channel": "EMAIL",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetNotificationByIDNotFound(t *testing.T) {
	r := setupRouter(&fakeStore{notifications: map[uuid.UUID]models.Notification{}}, &fakeEnqueuer{}, &fakeJobs{})

	w := performJSON(t, r, http.MethodGet, "/notifications/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApproveNotification(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{notifications: map[uuid.UUID]models.Notification{
		id: {ID: id, Status: models.StatusWaitingApproval},
	}}
	r := setupRouter(store, &fakeEnqueuer{}, &fakeJobs{})

	w := performJSON(t, r, http.MethodPost, "/notifications/"+id.String()+"/approve", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{id}, store.approved)
	assert.Equal(t, models.StatusPending, store.notifications[id].Status)
}

func TestApproveNotificationWrongState(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{notifications: map[uuid.UUID]models.Notification{
		id: {ID: id, Status: models.StatusSent},
	}}
	r := setupRouter(store, &fakeEnqueuer{}, &fakeJobs{})

	w := performJSON(t, r, http.MethodPost, "/notifications/"+id.String()+"/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProcessQueueReturnsCounts(t *testing.T) {
	jobs := &fakeJobs{sweepResult: queue.Result{Processed: 2, Errors: 1}}
	r := setupRouter(&fakeStore{}, &fakeEnqueuer{}, jobs)

	w := performJSON(t, r, http.MethodPost, "/queue/process", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, jobs.sweepCalls)

	var res queue.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, queue.Result{Processed: 2, Errors: 1}, res)
}

func TestRunReminders(t *testing.T) {
	jobs := &fakeJobs{}
	r := setupRouter(&fakeStore{}, &fakeEnqueuer{}, jobs)

	w := performJSON(t, r, http.MethodPost, "/reminders/run", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, jobs.reminderCalls)
}
