package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/models"
)

type failedCall struct {
	id         uuid.UUID
	retryCount int
	status     models.NotificationStatus
	lastError  string
}

type fakeStore struct {
	created   []models.Notification
	createErr error

	pending     []models.Notification
	pendingErr  error
	lastLimit   int
	claimDenied map[uuid.UUID]bool
	sent        []uuid.UUID
	markSentErr error
	failed      []failedCall
	markFailErr error
}

func (f *fakeStore) CreateNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	if f.createErr != nil {
		return models.Notification{}, f.createErr
	}
	n.ID = uuid.New()
	f.created = append(f.created, n)
	return n, nil
}

func (f *fakeStore) GetPendingNotifications(_ context.Context, limit int) ([]models.Notification, error) {
	f.lastLimit = limit
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStore) ClaimNotification(_ context.Context, id uuid.UUID) (bool, error) {
	return !f.claimDenied[id], nil
}

func (f *fakeStore) MarkNotificationSent(_ context.Context, id uuid.UUID) error {
	if f.markSentErr != nil {
		return f.markSentErr
	}
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeStore) MarkNotificationFailed(_ context.Context, id uuid.UUID, retryCount int, status models.NotificationStatus, lastError string) error {
	if f.markFailErr != nil {
		return f.markFailErr
	}
	f.failed = append(f.failed, failedCall{id: id, retryCount: retryCount, status: status, lastError: lastError})
	return nil
}

type fakeSettings struct {
	snap models.SalonSettings
	err  error
}

func (f *fakeSettings) Snapshot(context.Context) (models.SalonSettings, error) {
	return f.snap, f.err
}

type sendCall struct {
	to      string
	subject string
	body    string
}

type fakeEmail struct {
	calls []sendCall
	err   error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, body string) error {
	f.calls = append(f.calls, sendCall{to: to, subject: subject, body: body})
	return f.err
}

type fakeSMS struct {
	calls []sendCall
	err   error
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	f.calls = append(f.calls, sendCall{to: to, body: body})
	return f.err
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Publish(e Event) {
	r.events = append(r.events, e)
}

func newTestService(store *fakeStore, settings *fakeSettings, email *fakeEmail, sms *fakeSMS) *Service {
	return New(store, settings, email, sms, logging.NewNop())
}

func pendingEmail(subject string, retryCount int) models.Notification {
	return models.Notification{
		ID:         uuid.New(),
		Channel:    models.ChannelEmail,
		Type:       models.TypeReminder,
		Recipient:  "jo@example.com",
		Subject:    subject,
		Content:    "<p>hi</p>",
		Status:     models.StatusPending,
		RetryCount: retryCount,
	}
}

func TestEnqueueApprovalRequired(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeSettings{snap: models.SalonSettings{RequireApproval: true}}, &fakeEmail{}, &fakeSMS{})

	n, err := svc.Enqueue(context.Background(), models.ChannelEmail, models.TypeAnnouncement, "jo@example.com", "hello", "subject", nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusWaitingApproval, n.Status)
	assert.Equal(t, 0, n.RetryCount)
	require.Len(t, store.created, 1)
	assert.Equal(t, models.StatusWaitingApproval, store.created[0].Status)
}

func TestEnqueueApprovalNotRequired(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeSettings{snap: models.SalonSettings{RequireApproval: false}}, &fakeEmail{}, &fakeSMS{})

	n, err := svc.Enqueue(context.Background(), models.ChannelSMS, models.TypeReminder, "+15550001", "hello", "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, n.Status)
}

func TestEnqueueDefaultsMetadata(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeSettings{}, &fakeEmail{}, &fakeSMS{})

	n, err := svc.Enqueue(context.Background(), models.ChannelSMS, models.TypeReminder, "+15550001", "hello", "", nil)
	require.NoError(t, err)
	assert.NotNil(t, n.Metadata)
	assert.Empty(t, n.Metadata)
}

func TestEnqueueStoreFailureReturnsError(t *testing.T) {
	store := &fakeStore{createErr: errors.New("db down")}
	svc := newTestService(store, &fakeSettings{}, &fakeEmail{}, &fakeSMS{})

	n, err := svc.Enqueue(context.Background(), models.ChannelEmail, models.TypeAnnouncement, "jo@example.com", "hello", "s", nil)
	assert.Error(t, err)
	assert.Nil(t, n)
}

func TestProcessQueueEmpty(t *testing.T) {
	store := &fakeStore{}
	email := &fakeEmail{}
	svc := newTestService(store, &fakeSettings{}, email, &fakeSMS{})

	res := svc.ProcessQueue(context.Background(), 20)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, email.calls)
}

func TestProcessQueueEmailSuccess(t *testing.T) {
	n := pendingEmail("Your appointment", 0)
	store := &fakeStore{pending: []models.Notification{n}}
	email := &fakeEmail{}
	sink := &recordingSink{}
	svc := newTestService(store, &fakeSettings{}, email, &fakeSMS{})
	svc.SetEventSink(sink)

	res := svc.ProcessQueue(context.Background(), 20)

	assert.Equal(t, Result{Processed: 1, Errors: 0}, res)
	require.Len(t, email.calls, 1)
	assert.Equal(t, "jo@example.com", email.calls[0].to)
	assert.Equal(t, "Your appointment", email.calls[0].subject)
	require.Len(t, store.sent, 1)
	assert.Equal(t, n.ID, store.sent[0])
	require.Len(t, sink.events, 1)
	assert.Equal(t, models.StatusSent, sink.events[0].Status)
}

func TestProcessQueueSMSSuccess(t *testing.T) {
	n := models.Notification{
		ID:        uuid.New(),
		Channel:   models.ChannelSMS,
		Recipient: "+15550001",
		Content:   "see you tomorrow",
		Status:    models.StatusPending,
	}
	store := &fakeStore{pending: []models.Notification{n}}
	sms := &fakeSMS{}
	svc := newTestService(store, &fakeSettings{}, &fakeEmail{}, sms)

	res := svc.ProcessQueue(context.Background(), 20)

	assert.Equal(t, Result{Processed: 1, Errors: 0}, res)
	require.Len(t, sms.calls, 1)
	assert.Equal(t, "+15550001", sms.calls[0].to)
	assert.Equal(t, "see you tomorrow", sms.calls[0].body)
}

func TestProcessQueueEmailMissingSubject(t *testing.T) {
	n := pendingEmail("", 0)
	store := &fakeStore{pending: []models.Notification{n}}
	email := &fakeEmail{}
	svc := newTestService(store, &fakeSettings{}, email, &fakeSMS{})

	res := svc.ProcessQueue(context.Background(), 20)

	assert.Equal(t, Result{Processed: 0, Errors: 1}, res)
	assert.Empty(t, email.calls, "sender must not be called without a subject")
	require.Len(t, store.failed, 1)
	assert.Equal(t, 1, store.failed[0].retryCount)
	assert.Equal(t, models.StatusPending, store.failed[0].status)
	assert.Contains(t, store.failed[0].lastError, "subject missing")
}

func TestProcessQueueRetryIncrement(t *testing.T) {
	for _, retryCount := range []int{0, 1} {
		n := pendingEmail("s", retryCount)
		store := &fakeStore{pending: []models.Notification{n}}
		email := &fakeEmail{err: errors.New("smtp unavailable")}
		svc := newTestService(store, &fakeSettings{}, email, &fakeSMS{})

		res := svc.ProcessQueue(context.Background(), 20)

		assert.Equal(t, Result{Processed: 0, Errors: 1}, res)
		require.Len(t, store.failed, 1)
		assert.Equal(t, retryCount+1, store.failed[0].retryCount)
		assert.Equal(t, models.StatusPending, store.failed[0].status,
			"record with attempts left stays PENDING")
	}
}

func TestProcessQueueRetryExhaustion(t *testing.T) {
	n := pendingEmail("s", 2)
	store := &fakeStore{pending: []models.Notification{n}}
	email := &fakeEmail{err: errors.New("smtp unavailable")}
	sink := &recordingSink{}
	svc := newTestService(store, &fakeSettings{}, email, &fakeSMS{})
	svc.SetEventSink(sink)

	res := svc.ProcessQueue(context.Background(), 20)

	assert.Equal(t, Result{Processed: 0, Errors: 1}, res)
	require.Len(t, store.failed, 1)
	assert.Equal(t, 3, store.failed[0].retryCount)
	assert.Equal(t, models.StatusFailed, store.failed[0].status)
	require.Len(t, sink.events, 1)
	assert.Equal(t, models.StatusFailed, sink.events[0].Status)
}

func TestProcessQueueUnknownChannel(t *testing.T) {
	n := models.Notification{
		ID:        uuid.New(),
		Channel:   "PIGEON",
		Recipient: "coop 7",
		Content:   "coo",
		Status:    models.StatusPending,
	}
	store := &fakeStore{pending: []models.Notification{n}}
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := newTestService(store, &fakeSettings{}, email, sms)

	res := svc.ProcessQueue(context.Background(), 20)

	assert.Equal(t, Result{Processed: 0, Errors: 1}, res)
	assert.Empty(t, email.calls)
	assert.Empty(t, sms.calls)
	require.Len(t, store.failed, 1)
	assert.Contains(t, store.failed[0].lastError, "unknown channel")
}

func TestProcessQueueBounded(t *testing.T) {
	var pending []models.Notification
	for i := 0; i < 5; i++ {
		pending = append(pending, pendingEmail("s", 0))
	}
	store := &fakeStore{pending: pending}
	email := &fakeEmail{}
	svc := newTestService(store, &fakeSettings{}, email, &fakeSMS{})

	res := svc.ProcessQueue(context.Background(), 3)

	assert.Equal(t, 3, store.lastLimit)
	assert.Equal(t, Result{Processed: 3, Errors: 0}, res)
	assert.Len(t, email.calls, 3)
}

func TestProcessQueueDefaultLimit(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeSettings{}, &fakeEmail{}, &fakeSMS{})

	svc.ProcessQueue(context.Background(), 0)
	assert.Equal(t, DefaultBatchLimit, store.lastLimit)
}

func TestProcessQueueClaimLostSkips(t *testing.T) {
	n := pendingEmail("s", 0)
	store := &fakeStore{
		pending:     []models.Notification{n},
		claimDenied: map[uuid.UUID]bool{n.ID: true},
	}
	email := &fakeEmail{}
	svc := newTestService(store, &fakeSettings{}, email, &fakeSMS{})

	res := svc.ProcessQueue(context.Background(), 20)

	assert.Equal(t, Result{}, res)
	assert.Empty(t, email.calls)
	assert.Empty(t, store.failed)
}

func TestProcessQueueOneFailureDoesNotAbortBatch(t *testing.T) {
	bad := pendingEmail("", 0) // missing subject
	good := pendingEmail("s", 0)
	store := &fakeStore{pending: []models.Notification{bad, good}}
	email := &fakeEmail{}
	svc := newTestService(store, &fakeSettings{}, email, &fakeSMS{})

	res := svc.ProcessQueue(context.Background(), 20)

	assert.Equal(t, Result{Processed: 1, Errors: 1}, res)
	require.Len(t, email.calls, 1)
	require.Len(t, store.sent, 1)
	assert.Equal(t, good.ID, store.sent[0])
}
