package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishikarobar/marketplace-backend/internal/notifications"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
)

type fakeNotifications struct {
	list      notifications.ListParams
	recipient uuid.UUID
	target    uuid.UUID
	updated   int64
	err       error
}

func (f *fakeNotifications) List(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	f.list = params
	if f.err != nil {
		return nil, f.err
	}
	return &notifications.ListResult{Items: []models.Notification{}}, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, recipientID, notificationID uuid.UUID) error {
	f.recipient, f.target = recipientID, notificationID
	return f.err
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, recipientID uuid.UUID) (int64, error) {
	f.recipient = recipientID
	return f.updated, f.err
}

func (f *fakeNotifications) Clear(_ context.Context, recipientID, notificationID uuid.UUID) error {
	f.recipient, f.target = recipientID, notificationID
	return f.err
}

func TestListNotificationsScopesToCaller(t *testing.T) {
	user := uuid.New()
	svc := &fakeNotifications{}
	req := newRequest(t, http.MethodGet, "/api/v1/notifications?unread_only=true&limit=10", requestOpts{
		userID: user,
		role:   enums.ActorRoleFarmer,
	})
	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, user, svc.list.RecipientID)
	assert.True(t, svc.list.UnreadOnly)
	assert.Equal(t, 10, svc.list.Limit)
}

func TestListNotificationsRejectsBadFlag(t *testing.T) {
	req := newRequest(t, http.MethodGet, "/api/v1/notifications?unread_only=maybe", requestOpts{
		userID: uuid.New(),
		role:   enums.ActorRoleBuyer,
	})
	resp := httptest.NewRecorder()
	ListNotifications(&fakeNotifications{}, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMarkNotificationRead(t *testing.T) {
	user := uuid.New()
	id := uuid.New()
	opts := requestOpts{userID: user, role: enums.ActorRoleBuyer, params: map[string]string{"notificationId": id.String()}}

	svc := &fakeNotifications{}
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger()).ServeHTTP(resp, newRequest(t, http.MethodPost, "/", opts))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"read":true}`, string(decodeEnvelope(t, resp).Data))
	assert.Equal(t, user, svc.recipient)
	assert.Equal(t, id, svc.target)

	missing := &fakeNotifications{err: pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")}
	resp = httptest.NewRecorder()
	MarkNotificationRead(missing, testLogger()).ServeHTTP(resp, newRequest(t, http.MethodPost, "/", opts))
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := &fakeNotifications{updated: 4}
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testLogger()).ServeHTTP(resp, newRequest(t, http.MethodPost, "/", requestOpts{
		userID: uuid.New(),
		role:   enums.ActorRoleAdmin,
	}))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"updated":4}`, string(decodeEnvelope(t, resp).Data))
}

func TestClearNotification(t *testing.T) {
	id := uuid.New()
	svc := &fakeNotifications{}
	resp := httptest.NewRecorder()
	ClearNotification(svc, testLogger()).ServeHTTP(resp, newRequest(t, http.MethodDelete, "/", requestOpts{
		userID: uuid.New(),
		role:   enums.ActorRoleBuyer,
		params: map[string]string{"notificationId": id.String()},
	}))

	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, id, svc.target)
}
