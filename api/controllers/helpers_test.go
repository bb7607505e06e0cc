package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/krishikarobar/marketplace-backend/api/middleware"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	"github.com/krishikarobar/marketplace-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type requestOpts struct {
	userID uuid.UUID
	role   enums.ActorRole
	params map[string]string
	body   any
}

func newRequest(t *testing.T, method, target string, opts requestOpts) *http.Request {
	t.Helper()

	var body io.Reader
	if opts.body != nil {
		raw, ok := opts.body.(string)
		if !ok {
			encoded, err := json.Marshal(opts.body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		body = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, target, body)

	ctx := req.Context()
	if opts.userID != uuid.Nil {
		ctx = middleware.WithUserID(ctx, opts.userID.String())
		ctx = middleware.WithRole(ctx, opts.role.String())
	}
	if len(opts.params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range opts.params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}
