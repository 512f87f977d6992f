package mcp

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/teampulse/adapter/cli"
	"github.com/felixgeelhaar/teampulse/pkg/config"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

func TestServe_RequiresDependencies(t *testing.T) {
	ctx := context.Background()
	assert.EqualError(t, Serve(ctx, nil, &cli.App{}, "dev", nil), "config is required")
	assert.EqualError(t, Serve(ctx, &config.Config{}, nil, "dev", nil), "CLI app is required")
}

func TestNewServer_RegistersAnalyticsTools(t *testing.T) {
	srv, err := newServer(&cli.App{}, "", observability.DiscardLogger())
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.Len(t, tools, 5)
}

func TestMiddlewareStack_AddsAuthWithToken(t *testing.T) {
	logger := observability.DiscardLogger()
	open := middlewareStack(&config.Config{}, logger)
	secured := middlewareStack(&config.Config{MCPAuthToken: "secret"}, logger)
	assert.Len(t, secured, len(open)+1)
}

func TestFieldsToArgs(t *testing.T) {
	args := fieldsToArgs([]middleware.Field{
		{Key: "method", Value: "tools/call"},
		{Key: "status", Value: 200},
	})
	assert.Equal(t, []any{"method", "tools/call", "status", 200}, args)
}
