// Package di wires the client's components together.
package di

import (
	"go.uber.org/zap"

	"mymemo-client/internal/cache"
	"mymemo-client/internal/config"
	"mymemo-client/internal/credentials"
	"mymemo-client/internal/editsession"
	"mymemo-client/internal/gateway"
	"mymemo-client/internal/listview"
	"mymemo-client/internal/memos"
	"mymemo-client/internal/observability"
	"mymemo-client/internal/session"
)

// Container holds the client's dependencies.
type Container struct {
	Config      *config.Config
	Logging     Logging
	Logger      *zap.Logger
	Metrics     *observability.Collector
	Tracing     TracerShutdown
	Credentials credentials.Store
	Gateway     *gateway.Gateway
	Cache       *cache.Engine
	Memos       *memos.Service
	ViewOptions *listview.Store
	Session     *session.Manager
	List        *listview.Controller
	Editor      *editsession.Controller
}
