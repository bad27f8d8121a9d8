// Package handler exposes the order flow over HTTP. Handlers are thin: they
// parse, call into the domain, and map sentinel errors to responses.
package handler

import (
	"github.com/Possessed66/BotLMKRD/app"
	"github.com/Possessed66/BotLMKRD/internal/approval"
	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/store"
)

type API struct {
	Runtime  *app.Runtime
	Gate     *approval.Gate
	Ctrl     *approval.Controller
	Queue    *store.QueueStore
	Requests *store.RequestStore
	Tokens   *store.DeviceTokenStore
	Ops      notify.Escalator
}
