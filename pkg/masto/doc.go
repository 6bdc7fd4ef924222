// Package masto provides types, interfaces, and helpers for working with the
// Mastodon REST API.
//
// # Overview
//
// The masto package defines the entities (MediaAttachment, Notification,
// NotificationPolicy, ...) and the interfaces for resource-oriented clients
// (MediaClient, NotificationsClient, InstanceClient). A concrete
// implementation is provided by the mastoclient package, which wires
// configuration, transport, authentication and the action dispatcher.
//
// # Actions
//
// Every call is described by an Action: a type (read, create, update,
// replace, delete), a path, a payload and per-call metadata. An
// ActionDispatcher maps the type onto an HTTP verb. Endpoints without a
// resource client can be reached directly:
//
//	resp, err := cli.Dispatcher().Dispatch(ctx,
//	  masto.NewAction(masto.ActionCreate, "/api/v1/statuses/1/favourite", nil,
//	    masto.WithNewIdempotencyKey()))
//
// Creates on /api/v2/media are special: the dispatcher polls the attachment
// until the server has processed it, returning a *TimeoutError when the media
// timeout elapses first.
//
// # Pagination
//
// List endpoints return a Paginator that follows the Link header in both
// directions:
//
//	p := cli.Notifications().List(nil)
//	for page, err := range p.Pages(ctx) {
//	  if err != nil { break }
//	  _ = page
//	}
//
// # Errors
//
// Server rejections are *HTTPError values; IsNotFound, IsUnauthorized,
// IsRateLimited and friends branch on common cases. IsTimeout and IsCanceled
// identify abandoned media waits. Everything else is returned as the
// underlying error.
//
// # Interceptors
//
// InterceptorChain hooks run around every HTTP request: request ids, logging,
// metrics and a rate limit watcher are provided.
package masto
