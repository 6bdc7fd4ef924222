// Package mastoclient provides the primary entry point for constructing a
// Mastodon API client that implements the masto.Client interface.
//
// It layers configuration, HTTP transport, authentication and the action
// dispatcher on top of the resource interfaces and types defined in the masto
// package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/masto-client/pkg/masto"
//	  "github.com/fivetwenty-io/masto-client/pkg/mastoclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := mastoclient.New(ctx, &masto.Config{
//	    InstanceURL: "mastodon.social", // https:// is assumed
//	    AccessToken: "...",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  notifications, err := cli.Notifications().List(&masto.ListNotificationsParams{
//	    Types: []masto.NotificationType{masto.NotificationMention},
//	  }).Next(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = notifications
//	}
//
// # Media uploads
//
// Media().Create returns only after the server has processed the upload. The
// wait is bounded by Config.MediaTimeout (60s by default) or a per-call
// masto.WithMediaTimeout; when it elapses a *masto.TimeoutError is returned.
//
// # Helpers
//
// NewWithEndpoint, NewWithToken and NewWithClientCredentials wrap New with the
// appropriate configuration.
package mastoclient
