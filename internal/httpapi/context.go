package httpapi

import (
	"context"
	"net/http"
	"time"
)

// deviceLookupTimeout bounds BlueZ queries made on behalf of a request.
const deviceLookupTimeout = 5 * time.Second

// lookupContext derives the context for a BlueZ query. It ends with the
// request, on server shutdown (SetBaseContext) or after deviceLookupTimeout.
func lookupContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), deviceLookupTimeout)
	stop := context.AfterFunc(serverBaseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
