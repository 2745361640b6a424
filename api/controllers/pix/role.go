package pix

import (
	"net/http"

	"github.com/angelmondragon/pixcheckout/api/middleware"
	"github.com/angelmondragon/pixcheckout/api/responses"
	"github.com/angelmondragon/pixcheckout/internal/identity"
	"github.com/angelmondragon/pixcheckout/internal/roles"
	"github.com/angelmondragon/pixcheckout/pkg/enums"
	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
	"github.com/angelmondragon/pixcheckout/pkg/metrics"
)

// MyRole resolves whether the caller holds the elevated role. Anonymous
// callers and failed lookups both answer not elevated.
func MyRole(lookup roles.Lookup, role enums.AppRole, logg *logger.Logger, m *metrics.CheckoutMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		provider := identity.NewProvider()
		provider.Set(ctx, middleware.IdentityFromContext(ctx))

		resolver := roles.NewResolver(lookup,
			roles.WithRole(role),
			roles.WithLogger(logg),
			roles.WithMetrics(m),
		)
		defer resolver.Close()

		resolved := make(chan roles.Result, 1)
		unsubscribe := resolver.Subscribe(func(res roles.Result) {
			if res.Loading {
				return
			}
			select {
			case resolved <- res:
			default:
			}
		})
		defer unsubscribe()

		unbind := identity.Bind(ctx, provider, resolver)
		defer unbind()

		res := resolver.Snapshot()
		if res.Loading {
			select {
			case res = <-resolved:
			case <-ctx.Done():
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "role resolution interrupted"))
				return
			}
		}
		logg.Debug(logg.WithField(ctx, "is_elevated", res.IsElevated), "roles.resolved")
		responses.WriteSuccess(w, res)
	}
}
