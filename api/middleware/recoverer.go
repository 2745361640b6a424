package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/pixcheckout/api/responses"
	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
)

// Recoverer turns handler panics into a 500 envelope. http.ErrAbortHandler is
// re-raised so the server can drop the connection as intended.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				err := fmt.Errorf("handler panic: %v", rec)
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic.recovered"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
