package pix

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pixcheckout/api/responses"
	"github.com/angelmondragon/pixcheckout/api/validators"
	"github.com/angelmondragon/pixcheckout/internal/pixcode"
	"github.com/angelmondragon/pixcheckout/pkg/config"
	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
)

type viewRequest struct {
	pixcode.Presentation
	// Total is the numeric order amount. When present it replaces Amount
	// with its formatted form.
	Total  *decimal.Decimal `json:"total,omitempty"`
	Copied bool             `json:"copied"`
}

func (v *viewRequest) Validate() error {
	if v.Total != nil {
		if v.Total.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment presentation").
				WithDetails(map[string]string{"total": "must not be negative"})
		}
		v.Amount = pixcode.FormatBRL(*v.Total)
	}
	return v.Presentation.Validate()
}

type viewResponse struct {
	View pixcode.View `json:"view"`
	// CopyResetMS tells the client how long to keep the copy acknowledgment.
	CopyResetMS int64 `json:"copy_reset_ms"`
}

// View renders the payment code step for a presentation and copy state.
func View(cfg config.PixConfig, logg *logger.Logger) http.HandlerFunc {
	reset := cfg.CopyResetDelay
	if reset <= 0 {
		reset = pixcode.DefaultResetDelay
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req viewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewResponse{
			View:        pixcode.Render(req.Presentation, req.Copied),
			CopyResetMS: reset.Milliseconds(),
		})
	}
}
