package validators

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
)

// maxBodyBytes bounds request bodies; QR images travel inline as base64.
const maxBodyBytes = 1 << 20

type validatable interface {
	Validate() error
}

// DecodeJSONBody strictly decodes the request body into dest and runs its
// Validate method when it has one.
func DecodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body is required")
	}
	body := io.LimitReader(r.Body, maxBodyBytes)
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}

	if v, ok := dest.(validatable); ok {
		if err := v.Validate(); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
	}
	return nil
}
