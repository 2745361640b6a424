package pixcode

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
)

// Presentation is the immutable input for one render of the payment code.
// ImageData is base64 encoded image bytes; empty means the QR image is still being generated.
type Presentation struct {
	Code      string `json:"code" validate:"required"`
	ImageData string `json:"image_data"`
	Quantity  int    `json:"quantity" validate:"min=1"`
	Amount    string `json:"amount" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Validate checks the presentation invariants and reports field-level details.
func (p Presentation) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment presentation").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment presentation")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// defaultImageMIME is assumed when the payload cannot be sniffed; QR images are PNG.
const defaultImageMIME = "image/png"

// decodedImage is the result of inspecting ImageData once per presentation.
type decodedImage struct {
	mime string
	ok   bool
}

// decodeImage reports whether ImageData is present and which MIME type to
// advertise for it. Any non-empty payload counts as ready; sniffing only
// refines the MIME type.
func decodeImage(data string) decodedImage {
	if data == "" {
		return decodedImage{}
	}
	return decodedImage{mime: sniffImageMIME(strings.TrimSpace(data)), ok: true}
}

func sniffImageMIME(data string) string {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		raw, err := enc.DecodeString(data)
		if err != nil || len(raw) == 0 {
			continue
		}
		if mt := mimetype.Detect(raw).String(); strings.HasPrefix(mt, "image/") {
			return mt
		}
		break
	}
	return defaultImageMIME
}

// FormatBRL renders an amount the way the checkout header expects it: two
// decimals, comma as decimal separator and dots between thousands.
func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
