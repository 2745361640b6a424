package pixcode

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
)

// 1x1 transparent PNG.
const pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestRenderShowsLoadingWithoutImage(t *testing.T) {
	view := Render(Presentation{Code: "abc", Quantity: 1, Amount: "10,00"}, false)

	assert.True(t, view.QRCode.Loading)
	assert.Nil(t, view.QRCode.Image)
	assert.Equal(t, "1 crédito • R$ 10,00", view.Header.Summary)
	assert.Equal(t, copyLabel, view.CopyButton.Label)
	assert.True(t, view.Status.Pending)
	assert.Equal(t, awaitingLabel, view.Status.Label)
}

func TestRenderShowsImageWhenReady(t *testing.T) {
	view := Render(Presentation{Code: "abc", ImageData: pngBase64, Quantity: 3, Amount: "30,00"}, false)

	assert.False(t, view.QRCode.Loading)
	require.NotNil(t, view.QRCode.Image)
	assert.Equal(t, "image/png", view.QRCode.Image.MIME)
	assert.Equal(t, "data:image/png;base64,"+pngBase64, view.QRCode.Image.Src)
	assert.Equal(t, imageAlt, view.QRCode.Image.Alt)
	assert.Equal(t, "3 créditos • R$ 30,00", view.Header.Summary)
}

func TestRenderShowsImageForAnyNonEmptyData(t *testing.T) {
	for _, data := range []string{"iVBORw0KGgo", "aGVsbG8=", "not-base64!!"} {
		view := Render(Presentation{Code: "abc", ImageData: data, Quantity: 1, Amount: "1,00"}, false)
		assert.False(t, view.QRCode.Loading, data)
		require.NotNil(t, view.QRCode.Image, data)
		assert.Equal(t, defaultImageMIME, view.QRCode.Image.MIME, data)
		assert.Equal(t, "data:image/png;base64,"+data, view.QRCode.Image.Src, data)
	}
}

func TestSniffImageMIMEDetectsOtherFormats(t *testing.T) {
	// "R0lGODlh" is the base64 form of the GIF89a magic.
	assert.Equal(t, "image/gif", sniffImageMIME("R0lGODlhAQABAAAAACw="))
	assert.Equal(t, defaultImageMIME, sniffImageMIME(pngBase64))
}

func TestRenderCopiedState(t *testing.T) {
	view := Render(Presentation{Code: "abc", Quantity: 1, Amount: "1,00"}, true)
	assert.True(t, view.CopyButton.Copied)
	assert.Equal(t, copiedLabel, view.CopyButton.Label)
	assert.Equal(t, iconCheck, view.CopyButton.Icon)
	assert.True(t, view.Status.Pending, "awaiting indicator is independent of copy state")
}

func TestPresentationValidate(t *testing.T) {
	err := Presentation{Code: "", Quantity: 0, Amount: ""}.Validate()
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["code"])
	assert.Equal(t, "must be at least 1", details["quantity"])
	assert.Equal(t, "is required", details["amount"])

	assert.NoError(t, Presentation{Code: "abc", Quantity: 1, Amount: "1,00"}.Validate())
}

func TestFormatBRL(t *testing.T) {
	cases := map[string]string{
		"0":         "0,00",
		"9.9":       "9,90",
		"1234.5":    "1.234,50",
		"1234567.8": "1.234.567,80",
		"-42.1":     "-42,10",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatBRL(decimal.RequireFromString(in)), in)
	}
}
