package pixcode

import "fmt"

const (
	titleLabel        = "Escaneie o QR Code"
	imageAlt          = "QR Code PIX"
	copyHint          = "Ou copie o código PIX:"
	copyLabel         = "Copiar código de pagamento"
	copiedLabel       = "Código copiado!"
	awaitingLabel     = "Aguardando pagamento..."
	cancelLabel       = "Cancelar"
	iconCopy          = "copy"
	iconCheck         = "check"
	iconQRCode        = "qr-code"
	iconSpinner       = "spinner"
	creditUnit        = "crédito"
	currencyPrefixBRL = "R$"
)

// View is the rendered tree for the payment code step.
type View struct {
	Header     Header     `json:"header"`
	QRCode     QRSlot     `json:"qr_code"`
	CopyButton CopyButton `json:"copy_button"`
	Status     Status     `json:"status"`
	Cancel     Action     `json:"cancel"`
}

type Header struct {
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
}

// QRSlot holds either an image or a loading indicator, never both.
type QRSlot struct {
	Image   *Image `json:"image,omitempty"`
	Loading bool   `json:"loading"`
	Icon    string `json:"icon,omitempty"`
}

type Image struct {
	Src  string `json:"src"`
	Alt  string `json:"alt"`
	MIME string `json:"mime"`
}

type CopyButton struct {
	Hint   string `json:"hint"`
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Copied bool   `json:"copied"`
}

// Status is the persistent "awaiting confirmation" line.
type Status struct {
	Icon    string `json:"icon"`
	Label   string `json:"label"`
	Pending bool   `json:"pending"`
}

type Action struct {
	Label string `json:"label"`
}

// Render builds the view for a presentation and copy state. It has no side effects.
func Render(p Presentation, copied bool) View {
	return render(p, decodeImage(p.ImageData), copied)
}

func render(p Presentation, img decodedImage, copied bool) View {
	view := View{
		Header: Header{
			Icon:     iconQRCode,
			Title:    titleLabel,
			Summary:  summary(p.Quantity, p.Amount),
			Quantity: p.Quantity,
			Amount:   p.Amount,
		},
		CopyButton: CopyButton{
			Hint:   copyHint,
			Label:  copyLabel,
			Icon:   iconCopy,
			Copied: copied,
		},
		Status: Status{
			Icon:    iconSpinner,
			Label:   awaitingLabel,
			Pending: true,
		},
		Cancel: Action{Label: cancelLabel},
	}

	if img.ok {
		view.QRCode.Image = &Image{
			Src:  fmt.Sprintf("data:%s;base64,%s", img.mime, p.ImageData),
			Alt:  imageAlt,
			MIME: img.mime,
		}
	} else {
		view.QRCode.Loading = true
		view.QRCode.Icon = iconSpinner
	}

	if copied {
		view.CopyButton.Label = copiedLabel
		view.CopyButton.Icon = iconCheck
	}
	return view
}

func summary(quantity int, amount string) string {
	unit := creditUnit
	if quantity > 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s • %s %s", quantity, unit, currencyPrefixBRL, amount)
}
