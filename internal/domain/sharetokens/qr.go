package sharetokens

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 300 // px

// renderQR genera el PNG del QR apuntando a accessURL y lo devuelve en
// base64 crudo y como data-URI listo para un <img>.
func renderQR(accessURL string) (b64 string, dataURI string, err error) {
	png, err := qrcode.Encode(accessURL, qrcode.Low, qrSize)
	if err != nil {
		return "", "", err
	}

	b64 = base64.StdEncoding.EncodeToString(png)
	return b64, "data:image/png;base64," + b64, nil
}
