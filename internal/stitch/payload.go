package stitch

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
)

var errBadDataURL = errors.New("malformed data URL")

// DecodePayload decodes one captured segment. Payloads are either encoded
// image bytes (PNG or JPEG) or a data URL such as "data:image/png;base64,...".
func DecodePayload(p []byte) (image.Image, error) {
	raw, err := payloadBytes(p)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func payloadBytes(p []byte) ([]byte, error) {
	if !bytes.HasPrefix(p, []byte("data:")) {
		return p, nil
	}

	comma := bytes.IndexByte(p, ',')
	if comma < 0 {
		return nil, errBadDataURL
	}
	header, body := p[len("data:"):comma], p[comma+1:]

	if bytes.HasSuffix(header, []byte(";base64")) {
		out := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
		n, err := base64.StdEncoding.Decode(out, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadDataURL, err)
		}
		return out[:n], nil
	}

	s, err := url.PathUnescape(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadDataURL, err)
	}
	return []byte(s), nil
}

// DataURL encodes PNG bytes the way a browser's captureVisibleTab returns them.
func DataURL(png []byte) []byte {
	return []byte("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
