package screenshot

import "bytes"

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
)

const payloadPreviewLimit = 500

// SniffImage validates raw provider bytes against known image magic
// numbers and returns the detected content type.
//
// Payloads starting with '{' or '<' are JSON or HTML error bodies the
// provider returned with a success status; their text is surfaced in the
// error instead of handing corrupt data downstream. Unknown but
// non-textual payloads return an empty content type and no error so the
// caller can decide (the upstream service forwarded them with a warning).
func SniffImage(source string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &InvalidResponseError{Provider: source, Detail: "empty response body"}
	}
	if bytes.HasPrefix(data, jpegMagic) {
		return "image/jpeg", nil
	}
	if bytes.HasPrefix(data, pngMagic) {
		return "image/png", nil
	}
	if data[0] == '{' || data[0] == '<' {
		return "", &InvalidResponseError{
			Provider: source,
			Detail:   "error body returned instead of an image",
			Payload:  Truncate(string(data), payloadPreviewLimit),
		}
	}
	return "", nil
}
