package llsd

import "bytes"

// Parse decodes LLSD input in any of the three wire encodings, sniffing the
// format when mimeType is empty: the binary header (or a zlib stream) selects
// binary, a leading '<' selects XML, anything else notation.
func Parse(data []byte, mimeType string) (Value, error) {
	switch mimeType {
	case XMLMimeType, "application/llsd":
		return ParseXML(data)
	case BinaryMimeType:
		return ParseBinary(data)
	case NotationMimeType:
		return ParseNotation(data)
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case bytes.HasPrefix(trimmed, []byte("<?llsd/binary?>")):
		return ParseBinary(trimmed)
	case len(trimmed) >= 1 && trimmed[0] == 0x78:
		return ParseBinary(trimmed)
	case bytes.HasPrefix(trimmed, []byte("<")):
		return ParseXML(trimmed)
	default:
		return ParseNotation(trimmed)
	}
}
