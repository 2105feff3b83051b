package payload

import (
	"bytes"
	"encoding/json"
)

/*
Normalize turns an inbound webhook body into the JSON sent to the destination

- empty or whitespace-only bodies are relayed without a body
- valid JSON documents are relayed byte for byte
- anything else (form data, plain text) is relayed as a JSON string
*/
func Normalize(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return body
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		// strings always marshal
		return nil
	}
	return encoded
}
