package gateway

import "encoding/json"

// The response-shape filter guarantees item payloads always carry the
// lastBooking, nextBooking and comments keys, so clients can rely on their
// presence. Any JSON failure falls back to the unmodified body.

func ensureItemShape(body []byte) []byte {
	var item map[string]json.RawMessage
	if err := json.Unmarshal(body, &item); err != nil {
		return body
	}

	fillItemKeys(item)

	out, err := json.Marshal(item)
	if err != nil {
		return body
	}
	return out
}

func ensureItemListShape(body []byte) []byte {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return body
	}

	for _, item := range items {
		fillItemKeys(item)
	}

	out, err := json.Marshal(items)
	if err != nil {
		return body
	}
	return out
}

var (
	nullValue       = json.RawMessage("null")
	emptyArrayValue = json.RawMessage("[]")
)

func fillItemKeys(item map[string]json.RawMessage) {
	if item == nil {
		return
	}
	for _, key := range []string{"lastBooking", "nextBooking"} {
		if v, ok := item[key]; !ok || len(v) == 0 {
			item[key] = nullValue
		}
	}
	if v, ok := item["comments"]; !ok || len(v) == 0 || string(v) == "null" {
		item["comments"] = emptyArrayValue
	}
}
