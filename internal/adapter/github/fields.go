package github

import (
	"encoding/json"
	"fmt"
)

var (
	userFields   = []string{"id", "login", "avatar_url", "html_url", "type", "site_admin"}
	searchFields = []string{"total_count", "incomplete_results", "items"}
)

// requireFields fails unless every key is present and non-null in the object.
func requireFields(raw []byte, keys []string) (map[string]json.RawMessage, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, err
	}
	for _, key := range keys {
		value, ok := object[key]
		if !ok || string(value) == "null" {
			return nil, fmt.Errorf("missing required field %q", key)
		}
	}
	return object, nil
}

func checkUserFields(body []byte) error {
	_, err := requireFields(body, userFields)
	return err
}

func checkSearchFields(body []byte) error {
	object, err := requireFields(body, searchFields)
	if err != nil {
		return err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(object["items"], &items); err != nil {
		return err
	}
	for i, item := range items {
		if _, err := requireFields(item, userFields); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return nil
}
