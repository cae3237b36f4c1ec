// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"encoding/json"
	"fmt"
)

// ParseJSON parses a single flat JSON object into DeviceMetadata.
// Non-string values are rendered with their default JSON text
// representation rather than rejected, since sidecar files in the wild
// mix numeric and string fields under the same tag.
func ParseJSON(data []byte) (DeviceMetadata, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("metadata: parsing json: %w", err)
	}

	result := make(DeviceMetadata, len(raw))
	for key, value := range raw {
		if s, ok := value.(string); ok {
			result[key] = s
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("metadata: re-encoding field %q: %w", key, err)
		}
		result[key] = string(encoded)
	}
	return result, nil
}
