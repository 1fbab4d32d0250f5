// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "sort"

// DefaultModel is used when nothing else is configured.
const DefaultModel = "gemini-2.5-flash"

// ModelInfo describes a Gemini model offered in the model picker.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// ContextTokens is the advertised input window.
	ContextTokens int `json:"context_tokens"`
}

// Models lists the models the picker offers. Other IDs are still accepted;
// the API is the final judge.
var Models = map[string]ModelInfo{
	"gemini-2.5-flash": {
		ID:            "gemini-2.5-flash",
		Name:          "Gemini 2.5 Flash",
		Description:   "Fast, balanced default",
		ContextTokens: 1048576,
	},
	"gemini-2.5-pro": {
		ID:            "gemini-2.5-pro",
		Name:          "Gemini 2.5 Pro",
		Description:   "Strongest reasoning",
		ContextTokens: 1048576,
	},
	"gemini-2.5-flash-lite": {
		ID:            "gemini-2.5-flash-lite",
		Name:          "Gemini 2.5 Flash-Lite",
		Description:   "Lowest latency and cost",
		ContextTokens: 1048576,
	},
	"gemini-2.0-flash": {
		ID:            "gemini-2.0-flash",
		Name:          "Gemini 2.0 Flash",
		Description:   "Previous generation",
		ContextTokens: 1048576,
	},
}

// GetModelInfo returns metadata for id, or a bare entry for unknown IDs.
func GetModelInfo(id string) ModelInfo {
	if info, ok := Models[id]; ok {
		return info
	}
	return ModelInfo{ID: id, Name: id}
}

// ModelIDs returns the known model IDs sorted.
func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for id := range Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
