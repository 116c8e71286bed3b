// This file contains shared request parsing helpers used across handlers.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/merger/internal/core"
)

// maxFormMemory is how much of a multipart upload is held in memory before
// spilling to temporary files.
const maxFormMemory = 32 << 20

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// cleanColumns drops blank entries and surrounding whitespace, keeping order.
func cleanColumns(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// isJSONBody reports whether the request body is JSON.
func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// mergeRequest is the body of both merge endpoints. Primary and Secondary
// are only read when starting a merge.
type mergeRequest struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	LeftKey   string `json:"left_key"`
	RightKey  string `json:"right_key"`
	Mode      string `json:"mode"`
}

// parseMergeRequest reads a mergeRequest from a JSON or form body.
func parseMergeRequest(r *http.Request) (mergeRequest, core.JoinRequest, error) {
	var req mergeRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, core.JoinRequest{}, fmt.Errorf("invalid request body: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, core.JoinRequest{}, fmt.Errorf("invalid form data: %w", err)
		}
		req = mergeRequest{
			Primary:   r.FormValue("primary"),
			Secondary: r.FormValue("secondary"),
			LeftKey:   r.FormValue("left_key"),
			RightKey:  r.FormValue("right_key"),
			Mode:      r.FormValue("mode"),
		}
	}

	mode, err := core.ParseJoinMode(req.Mode)
	if err != nil {
		return req, core.JoinRequest{}, err
	}
	return req, core.JoinRequest{
		LeftKey:  strings.TrimSpace(req.LeftKey),
		RightKey: strings.TrimSpace(req.RightKey),
		Mode:     mode,
	}, nil
}

// exportDBRequest is the body of the database export endpoint.
type exportDBRequest struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

func parseExportDBRequest(r *http.Request) (exportDBRequest, error) {
	var req exportDBRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("invalid form data: %w", err)
		}
		req.Table = r.FormValue("table")
		req.Columns = r.Form["columns"]
	}
	req.Table = strings.TrimSpace(req.Table)
	req.Columns = cleanColumns(req.Columns)
	return req, nil
}
