package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"detail", 401, "application/json", `{"detail":"Invalid token."}`, "Invalid token."},
		{"field errors sorted", 400, "application/json", `{"text":["required"],"profile_group":["Invalid pk"]}`, "profile_group: Invalid pk; text: required"},
		{"list", 400, "application/json", `["Post is locked.","try later"]`, "Post is locked., try later"},
		{"html page", 404, "text/html", `<html><head><title>Not Found</title></head><body><h1>Not Found</h1><p>The requested resource was not found on this server.</p></body></html>`, "Not Found: The requested resource was not found on this server."},
		{"html h1 only", 500, "text/html; charset=utf-8", `<h1>Server Error (500)</h1>`, "Server Error (500)"},
		{"empty", 502, "", ``, http.StatusText(502)},
		{"plain", 500, "text/plain", "upstream exploded", "upstream exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diagnose(tt.status, tt.contentType, []byte(tt.body)))
		})
	}
}

func TestDiagnose_Truncates(t *testing.T) {
	msg := diagnose(500, "text/plain", []byte(strings.Repeat("x", 2000)))
	assert.Equal(t, maxMessageRunes+1, len([]rune(msg)))
	assert.True(t, strings.HasSuffix(msg, "…"))
}

func TestError_Message(t *testing.T) {
	e := &Error{Method: "GET", URL: "https://example.test/", Message: "dial tcp: refused"}
	assert.Equal(t, "GET https://example.test/: dial tcp: refused", e.Error())

	e.StatusCode = 403
	e.Message = "Forbidden"
	assert.Equal(t, "GET https://example.test/: HTTP 403: Forbidden", e.Error())
}
