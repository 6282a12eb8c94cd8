package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxMessageRunes = 512

// Error is a failed call against the remote API. StatusCode is zero when no
// response was received.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Payload returns the response body, decoded when it is JSON.
func (e *Error) Payload() any {
	return decodeJSON(e.Body)
}

func newError(method, url string, resp *http.Response, body []byte) *Error {
	return &Error{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       body,
		Message:    diagnose(resp.StatusCode, resp.Header.Get("Content-Type"), body),
	}
}

// diagnose turns an error body into a one-line message. It understands the
// API's JSON error shapes ({"detail": ...}, field -> [messages]) and HTML
// error pages; anything else is returned raw.
func diagnose(status int, contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return http.StatusText(status)
	}

	if msg := diagnoseJSON(trimmed); msg != "" {
		return msg
	}
	if strings.Contains(contentType, "html") || trimmed[0] == '<' {
		if msg := diagnoseHTML(trimmed); msg != "" {
			return msg
		}
	}
	return truncate(string(trimmed), maxMessageRunes)
}

func diagnoseJSON(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case map[string]any:
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			if msg := flatten(t[k]); msg != "" {
				parts = append(parts, k+": "+msg)
			}
		}
		return strings.Join(parts, "; ")
	case []any:
		return flatten(t)
	case string:
		return t
	}
	return ""
}

func flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var parts []string
		for _, el := range t {
			if s := flatten(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, _ := json.Marshal(t)
		return string(b)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func diagnoseHTML(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	head := strings.TrimSpace(doc.Find("title").First().Text())
	if head == "" {
		head = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	para := strings.Join(strings.Fields(doc.Find("p").First().Text()), " ")
	switch {
	case head != "" && para != "":
		return truncate(head+": "+para, maxMessageRunes)
	case head != "":
		return head
	}
	return truncate(para, maxMessageRunes)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
