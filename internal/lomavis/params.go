package lomavis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Parameter values arrive the way a workflow host hands them over: numbers
// may be strings, collections may be wrapped, and anything unparseable counts
// as not supplied.

type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	*f = flexInt{}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		f.Value, f.Set = int(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.Value, f.Set = int(n), true
		}
	}
	return nil
}

func (f flexInt) or(def int) int {
	if f.Set {
		return f.Value
	}
	return def
}

// orNonZero treats zero like a missing value.
func (f flexInt) orNonZero(def int) int {
	if f.Set && f.Value != 0 {
		return f.Value
	}
	return def
}

type flexBool struct {
	Value bool
	Set   bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	*f = flexBool{}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		f.Value, f.Set = t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			f.Value, f.Set = true, true
		case "false":
			f.Value, f.Set = false, true
		}
	}
	return nil
}

// opaque keeps a string as-is and any other JSON value as its compact text.
type opaque string

func (o *opaque) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = opaque(s)
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = ""
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	*o = opaque(buf.String())
	return nil
}

// stringList accepts strings and numbers.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		var one any
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		raw = []any{one}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		case nil:
		default:
			return fmt.Errorf("unexpected %T in list", v)
		}
	}
	*l = out
	return nil
}

// refList is a collection of uuids. Accepted shapes:
//
//	{"media": [{"uuid": "a"}]}   {"users": [{"uuid": "a"}]}
//	[{"uuid": "a"}, "b"]
type refList []string

func (l *refList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return fmt.Errorf("expected a list of uuids")
		}
		inner, ok := wrapped["media"]
		if !ok {
			inner, ok = wrapped["users"]
		}
		if !ok {
			*l = nil
			return nil
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return fmt.Errorf("expected a list of uuids")
		}
	}

	out := make([]string, 0, len(items))
	for _, raw := range items {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out = append(out, s)
			continue
		}
		var ref struct {
			UUID any `json:"uuid"`
		}
		if err := json.Unmarshal(raw, &ref); err != nil {
			return fmt.Errorf("expected a uuid entry, got %s", raw)
		}
		if s, ok := ref.UUID.(string); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

func platformsOf(ids stringList) []Platform {
	out := make([]Platform, 0, len(ids))
	for _, id := range ids {
		out = append(out, Platform(strings.TrimSpace(id)))
	}
	return out
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}()

// decodeParams decodes one record's parameters into dst and runs its
// `validate` tags.
func decodeParams(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				return invalid(typeErr.Field, fmt.Sprintf("expected %s", typeErr.Type))
			}
			return invalid("", err.Error())
		}
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return invalid(fe.Field(), describeTag(fe))
		}
		return invalid("", err.Error())
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be an email address"
	}
	return fmt.Sprintf("failed %q", fe.Tag())
}
