package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// formValues holds request fields normalized to lists, whether they arrived
// as a JSON scalar, a JSON array, or repeated form keys.
type formValues map[string][]string

func (f formValues) list(key string) []string {
	return f[key]
}

func (f formValues) first(key string) string {
	if values := f[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// parseForm reads a JSON or URL-encoded/multipart body. Form keys written
// with a trailing "[]" are merged into the bare key.
func parseForm(w http.ResponseWriter, r *http.Request) (formValues, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return decodeJSONForm(r)
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}

	form := formValues{}
	for key, values := range r.PostForm {
		key = strings.TrimSuffix(key, "[]")
		form[key] = append(form[key], values...)
	}
	return form, nil
}

func decodeJSONForm(r *http.Request) (formValues, error) {
	var body map[string]any
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	form := formValues{}
	for key, raw := range body {
		switch v := raw.(type) {
		case nil:
			continue
		case []any:
			values := make([]string, 0, len(v))
			for _, item := range v {
				s, err := jsonScalar(item)
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", key, err)
				}
				values = append(values, s)
			}
			form[key] = values
		default:
			s, err := jsonScalar(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			form[key] = []string{s}
		}
	}
	return form, nil
}

func jsonScalar(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", errors.New("expected a string, number or list of them")
	}
}

// valueAt returns list[i] as a nullable value; positions past the end of a
// shorter list and blank values are NULL.
func valueAt(list []string, i int) *string {
	if i >= len(list) {
		return nil
	}
	return nullIfEmpty(list[i])
}

func stringAt(list []string, i int) string {
	if i >= len(list) {
		return ""
	}
	return list[i]
}

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
