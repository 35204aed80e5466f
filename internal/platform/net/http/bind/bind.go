// Package bind decodes request bodies and validates them, turning every
// failure into a coded error the envelope can render
package bind

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"

	perr "flexcode/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

// DefaultMaxBytes caps a body unless MaxBytes says otherwise
const DefaultMaxBytes = 1 << 20

type options struct {
	maxBytes     int64
	allowUnknown bool
	allowEmpty   bool
}

// Option tunes ParseJSON
type Option func(*options)

// MaxBytes caps the body at n bytes. n <= 0 removes the cap
func MaxBytes(n int64) Option { return func(o *options) { o.maxBytes = n } }

// AllowUnknown accepts fields T does not declare
func AllowUnknown() Option { return func(o *options) { o.allowUnknown = true } }

// AllowEmpty returns a zero T for an empty body on any method
func AllowEmpty() Option { return func(o *options) { o.allowEmpty = true } }

// ParseJSON decodes one JSON value into T and validates it. An empty body is
// a zero T for GET, HEAD, DELETE and OPTIONS and an error otherwise
func ParseJSON[T any](r *http.Request, opts ...Option) (T, error) {
	var zero T
	o := options{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(&o)
	}
	if r.Body == nil {
		r.Body = http.NoBody
	}
	defer r.Body.Close()

	src := &counted{r: r.Body}
	if o.maxBytes > 0 {
		// one extra byte tells an exact fit from an overflow
		src.r = io.LimitReader(r.Body, o.maxBytes+1)
	}
	br := bufio.NewReader(src)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		if o.allowEmpty || bodiless(r.Method) {
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(br)
	if !o.allowUnknown {
		dec.DisallowUnknownFields()
	}
	var dst T
	if err := dec.Decode(&dst); err != nil {
		if o.maxBytes > 0 && src.n > o.maxBytes {
			return zero, perr.JSONErrf("body exceeds %d bytes", o.maxBytes)
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected data after JSON value")
	}
	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

type counted struct {
	r io.Reader
	n int64
}

func (c *counted) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func bodiless(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

type engine struct {
	v     *validator.Validate
	trans ut.Translator
}

var shared = sync.OnceValue(newEngine)

func newEngine() engine {
	loc := en.New()
	trans, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = entrans.RegisterDefaultTranslations(v, trans)

	short := map[string]string{
		"min": "{0} must be at least {1}",
		"max": "{0} must be at most {1}",
	}
	for tag, text := range short {
		translate(v, trans, tag, text)
	}
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return ValidHandle(fl.Field().String())
	})
	translate(v, trans, "handle", "{0} must be a user handle")

	return engine{v: v, trans: trans}
}

func translate(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// jsonName reports fields by their JSON name, falling back to the Go name
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Validate checks v's validate tags. The first failing field becomes a
// Validation error carrying that field
func Validate(v any) error {
	if rv := reflect.Indirect(reflect.ValueOf(v)); rv.Kind() != reflect.Struct {
		return nil
	}
	e := shared()
	err := e.v.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		return perr.WithField(perr.New(perr.ErrorCodeValidation, fe.Translate(e.trans)), fe.Field())
	}
	return perr.Wrap(err, perr.ErrorCodeValidation, "validation")
}

// ValidHandle reports whether s looks like a chat or social handle: an
// optional @, then letters, digits, '_', '.', '-' and single inner spaces
func ValidHandle(s string) bool {
	s = strings.TrimPrefix(s, "@")
	if s == "" || s != strings.TrimSpace(s) || strings.Contains(s, "  ") {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_.- ", r)
	}) < 0
}
