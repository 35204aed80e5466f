package swaggerkit

import (
	"iter"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Info heads the document
type Info struct {
	Title   string
	Version string
}

type obj = map[string]any

var errorResponse = obj{
	"content": obj{"application/json": obj{"schema": obj{"$ref": "#/components/schemas/Envelope"}}},
}

// Document renders the catalog as an OpenAPI 3.0 document
func Document(info Info) map[string]any {
	paths := obj{}
	secured := false
	for _, op := range Ops() {
		node, _ := paths[op.Path].(obj)
		if node == nil {
			node = obj{}
			paths[op.Path] = node
		}
		node[op.Method] = operation(op)
		secured = secured || op.Secured
	}

	comps := obj{"schemas": obj{"Envelope": envelopeSchema()}}
	if secured {
		comps["securitySchemes"] = obj{"bearerAuth": obj{"type": "http", "scheme": "bearer"}}
	}
	return obj{
		"openapi":    "3.0.3",
		"info":       obj{"title": info.Title, "version": info.Version},
		"paths":      paths,
		"components": comps,
	}
}

func operation(op Op) obj {
	responses := obj{
		"200": obj{
			"description": "OK",
			"content":     obj{"application/json": obj{"schema": obj{"$ref": "#/components/schemas/Envelope"}}},
		},
		"500": withDescription(errorResponse, "Internal Server Error"),
	}
	out := obj{
		"operationId": operationID(op),
		"tags":        []any{tag(op.Path)},
		"responses":   responses,
	}
	if params := pathParams(op.Path); len(params) > 0 {
		out["parameters"] = params
	}
	if op.Body != nil {
		out["requestBody"] = obj{
			"required": true,
			"content":  obj{"application/json": obj{"schema": schemaOf(op.Body)}},
		}
		responses["400"] = withDescription(errorResponse, "Bad Request")
	}
	if op.Secured {
		out["security"] = []any{obj{"bearerAuth": []any{}}}
		responses["401"] = withDescription(errorResponse, "Unauthorized")
	}
	return out
}

func withDescription(base obj, desc string) obj {
	out := obj{"description": desc}
	for k, v := range base {
		out[k] = v
	}
	return out
}

func operationID(op Op) string {
	var b strings.Builder
	b.WriteString(op.Method)
	for _, part := range strings.FieldsFunc(op.Path, func(r rune) bool { return r == '/' || r == '_' || r == '{' || r == '}' }) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

// tag groups operations by the first segment after the version
func tag(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		if s == "api" || (i == 1 && strings.HasPrefix(s, "v")) {
			continue
		}
		return s
	}
	return "root"
}

func pathParams(path string) []any {
	var out []any
	for _, m := range chiParam.FindAllStringSubmatch(path, -1) {
		out = append(out, obj{"name": m[1], "in": "path", "required": true, "schema": obj{"type": "string"}})
	}
	return out
}

func envelopeSchema() obj {
	return obj{
		"type":     "object",
		"required": []any{"status_code", "status"},
		"properties": obj{
			"status_code": obj{"type": "integer"},
			"status":      obj{"type": "string"},
			"code":        obj{"type": "integer", "description": "error class, absent on success"},
			"error":       obj{"type": "string"},
			"field":       obj{"type": "string"},
			"request_id":  obj{"type": "string"},
			"data":        obj{},
		},
	}
}

var timeType = reflect.TypeFor[time.Time]()

// schemaOf derives a JSON schema from json and validate struct tags
func schemaOf(t reflect.Type) obj {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return obj{"type": "string", "format": "date-time"}
	}
	switch t.Kind() {
	case reflect.String:
		return obj{"type": "string"}
	case reflect.Bool:
		return obj{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return obj{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return obj{"type": "number"}
	case reflect.Slice, reflect.Array:
		return obj{"type": "array", "items": schemaOf(t.Elem())}
	case reflect.Map:
		return obj{"type": "object", "additionalProperties": schemaOf(t.Elem())}
	case reflect.Struct:
		props := obj{}
		var required []any
		for f := range fields(t) {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" {
				name = f.Name
			}
			fs := schemaOf(f.Type)
			if ex := f.Tag.Get("example"); ex != "" {
				fs["example"] = example(fs["type"], ex)
			}
			props[name] = fs
			if strings.Contains(","+f.Tag.Get("validate")+",", ",required,") {
				required = append(required, name)
			}
		}
		out := obj{"type": "object", "properties": props}
		if len(required) > 0 {
			out["required"] = required
		}
		return out
	}
	return obj{}
}

// example types an example tag to match its schema
func example(typ any, raw string) any {
	switch typ {
	case "integer":
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

func fields(t reflect.Type) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}
