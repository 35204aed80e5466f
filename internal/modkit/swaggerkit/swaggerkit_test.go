package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	phttp "flexcode/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type mentionBody struct {
	Text   string   `json:"text" validate:"required,max=4000"`
	Handle string   `json:"author_handle,omitempty" validate:"max=64"`
	Tags   []string `json:"tags"`
	Limit  int      `json:"limit" example:"280"`
	Skip   string   `json:"-"`
}

func TestRecord_NormalizesAndReplaces(t *testing.T) {
	Record(Op{Method: "GET", Path: "/api/v1/runs/{id:[0-9]+}"})
	Record(Op{Method: "get", Path: "/api/v1/runs/{id}", Secured: true})

	var found []Op
	for _, op := range Ops() {
		if op.Path == "/api/v1/runs/{id}" {
			found = append(found, op)
		}
	}
	if len(found) != 1 || found[0].Method != "get" || !found[0].Secured {
		t.Fatalf("ops = %+v", found)
	}
}

func TestDocument_Operations(t *testing.T) {
	Record(Op{Method: "post", Path: "/api/v1/process_mention", Secured: true, Body: reflect.TypeFor[mentionBody]()})
	Record(Op{Method: "get", Path: "/api/v1/meta/health"})

	doc := Document(Info{Title: "FlexCode API", Version: "test"})
	paths := doc["paths"].(obj)

	post := paths["/api/v1/process_mention"].(obj)["post"].(obj)
	if post["operationId"] != "postApiV1ProcessMention" || post["tags"].([]any)[0] != "process_mention" {
		t.Fatalf("post op = %v", post)
	}
	if _, ok := post["security"]; !ok {
		t.Fatal("secured op lacks security")
	}
	resp := post["responses"].(obj)
	for _, code := range []string{"200", "400", "401", "500"} {
		if _, ok := resp[code]; !ok {
			t.Fatalf("missing %s response", code)
		}
	}
	schema := post["requestBody"].(obj)["content"].(obj)["application/json"].(obj)["schema"].(obj)
	props := schema["properties"].(obj)
	if _, ok := props["Skip"]; ok || props["tags"].(obj)["type"] != "array" {
		t.Fatalf("props = %v", props)
	}
	if ex := props["limit"].(obj)["example"]; ex != int64(280) {
		t.Fatalf("limit example = %#v", ex)
	}
	if req := schema["required"].([]any); len(req) != 1 || req[0] != "text" {
		t.Fatalf("required = %v", schema["required"])
	}

	get := paths["/api/v1/meta/health"].(obj)["get"].(obj)
	if _, ok := get["security"]; ok {
		t.Fatal("public op marked secured")
	}
	if _, ok := doc["components"].(obj)["securitySchemes"]; !ok {
		t.Fatal("bearer scheme missing")
	}
}

func TestPathParams(t *testing.T) {
	Record(Op{Method: "get", Path: "/api/v1/runs/{run_id}"})
	get := Document(Info{})["paths"].(obj)["/api/v1/runs/{run_id}"].(obj)["get"].(obj)
	params := get["parameters"].([]any)
	if len(params) != 1 || params[0].(obj)["name"] != "run_id" {
		t.Fatalf("params = %v", params)
	}
}

func TestMount(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), true)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DocPath, nil))
	var doc map[string]any
	if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &doc) != nil || doc["openapi"] != "3.0.3" {
		t.Fatalf("doc = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("redirect = %d", rec.Code)
	}

	off := chi.NewRouter()
	Mount(phttp.AdaptChi(off), false)
	rec = httptest.NewRecorder()
	off.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DocPath, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled = %d", rec.Code)
	}
}
