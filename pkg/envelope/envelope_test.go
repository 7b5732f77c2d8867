package envelope

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/artpar/zacre/domain/apperr"
)

var layoutFields = []string{"createdAt", "updatedAt", "title"}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		limit int
		want  int
	}{
		{"empty listing", 0, 10, 0},
		{"exact division", 20, 10, 2},
		{"remainder rounds up", 25, 10, 3},
		{"single item", 1, 10, 1},
		{"invalid limit", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalPages(tt.total, tt.limit); got != tt.want {
				t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
			}
		})
	}
}

func TestParams_Offset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{3, 5, 10},
		{0, 10, 0},
	}
	for _, tt := range tests {
		if got := (Params{Page: tt.page, Limit: tt.limit}).Offset(); got != tt.want {
			t.Errorf("Offset(page=%d, limit=%d) = %d, want %d", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestParseParams(t *testing.T) {
	def := Order{Field: "title", Desc: true}

	t.Run("defaults", func(t *testing.T) {
		p := ParseParams(url.Values{}, layoutFields, def)
		if p.Page != 1 || p.Limit != DefaultLimit || p.Order != def {
			t.Errorf("ParseParams() = %+v", p)
		}
	})

	t.Run("explicit values", func(t *testing.T) {
		q := url.Values{"page": {"2"}, "limit": {"25"}, "orderBy": {"createdAt:asc"}}
		p := ParseParams(q, layoutFields, def)
		if p.Page != 2 || p.Limit != 25 {
			t.Errorf("page/limit = %d/%d", p.Page, p.Limit)
		}
		if p.Order.Field != "createdAt" || p.Order.Desc {
			t.Errorf("order = %+v", p.Order)
		}
	})

	t.Run("caps limit", func(t *testing.T) {
		p := ParseParams(url.Values{"limit": {"1000"}}, layoutFields, def)
		if p.Limit != MaxLimit {
			t.Errorf("Limit = %d, want %d", p.Limit, MaxLimit)
		}
	})

	t.Run("invalid numbers ignored", func(t *testing.T) {
		p := ParseParams(url.Values{"page": {"-1"}, "limit": {"abc"}}, layoutFields, def)
		if p.Page != 1 || p.Limit != DefaultLimit {
			t.Errorf("ParseParams() = %+v", p)
		}
	})
}

func TestParseOrder(t *testing.T) {
	def := Order{Field: "title", Desc: true}
	tests := []struct {
		raw  string
		want Order
	}{
		{"createdAt:desc", Order{Field: "createdAt", Desc: true}},
		{"updatedAt:ASC", Order{Field: "updatedAt"}},
		{"title", Order{Field: "title"}},
		{"password:asc", def},
		{"title:sideways", def},
		{"", def},
	}
	for _, tt := range tests {
		if got := ParseOrder(tt.raw, layoutFields, def); got != tt.want {
			t.Errorf("ParseOrder(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{11, 12}, 25, Params{Page: 2, Limit: 10})
	if p.CurrentPage != 2 || p.TotalPages != 3 || p.TotalItems != 25 || p.PerPage != 10 {
		t.Errorf("NewPage() = %+v", p)
	}

	empty := NewPage[int](nil, 0, Params{})
	if empty.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
}

func TestWriteList_FlattensEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteList(rec, NewPage([]string{"a"}, 1, Params{Page: 1, Limit: 10}))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"status", "currentPage", "totalPages", "totalItems", "perPage", "items"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing key %q in %v", key, body)
		}
	}
	if body["status"] != "success" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"classified", apperr.Conflict("Cannot delete a locked page"), http.StatusBadRequest, "Cannot delete a locked page"},
		{"not found", apperr.NotFound("Layout not found"), http.StatusNotFound, "Layout not found"},
		{"unclassified", errors.New("database is locked"), http.StatusInternalServerError, "An unknown error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body Error
			json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Status != "error" || body.Message != tt.wantMsg {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestWriteRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRedirect(rec, "/admin/pages", "Page created successfully")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var body Redirect
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Status != "redirect" || body.URL != "/admin/pages" || body.Message != "Page created successfully" {
		t.Errorf("body = %+v", body)
	}
}
