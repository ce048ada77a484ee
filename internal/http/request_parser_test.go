package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"salesdash/internal/core"
)

func parserDataset() *core.Dataset {
	return core.NewDataset([]core.Record{
		{OrderID: "A", ProductID: "P1", OrderDate: core.NewDate(2016, 3, 9)},
		{OrderID: "B", ProductID: "P2", OrderDate: core.NewDate(2017, 11, 20)},
	}, nil)
}

func TestParseQuery(t *testing.T) {
	ds := parserDataset()

	tests := []struct {
		name      string
		values    url.Values
		wantStart core.Date
		wantEnd   core.Date
		wantErr   bool
	}{
		{
			name:      "defaults to dataset bounds",
			values:    url.Values{},
			wantStart: core.NewDate(2016, 3, 9),
			wantEnd:   core.NewDate(2017, 11, 20),
		},
		{
			name:      "explicit range",
			values:    url.Values{"start": {"2017-01-01"}, "end": {"2017-06-30"}},
			wantStart: core.NewDate(2017, 1, 1),
			wantEnd:   core.NewDate(2017, 6, 30),
		},
		{
			name:      "reversed range is kept for the empty-result policy",
			values:    url.Values{"start": {"2018-01-01"}, "end": {"2017-01-01"}},
			wantStart: core.NewDate(2018, 1, 1),
			wantEnd:   core.NewDate(2017, 1, 1),
		},
		{
			name:    "unparsable start",
			values:  url.Values{"start": {"01/02/2017"}},
			wantErr: true,
		},
		{
			name:    "unparsable end",
			values:  url.Values{"end": {"soon"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.values, ds)
			if tt.wantErr {
				if err == nil || !isParamError(err) {
					t.Fatalf("ParseQuery() error = %v, want param error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuery() error = %v", err)
			}
			if !q.Start.Equal(tt.wantStart.Time) || !q.End.Equal(tt.wantEnd.Time) {
				t.Errorf("range = %s..%s, want %s..%s", q.Start, q.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseQuery_Location(t *testing.T) {
	q, err := ParseQuery(url.Values{"country": {" United States "}, "city": {"Dallas\x00"}}, parserDataset())
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	if q.Country != "United States" {
		t.Errorf("Country = %q", q.Country)
	}
	if q.City != "Dallas" {
		t.Errorf("City = %q", q.City)
	}
	if q.State != "" {
		t.Errorf("State = %q, want empty", q.State)
	}
}

func TestParsePeriod(t *testing.T) {
	ds := parserDataset()

	tests := []struct {
		name      string
		values    url.Values
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"defaults to latest order", url.Values{}, 2017, 11, false},
		{"explicit", url.Values{"year": {"2016"}, "month": {"3"}}, 2016, 3, false},
		{"only year", url.Values{"year": {"2016"}}, 2016, 11, false},
		{"month out of range", url.Values{"month": {"13"}}, 0, 0, true},
		{"year not a number", url.Values{"year": {"last"}}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, month, err := ParsePeriod(tt.values, ds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod() error = %v, wantErr %v", err, tt.wantErr)
			}
			if year != tt.wantYear || month != tt.wantMonth {
				t.Errorf("ParsePeriod() = %d-%d, want %d-%d", year, month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name     string
		values   url.Values
		wantPage int
		wantSize int
		wantErr  bool
	}{
		{"defaults", url.Values{}, 1, 10, false},
		{"explicit", url.Values{"page": {"3"}, "page_size": {"25"}}, 3, 25, false},
		{"size clamped", url.Values{"page_size": {"1000"}}, 1, 100, false},
		{"zero page", url.Values{"page": {"0"}}, 0, 0, true},
		{"garbage size", url.Values{"page_size": {"ten"}}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size, err := ParsePage(tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if page != tt.wantPage || size != tt.wantSize {
				t.Errorf("ParsePage() = (%d, %d), want (%d, %d)", page, size, tt.wantPage, tt.wantSize)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if id := parser.Fields()["id"]; id != "123" {
		t.Errorf("Fields()[id] = %q, want '123'", id)
	}

	if name := parser.Fields()["name"]; name != "test" {
		t.Errorf("Fields()[name] = %q, want 'test'", name)
	}

	if amount := parser.Fields()["amount"]; amount != "42.5" {
		t.Errorf("Fields()[amount] = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if id := parser.Fields()["id"]; id != "456" {
		t.Errorf("Fields()[id] = %q, want '456'", id)
	}

	if name := parser.Fields()["name"]; name != "form test" {
		t.Errorf("Fields()[name] = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Fields()["nonexistent"]; val != "" {
		t.Errorf("Fields()[nonexistent] = %q, want empty string", val)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"id": `))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("Parse() should fail on truncated JSON")
	}
	if err := parser.Parse(); err == nil {
		t.Fatal("second Parse() should return the same error")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Los\x07 Angeles \t"); got != "Los Angeles" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
