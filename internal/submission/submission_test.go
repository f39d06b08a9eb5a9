package submission

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appLog "craftcal/internal/log"
)

func init() {
	appLog.SetOutput(io.Discard)
}

var now = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func validDraft() Draft {
	return Draft{
		Name:         "Harvest Market",
		Email:        "a@b.com",
		Organization: "X",
		Location:     "Y",
		Link:         "https://e.com",
		Date:         "2099-01-01",
		Time:         "2:30 PM",
	}
}

func TestValidateOnlyNameMissing(t *testing.T) {
	d := validDraft()
	d.Name = ""

	e := Validate(d, now)
	if e.Name == "" {
		t.Error("expected name-required error")
	}
	e.Name = ""
	if !e.Valid() {
		t.Errorf("unexpected other errors: %+v", e)
	}
}

func TestValidatePrice(t *testing.T) {
	cases := []struct {
		price   string
		wantErr bool
	}{
		{"", false},
		{"  ", false},
		{"0", false},
		{"12.50", false},
		{"-5", true},
		{"abc", true},
		{"NaN", true},
		{"Inf", true},
		{"+Inf", true},
		{"-Inf", true},
	}
	for _, tc := range cases {
		d := validDraft()
		d.Price = tc.price
		e := Validate(d, now)
		if (e.Price != "") != tc.wantErr {
			t.Errorf("price %q: err = %q", tc.price, e.Price)
		}
	}

	d := validDraft()
	d.Price = "-5"
	if got := Validate(d, now).Price; got != "Price cannot be negative" {
		t.Errorf("negative price message = %q", got)
	}
	for _, price := range []string{"NaN", "+Inf"} {
		d.Price = price
		if got := Validate(d, now).Price; got != "Price must be a number" {
			t.Errorf("price %q message = %q", price, got)
		}
		if _, err := BuildPayload(d); !errors.Is(err, ErrInvalidDraft) {
			t.Errorf("BuildPayload(price %q) err = %v, want ErrInvalidDraft", price, err)
		}
	}
}

func TestValidateMessages(t *testing.T) {
	e := Validate(Draft{Name: "Only A Name"}, now)
	want := Errors{
		Email:        "Email is required",
		Organization: "Organization is required",
		Location:     "Location is required",
		Link:         "Link is required",
		Date:         "Date is required",
		Time:         "Time is required",
	}
	if e != want {
		t.Errorf("errors = %+v\nwant %+v", e, want)
	}

	d := validDraft()
	d.Name = strings.Repeat("n", MaxName+1)
	d.Date = "2026-10-17"
	d.Time = "2:15 PM"
	e = Validate(d, now)
	if e.Name != "Event name must be 140 characters or fewer" {
		t.Errorf("name = %q", e.Name)
	}
	if e.Date != "Date cannot be in the past" {
		t.Errorf("date = %q", e.Date)
	}
	if e.Time != "Choose a time from the list" {
		t.Errorf("time = %q", e.Time)
	}
	if got := e.Failed(); strings.Join(got, " ") != "name date time" {
		t.Errorf("Failed = %v", got)
	}
}

func TestFormRecheckOnlyNamedFields(t *testing.T) {
	var f Form
	f.Draft = validDraft()
	f.Draft.Email = ""
	f.Draft.Organization = ""
	f.Validate(now)

	// The organization is filled in without re-validating; the email is not.
	f.Draft.Organization = "Grange Hall"
	f.Errors.Link = "stale"
	f.Recheck(now, FieldEmail, FieldOrganization)

	if f.Errors.Email != "Email is required" {
		t.Errorf("email error = %q", f.Errors.Email)
	}
	if f.Errors.Organization != "" {
		t.Errorf("fixed organization still flagged: %q", f.Errors.Organization)
	}
	if f.Errors.Link != "stale" {
		t.Error("Recheck touched a field it was not asked about")
	}
}

func TestValidateFieldRules(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Draft)
		field string
	}{
		{"long name", func(d *Draft) { d.Name = strings.Repeat("a", MaxName+1) }, FieldName},
		{"bad email", func(d *Draft) { d.Email = "not-an-email" }, FieldEmail},
		{"email no tld", func(d *Draft) { d.Email = "a@b" }, FieldEmail},
		{"long email", func(d *Draft) { d.Email = strings.Repeat("a", 95) + "@b.com" }, FieldEmail},
		{"missing org", func(d *Draft) { d.Organization = "  " }, FieldOrganization},
		{"long location", func(d *Draft) { d.Location = strings.Repeat("l", MaxLocation+1) }, FieldLocation},
		{"relative link", func(d *Draft) { d.Link = "/events" }, FieldLink},
		{"ftp link", func(d *Draft) { d.Link = "ftp://e.com" }, FieldLink},
		{"missing date", func(d *Draft) { d.Date = "" }, FieldDate},
		{"past date", func(d *Draft) { d.Date = "2026-10-17" }, FieldDate},
		{"bad date", func(d *Draft) { d.Date = "01/01/2099" }, FieldDate},
		{"missing time", func(d *Draft) { d.Time = "" }, FieldTime},
		{"off-grid time", func(d *Draft) { d.Time = "2:15 PM" }, FieldTime},
		{"long description", func(d *Draft) { d.Description = strings.Repeat("d", MaxDescription+1) }, FieldDescription},
		{"bad kids", func(d *Draft) { d.Kids = "maybe" }, FieldKids},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.edit(&d)
			e := Validate(d, now)
			if e.Get(tc.field) == "" {
				t.Errorf("expected error on %s, got %+v", tc.field, e)
			}
		})
	}

	d := validDraft()
	d.Date = "2026-10-18"
	d.Description = strings.Repeat("d", MaxDescription)
	d.Kids = "Yes"
	if e := Validate(d, now); !e.Valid() {
		t.Errorf("boundary draft invalid: %+v", e)
	}
}

func TestFormSetClearsFieldError(t *testing.T) {
	var f Form
	f.Draft = validDraft()
	f.Draft.Name = ""
	f.Draft.Email = "bad"
	if f.Validate(now) {
		t.Fatal("expected invalid")
	}

	f.Set(FieldName, "Fixed")
	if f.Errors.Name != "" {
		t.Error("name error not cleared on edit")
	}
	if f.Errors.Email == "" {
		t.Error("email error cleared by unrelated edit")
	}

	f.SetDateTime("2099-02-02", "9:00 AM")
	if f.Draft.Date != "2099-02-02" || f.Draft.Time != "9:00 AM" {
		t.Errorf("draft = %+v", f.Draft)
	}

	f.Reset()
	if f.Draft != (Draft{}) || !f.Errors.Valid() {
		t.Errorf("Reset left %+v", f)
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(`  <b>"Tom's" fair</b>  `)
	want := "&lt;b&gt;&quot;Tom&#39;s&quot; fair&lt;/b&gt;"
	if got != want {
		t.Errorf("Sanitize = %q, want %q", got, want)
	}
}

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"12:00 AM": "00:00",
		"12:30 AM": "00:30",
		"1:00 AM":  "01:00",
		"11:30 AM": "11:30",
		"12:00 PM": "12:00",
		"2:30 PM":  "14:30",
		"11:30 PM": "23:30",
	}
	for in, want := range cases {
		got, err := NormalizeTime(in)
		if err != nil || got != want {
			t.Errorf("NormalizeTime(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := NormalizeTime("14:30"); err == nil {
		t.Error("24h input should be rejected")
	}
}

func TestBuildPayload(t *testing.T) {
	d := validDraft()
	d.Name = " <Fair> "
	d.Price = "7.5"
	d.Kids = "no"

	p, err := BuildPayload(d)
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	if p.Name != "&lt;Fair&gt;" || p.Time != "14:30" || p.Date != "2099-01-01" {
		t.Errorf("payload = %+v", p)
	}
	if p.Price == nil || *p.Price != 7.5 {
		t.Errorf("price = %v", p.Price)
	}
	if p.Kids == nil || *p.Kids {
		t.Errorf("kids = %v", p.Kids)
	}

	d.Kids = ""
	d.Price = ""
	p, _ = BuildPayload(d)
	raw, _ := json.Marshal(p)
	if strings.Contains(string(raw), `"kids"`) || strings.Contains(string(raw), `"price"`) {
		t.Errorf("unset optional fields serialized: %s", raw)
	}
}

func TestClientSubmitSuccess(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	p, _ := BuildPayload(validDraft())
	if err := NewClient(srv.URL, 0).WithClient(srv.Client()).Submit(context.Background(), p); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Name != "Harvest Market" || got.Time != "14:30" {
		t.Errorf("server got %+v", got)
	}
}

func TestClientSubmitFailureMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"json message", `{"message":"Date already taken"}`, "Date already taken"},
		{"json without message", `{"error":"x"}`, GenericFailure},
		{"plain text", `oops`, GenericFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL, 0).WithClient(srv.Client()).Submit(context.Background(), Payload{})
			var se *SubmitError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v", err)
			}
			if se.StatusCode != http.StatusBadRequest || se.Message != tc.want {
				t.Errorf("SubmitError = %+v", se)
			}
		})
	}
}

func TestClientSubmitNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url, 0).Submit(context.Background(), Payload{})
	var se *SubmitError
	if !errors.As(err, &se) || se.StatusCode != 0 || se.Message != GenericFailure {
		t.Errorf("err = %v", err)
	}
}

func TestGuard(t *testing.T) {
	g := NewGuard()
	release, err := g.Begin("tok")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := g.Begin("tok"); !errors.Is(err, ErrInFlight) {
		t.Errorf("second Begin err = %v", err)
	}
	if _, err := g.Begin("other"); err != nil {
		t.Errorf("independent token blocked: %v", err)
	}
	release()
	release()
	if g.Busy("tok") {
		t.Error("token still busy after release")
	}
	if _, err := g.Begin("tok"); err != nil {
		t.Errorf("Begin after release: %v", err)
	}
}
