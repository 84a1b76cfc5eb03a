package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"donortrack/internal/core"
	"donortrack/internal/storage"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    storage.Page
		wantErr bool
	}{
		{"defaults", "", storage.Page{Skip: 0, Limit: storage.DefaultLimit}, false},
		{"explicit", "?skip=20&limit=10", storage.Page{Skip: 20, Limit: 10}, false},
		{"limit capped", "?limit=5000", storage.Page{Limit: storage.MaxLimit}, false},
		{"blank values", "?skip=&limit=", storage.Page{Limit: storage.DefaultLimit}, false},
		{"negative skip", "?skip=-3", storage.Page{}, true},
		{"zero limit", "?limit=0", storage.Page{}, true},
		{"non numeric", "?skip=ten", storage.Page{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePage(testContext("/donors/" + tt.query))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	c := testContext("/x?donor_id=7&start=2024-02-29&sent=false&bad=zz")

	id, err := QueryInt64(c, "donor_id")
	if err != nil || id == nil || *id != 7 {
		t.Errorf("QueryInt64 = %v, %v", id, err)
	}
	if v, err := QueryInt64(c, "missing"); v != nil || err != nil {
		t.Errorf("absent int should be nil, got %v, %v", v, err)
	}
	if _, err := QueryInt64(c, "bad"); err == nil {
		t.Error("expected error for non-integer")
	}

	d, err := QueryDate(c, "start")
	if err != nil || d == nil || !d.Equal(core.NewDate(2024, 2, 29).Time) {
		t.Errorf("QueryDate = %v, %v", d, err)
	}
	if _, err := QueryDate(c, "bad"); err == nil {
		t.Error("expected error for bad date")
	}

	sent, err := QueryBool(c, "sent")
	if err != nil || sent == nil || *sent {
		t.Errorf("QueryBool = %v, %v", sent, err)
	}
	if _, err := QueryBool(c, "bad"); err == nil {
		t.Error("expected error for bad bool")
	}
}

func TestQueryYear(t *testing.T) {
	if y, err := QueryYear(testContext("/?year=2024")); err != nil || y != 2024 {
		t.Errorf("QueryYear = %d, %v", y, err)
	}
	if _, err := QueryYear(testContext("/")); err == nil {
		t.Error("missing year should fail")
	}
	if _, err := QueryYear(testContext("/?year=20x4")); err == nil {
		t.Error("non-numeric year should fail")
	}
}

func TestProgramFilterActiveOnly(t *testing.T) {
	today := core.NewDate(2024, 6, 1)
	filter := programFilter(func() core.Date { return today })

	f, err := filter(testContext("/programs/?active_only=true&search=food"))
	if err != nil {
		t.Fatal(err)
	}
	if f.ActiveOn == nil || !f.ActiveOn.Equal(today.Time) || f.Search != "food" {
		t.Errorf("unexpected filter %+v", f)
	}

	f, err = filter(testContext("/programs/?active_only=false"))
	if err != nil || f.ActiveOn != nil {
		t.Errorf("active_only=false should not filter, got %+v, %v", f, err)
	}
}

func TestDonationFilter(t *testing.T) {
	f, err := donationFilter(testContext("/donations/?donor_id=1&program_id=2&start_date=2024-01-01&end_date=2024-12-31"))
	if err != nil {
		t.Fatal(err)
	}
	if *f.DonorID != 1 || *f.ProgramID != 2 || f.StartDate.String() != "2024-01-01" || f.EndDate.String() != "2024-12-31" {
		t.Errorf("unexpected filter %+v", f)
	}
}
