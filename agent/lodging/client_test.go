package lodging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/tidwall/gjson"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

const oneHotel = `{"results":[{"hotelId":101,"hotelName":"Hotel Lutetia","dailyRate":150.5,"currency":"USD","starRating":5,"reviewScore":9.1,"landingURL":"https://example.test/h/101"}]}`

// scriptedUpstream answers each call with the next scripted response and
// records every request body.
type scriptedUpstream struct {
	mu        sync.Mutex
	responses []scriptedResponse
	bodies    [][]byte
	auth      []string
}

type scriptedResponse struct {
	status int
	body   string
}

func (u *scriptedUpstream) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	u.mu.Lock()
	u.bodies = append(u.bodies, body)
	u.auth = append(u.auth, r.Header.Get("Authorization"))
	idx := len(u.bodies) - 1
	if idx >= len(u.responses) {
		idx = len(u.responses) - 1
	}
	resp := u.responses[idx]
	u.mu.Unlock()

	w.WriteHeader(resp.status)
	fmt.Fprint(w, resp.body)
}

func (u *scriptedUpstream) calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.bodies)
}

func (u *scriptedUpstream) body(i int) []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.bodies[i]
}

func newTestClient(t *testing.T, responses ...scriptedResponse) (*Client, *scriptedUpstream) {
	t.Helper()

	upstream := &scriptedUpstream{responses: responses}
	server := httptest.NewServer(http.HandlerFunc(upstream.handler))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:     server.URL,
		SearchPath:  "affiliateservice/lt_v1",
		SiteID:      "1234",
		APIKey:      "secret",
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}, WithHTTPClient(server.Client()), WithRateLimiter(NewRateLimiter(0, 1)))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, upstream
}

func testRequest() SearchRequest {
	return SearchRequest{
		CityID:         15470,
		CheckIn:        civil.Date{Year: 2024, Month: 10, Day: 10},
		CheckOut:       civil.Date{Year: 2024, Month: 10, Day: 11},
		Guests:         2,
		NightlyFloor:   80,
		NightlyCeiling: 200,
	}
}

func TestSearchRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	client, upstream := newTestClient(t,
		scriptedResponse{status: http.StatusServiceUnavailable, body: `{}`},
		scriptedResponse{status: http.StatusTooManyRequests, body: `{}`},
		scriptedResponse{status: http.StatusOK, body: oneHotel},
	)

	res, err := client.Search(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := upstream.calls(); got != 3 {
		t.Fatalf("upstream calls = %d, want 3", got)
	}
	if res.Failed || len(res.Offers) != 1 {
		t.Fatalf("Search() = %+v, want one offer", res)
	}
	offer := res.Offers[0]
	if offer.HotelID != 101 || offer.NightlyPrice != 150.5 || offer.Currency != "USD" || offer.HotelName != "Hotel Lutetia" {
		t.Fatalf("offer = %+v", offer)
	}
	if upstream.auth[0] != "1234:secret" {
		t.Fatalf("Authorization = %q, want 1234:secret", upstream.auth[0])
	}
}

func TestSearchGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	client, upstream := newTestClient(t, scriptedResponse{status: http.StatusInternalServerError, body: `oops`})

	res, err := client.Search(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Search() error = %v, want nil", err)
	}
	if got := upstream.calls(); got != 3 {
		t.Fatalf("upstream calls = %d, want 3", got)
	}
	if !res.Failed || res.Reason != statex.ReasonUpstreamUnavailable || len(res.Offers) != 0 {
		t.Fatalf("Search() = %+v, want failed upstream_unavailable", res)
	}
	if res.CheckIn != testRequest().CheckIn || res.CheckOut != testRequest().CheckOut {
		t.Fatalf("stay dates = %s..%s", res.CheckIn, res.CheckOut)
	}
}

func TestSearchDoesNotRetryRejection(t *testing.T) {
	t.Parallel()

	client, upstream := newTestClient(t, scriptedResponse{status: http.StatusBadRequest, body: `{"error":{"id":400,"message":"bad"}}`})

	res, err := client.Search(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := upstream.calls(); got != 1 {
		t.Fatalf("upstream calls = %d, want 1", got)
	}
	if !res.Failed || res.Reason != statex.ReasonUpstreamRejected {
		t.Fatalf("Search() = %+v, want upstream_rejected", res)
	}
}

func TestSearchFallbackStopsAtFirstNonEmpty(t *testing.T) {
	t.Parallel()

	client, upstream := newTestClient(t,
		scriptedResponse{status: http.StatusOK, body: `{"results":[]}`},
		scriptedResponse{status: http.StatusOK, body: `{"error":{"id":911,"message":"No search result"}}`},
		scriptedResponse{status: http.StatusOK, body: oneHotel},
		scriptedResponse{status: http.StatusOK, body: `{"results":[]}`},
	)

	res, err := client.Search(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := upstream.calls(); got != 3 {
		t.Fatalf("upstream calls = %d, want 3", got)
	}
	if res.FallbackStep != string(StepDropFilters) || len(res.Offers) != 1 {
		t.Fatalf("Search() = %+v, want offers from drop_filters", res)
	}

	widened := gjson.GetBytes(upstream.body(1), "criteria.additional.dailyRate")
	if widened.Get("minimum").Float() != 40 || widened.Get("maximum").Float() != 300 {
		t.Fatalf("widened rate = %s, want 40..300", widened.Raw)
	}
}

func TestSearchExhaustedFallbacksIsEmptyNotFailed(t *testing.T) {
	t.Parallel()

	client, upstream := newTestClient(t, scriptedResponse{status: http.StatusOK, body: `{"results":[]}`})

	res, err := client.Search(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := upstream.calls(); got != 5 {
		t.Fatalf("upstream calls = %d, want 5", got)
	}
	if res.Failed || res.Reason != statex.ReasonNoResults || res.Offers == nil || len(res.Offers) != 0 {
		t.Fatalf("Search() = %+v, want empty no_results", res)
	}

	last := upstream.body(4)
	if gjson.GetBytes(last, "criteria.additional").Exists() {
		t.Fatalf("minimal payload still has additional: %s", last)
	}
	if gjson.GetBytes(last, "criteria.cityId").Int() != 15470 {
		t.Fatalf("minimal payload lost cityId: %s", last)
	}
}

func TestSearchRejectsBadInputWithoutCalling(t *testing.T) {
	t.Parallel()

	client, upstream := newTestClient(t, scriptedResponse{status: http.StatusOK, body: oneHotel})

	cases := []struct {
		mutate func(*SearchRequest)
		want   error
	}{
		{func(r *SearchRequest) { r.CheckOut = r.CheckIn }, ErrInvalidDateRange},
		{func(r *SearchRequest) { r.CityID = 0 }, ErrCityUnresolved},
		{func(r *SearchRequest) { r.Guests = 0 }, ErrInvalidGuests},
	}
	for _, tc := range cases {
		req := testRequest()
		tc.mutate(&req)
		if _, err := client.Search(context.Background(), req); !errors.Is(err, tc.want) {
			t.Fatalf("Search() error = %v, want %v", err, tc.want)
		}
	}
	if got := upstream.calls(); got != 0 {
		t.Fatalf("upstream calls = %d, want 0", got)
	}
}

func TestSearchCancelledContextIsTimeout(t *testing.T) {
	t.Parallel()

	client, upstream := newTestClient(t, scriptedResponse{status: http.StatusOK, body: oneHotel})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := client.Search(ctx, testRequest())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !res.Failed || res.Reason != statex.ReasonTimeout {
		t.Fatalf("Search() = %+v, want failed timeout", res)
	}
	if got := upstream.calls(); got != 0 {
		t.Fatalf("upstream calls = %d, want 0", got)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "http://x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("NewClient() error = %v, want ErrNotConfigured", err)
	}
	_, err := NewClient(Config{BaseURL: "http://x", APIKey: "k", FallbackOrder: []string{"teleport"}})
	if !errors.Is(err, ErrUnknownFallback) {
		t.Fatalf("NewClient() error = %v, want ErrUnknownFallback", err)
	}
}
