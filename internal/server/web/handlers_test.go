package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ordrebog/ordrebog/internal/logging"
	"github.com/ordrebog/ordrebog/internal/models"
	"github.com/ordrebog/ordrebog/internal/server/repositories/docs"
	"github.com/ordrebog/ordrebog/internal/server/repositories/snapshots"
	"github.com/ordrebog/ordrebog/internal/server/services"
)

const testAdminKey = "hunter2"

type fixture struct {
	server *Server
	ledger *services.Ledger
	access *services.Access
	ts     *httptest.Server
	client *http.Client
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Announce(text string) {
	n.messages = append(n.messages, text)
}

func newFixture(t *testing.T) (*fixture, *recordingNotifier) {
	t.Helper()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	snaps := snapshots.New(docs.NewMemory())

	catalog := models.Catalog{Items: map[string]models.CatalogEntry{
		"9mm":  {MaxStock: 20, UnitPrice: 800},
		"vest": {MaxStock: 5, UnitPrice: 100},
	}}
	require.NoError(t, snaps.SaveCatalog(context.Background(), catalog))

	audit := services.NewAudit(snaps, logger)
	stats := services.NewStats(snaps, audit, nil, logger)
	access := services.NewAccess(snaps, audit, logger)
	ledger := services.NewLedger(snaps, stats, audit, "bestilling", logger)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminKey), bcrypt.MinCost)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	server, err := NewServer(Options{
		Ledger:       ledger,
		Stats:        stats,
		Access:       access,
		Audit:        audit,
		Notifier:     notifier,
		AdminKeyHash: string(hash),
		SecretKey:    "test-secret",
		TokenTTL:     time.Hour,
		Logger:       logger,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)

	// cookie jar keeps the admin token between requests, but redirects
	// are not followed so handlers can be asserted individually
	client := ts.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &fixture{server: server, ledger: ledger, access: access, ts: ts, client: client}, notifier
}

// login returns a client that carries a valid admin cookie.
func (f *fixture) login(t *testing.T) *http.Client {
	t.Helper()

	resp, err := f.client.Get(f.ts.URL + "/admin?key=" + testAdminKey)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	u, err := url.Parse(f.ts.URL)
	require.NoError(t, err)

	jar := &staticJar{url: u, cookies: cookies}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type staticJar struct {
	url     *url.URL
	cookies []*http.Cookie
}

func (j *staticJar) SetCookies(u *url.URL, cookies []*http.Cookie) {}
func (j *staticJar) Cookies(u *url.URL) []*http.Cookie            { return j.cookies }

func TestIndexPage(t *testing.T) {
	f, _ := newFixture(t)

	_, err := f.ledger.OpenSession(context.Background(), "admin")
	require.NoError(t, err)

	resp, err := f.client.Get(f.ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bestilling1")
}

func TestAdminLoginWrongKey(t *testing.T) {
	f, _ := newFixture(t)

	resp, err := f.client.Get(f.ts.URL + "/admin?key=wrong")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
}

func TestAdminLoginDisabled(t *testing.T) {
	f, _ := newFixture(t)
	f.server.adminKeyHash = ""

	resp, err := f.client.Get(f.ts.URL + "/admin?key=" + testAdminKey)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminRoutesRequireCookie(t *testing.T) {
	f, _ := newFixture(t)

	resp, err := f.client.Post(f.ts.URL+"/session/open", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOpenAndCloseSession(t *testing.T) {
	f, notifier := newFixture(t)
	admin := f.login(t)

	resp, err := admin.Post(f.ts.URL+"/session/open", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/session/bestilling1", resp.Header.Get("Location"))

	resp, err = admin.Post(f.ts.URL+"/session/close", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[0], "bestilling1")
	assert.Contains(t, notifier.messages[1], "stengt")
}

func TestSessionPageNotFound(t *testing.T) {
	f, _ := newFixture(t)

	resp, err := f.client.Get(f.ts.URL + "/session/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionPageShowsOrders(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()

	name, err := f.ledger.OpenSession(ctx, "admin")
	require.NoError(t, err)
	_, err = f.ledger.PlaceOrUpdate(ctx, "1", "kari", "9mm", 3)
	require.NoError(t, err)

	resp, err := f.client.Get(f.ts.URL + "/session/" + name)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "kari")
	assert.Contains(t, string(body), "2400")
}

func TestSessionDataHashChangesWithOrders(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()

	name, err := f.ledger.OpenSession(ctx, "admin")
	require.NoError(t, err)

	readHash := func() string {
		resp, err := f.client.Get(f.ts.URL + "/session_data/" + name)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var data map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&data))
		return data["hash"]
	}

	before := readHash()
	assert.Equal(t, before, readHash())

	_, err = f.ledger.PlaceOrUpdate(ctx, "1", "kari", "9mm", 3)
	require.NoError(t, err)
	assert.NotEqual(t, before, readHash())
}

func TestEditOrderClampsToStock(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()
	admin := f.login(t)

	name, err := f.ledger.OpenSession(ctx, "admin")
	require.NoError(t, err)
	order, err := f.ledger.PlaceOrUpdate(ctx, "1", "kari", "vest", 2)
	require.NoError(t, err)

	form := url.Values{"vest": {"99"}, "9mm": {"1"}}
	resp, err := admin.Post(
		f.ts.URL+"/session/"+name+"/order/"+order.ID+"/edit",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	view, err := f.ledger.SessionView(ctx, name)
	require.NoError(t, err)
	require.Len(t, view.Orders, 1)
	assert.Equal(t, 5, view.Orders[0].Items["vest"])
	assert.Equal(t, 1, view.Orders[0].Items["9mm"])
}

func TestEditOrderRejectsBadQuantity(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()
	admin := f.login(t)

	name, err := f.ledger.OpenSession(ctx, "admin")
	require.NoError(t, err)
	order, err := f.ledger.PlaceOrUpdate(ctx, "1", "kari", "vest", 2)
	require.NoError(t, err)

	form := url.Values{"vest": {"mange"}}
	resp, err := admin.Post(
		f.ts.URL+"/session/"+name+"/order/"+order.ID+"/edit",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteOrderFreesStock(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()
	admin := f.login(t)

	name, err := f.ledger.OpenSession(ctx, "admin")
	require.NoError(t, err)
	order, err := f.ledger.PlaceOrUpdate(ctx, "1", "kari", "vest", 5)
	require.NoError(t, err)

	resp, err := admin.Post(f.ts.URL+"/session/"+name+"/order/"+order.ID+"/delete", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	remaining, err := f.ledger.CurrentRemaining(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining["vest"])
}

func TestLockAndBlockUser(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()
	admin := f.login(t)

	name, err := f.ledger.OpenSession(ctx, "admin")
	require.NoError(t, err)

	resp, err := admin.Post(f.ts.URL+"/session/"+name+"/user/1/lock", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, err = f.ledger.PlaceOrUpdate(ctx, "1", "kari", "9mm", 1)
	assert.Error(t, err)

	resp, err = admin.Post(f.ts.URL+"/user/2/block", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	blocked, err := f.access.IsBlocked(ctx, "2")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestAuditPage(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()
	admin := f.login(t)

	_, err := f.ledger.OpenSession(ctx, "admin")
	require.NoError(t, err)

	resp, err := admin.Get(f.ts.URL + "/audit")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), models.AuditOpenSession)
}
