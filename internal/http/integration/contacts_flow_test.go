package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type contactBody struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Favorite bool   `json:"favorite"`
	Owner    string `json:"owner"`
}

type listBody struct {
	Items []contactBody `json:"items"`
	Count int           `json:"count"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func uniq(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func TestFullScenario_Memory(t *testing.T) {
	runFullScenario(t, setupMemoryApp(t))
}

func TestFullScenario_Postgres(t *testing.T) {
	runFullScenario(t, setupPostgresApp(t))
}

func runFullScenario(t *testing.T, app *testApp) {
	email := uniq("a") + "@x.com"
	creds := map[string]string{"email": email, "password": "secret1"}

	app.expect(t, app.do(t, http.MethodPost, "/users/signup", "", creds), http.StatusCreated)

	// signing up twice conflicts
	app.expect(t, app.do(t, http.MethodPost, "/users/signup", "", creds), http.StatusConflict)

	// unverified accounts never get a session
	app.expect(t, app.do(t, http.MethodPost, "/users/login", "", creds), http.StatusForbidden)

	verifyToken := app.verificationToken(t, email)
	app.expect(t, app.do(t, http.MethodPatch, "/users/verify/"+verifyToken, "", nil), http.StatusOK)

	// the token is consumed
	app.expect(t, app.do(t, http.MethodPatch, "/users/verify/"+verifyToken, "", nil), http.StatusNotFound)

	// resend is refused once verified
	app.expect(t, app.do(t, http.MethodPost, "/users/verify", "", map[string]string{"email": email}), http.StatusBadRequest)

	w := app.do(t, http.MethodPost, "/users/login", "", creds)
	app.expect(t, w, http.StatusOK)
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	tok := login.Token

	w = app.do(t, http.MethodGet, "/contacts", tok, nil)
	app.expect(t, w, http.StatusOK)
	var list listBody
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 0 || len(list.Items) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}

	phone := uniq("")
	w = app.do(t, http.MethodPost, "/contacts", tok, map[string]any{
		"name": "Alice Long", "email": "a@y.com", "phone": phone,
	})
	app.expect(t, w, http.StatusCreated)
	var created contactBody
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode contact: %v", err)
	}
	if created.Favorite {
		t.Fatalf("favorite should default to false")
	}

	w = app.do(t, http.MethodGet, "/contacts/"+created.ID, tok, nil)
	app.expect(t, w, http.StatusOK)
	var fetched contactBody
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetched contact: %v", err)
	}
	want := contactBody{ID: created.ID, Name: "Alice Long", Email: "a@y.com", Phone: phone, Favorite: false, Owner: created.Owner}
	if fetched != want {
		t.Fatalf("fetched contact = %+v, want %+v", fetched, want)
	}

	w = app.do(t, http.MethodDelete, "/contacts/"+created.ID, tok, nil)
	app.expect(t, w, http.StatusOK)
	var deleted contactBody
	if err := json.Unmarshal(w.Body.Bytes(), &deleted); err != nil || deleted.ID != created.ID {
		t.Fatalf("delete should return the removed record, got %s", w.Body.String())
	}

	app.expect(t, app.do(t, http.MethodGet, "/contacts/"+created.ID, tok, nil), http.StatusNotFound)
}

func TestLogoutRevokesSession(t *testing.T) {
	app := setupMemoryApp(t)
	tok := app.registerAndLogin(t, "a@x.com", "secret1")

	app.expect(t, app.do(t, http.MethodGet, "/users/current", tok, nil), http.StatusOK)
	app.expect(t, app.do(t, http.MethodPost, "/users/logout", tok, nil), http.StatusNoContent)

	// still correctly signed, but no longer the stored token
	app.expect(t, app.do(t, http.MethodGet, "/users/current", tok, nil), http.StatusUnauthorized)
	app.expect(t, app.do(t, http.MethodGet, "/contacts", tok, nil), http.StatusUnauthorized)
}

func TestNewLoginSupersedesOldToken(t *testing.T) {
	app := setupMemoryApp(t)
	first := app.registerAndLogin(t, "a@x.com", "secret1")

	w := app.do(t, http.MethodPost, "/users/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	app.expect(t, w, http.StatusOK)
	var login struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &login)

	if login.Token == first {
		t.Fatalf("second login must issue a fresh token")
	}

	app.expect(t, app.do(t, http.MethodGet, "/users/current", first, nil), http.StatusUnauthorized)
	app.expect(t, app.do(t, http.MethodGet, "/users/current", login.Token, nil), http.StatusOK)
}

func TestContactsAreOwnerScoped(t *testing.T) {
	app := setupMemoryApp(t)
	alice := app.registerAndLogin(t, "alice@x.com", "secret1")
	bob := app.registerAndLogin(t, "bob@x.com", "secret1")

	w := app.do(t, http.MethodPost, "/contacts", alice, map[string]any{
		"name": "Carol Long", "email": "c@y.com", "phone": "555-0100",
	})
	app.expect(t, w, http.StatusCreated)
	var c contactBody
	_ = json.Unmarshal(w.Body.Bytes(), &c)

	// someone else's contact looks exactly like a missing one
	app.expect(t, app.do(t, http.MethodGet, "/contacts/"+c.ID, bob, nil), http.StatusNotFound)
	app.expect(t, app.do(t, http.MethodPut, "/contacts/"+c.ID, bob, map[string]any{
		"name": "Mallory X", "email": "m@y.com", "phone": "555-0199",
	}), http.StatusNotFound)
	app.expect(t, app.do(t, http.MethodPatch, "/contacts/"+c.ID+"/favorite", bob, map[string]any{"favorite": true}), http.StatusNotFound)
	app.expect(t, app.do(t, http.MethodDelete, "/contacts/"+c.ID, bob, nil), http.StatusNotFound)

	w = app.do(t, http.MethodGet, "/contacts", bob, nil)
	app.expect(t, w, http.StatusOK)
	var list listBody
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 0 {
		t.Fatalf("bob must not see alice's contacts: %+v", list)
	}

	// still intact for the owner
	w = app.do(t, http.MethodGet, "/contacts/"+c.ID, alice, nil)
	app.expect(t, w, http.StatusOK)

	// phone numbers are unique across accounts
	app.expect(t, app.do(t, http.MethodPost, "/contacts", bob, map[string]any{
		"name": "Carol Again", "email": "c2@y.com", "phone": "555-0100",
	}), http.StatusConflict)

	app.expect(t, app.do(t, http.MethodGet, "/contacts/not-a-uuid", alice, nil), http.StatusBadRequest)
}

func TestPaginationAndFavoriteFilter(t *testing.T) {
	app := setupMemoryApp(t)
	tok := app.registerAndLogin(t, "a@x.com", "secret1")

	ids := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		w := app.do(t, http.MethodPost, "/contacts", tok, map[string]any{
			"name":     fmt.Sprintf("Contact %02d", i),
			"email":    fmt.Sprintf("c%d@y.com", i),
			"phone":    fmt.Sprintf("555-01%02d", i),
			"favorite": i%2 == 0,
		})
		app.expect(t, w, http.StatusCreated)
		var c contactBody
		_ = json.Unmarshal(w.Body.Bytes(), &c)
		ids = append(ids, c.ID)
	}

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		w := app.do(t, http.MethodGet, fmt.Sprintf("/contacts?page=%d&limit=3", page), tok, nil)
		app.expect(t, w, http.StatusOK)
		var list listBody
		_ = json.Unmarshal(w.Body.Bytes(), &list)
		if list.Total != 7 {
			t.Fatalf("total = %d, want 7", list.Total)
		}
		for _, it := range list.Items {
			if seen[it.ID] {
				t.Fatalf("contact %s returned twice", it.ID)
			}
			seen[it.ID] = true
		}
	}
	if len(seen) != len(ids) {
		t.Fatalf("pages covered %d contacts, want %d", len(seen), len(ids))
	}

	w := app.do(t, http.MethodGet, "/contacts?favorite=true&limit=100", tok, nil)
	app.expect(t, w, http.StatusOK)
	var favs listBody
	_ = json.Unmarshal(w.Body.Bytes(), &favs)
	if favs.Total != 4 {
		t.Fatalf("favorites total = %d, want 4", favs.Total)
	}
	for _, it := range favs.Items {
		if !it.Favorite {
			t.Fatalf("non-favorite %s in favorite listing", it.ID)
		}
	}

	app.expect(t, app.do(t, http.MethodGet, "/contacts?favorite=maybe", tok, nil), http.StatusBadRequest)
	app.expect(t, app.do(t, http.MethodGet, "/contacts?page=9223372036854775807&limit=10", tok, nil), http.StatusBadRequest)
	app.expect(t, app.do(t, http.MethodGet, "/contacts?page=9223372036854775807", tok, nil), http.StatusBadRequest)

	// toggling through PATCH is visible to the filter
	app.expect(t, app.do(t, http.MethodPatch, "/contacts/"+ids[1]+"/favorite", tok, map[string]any{"favorite": true}), http.StatusOK)
	w = app.do(t, http.MethodGet, "/contacts?favorite=true", tok, nil)
	_ = json.Unmarshal(w.Body.Bytes(), &favs)
	if favs.Total != 5 {
		t.Fatalf("favorites total after toggle = %d, want 5", favs.Total)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	app := setupMemoryApp(t)

	app.expect(t, app.do(t, http.MethodGet, "/healthz", "", nil), http.StatusOK)
	app.expect(t, app.do(t, http.MethodGet, "/readyz", "", nil), http.StatusOK)
	app.expect(t, app.do(t, http.MethodGet, "/docs/openapi.yaml", "", nil), http.StatusOK)

	app.do(t, http.MethodGet, "/contacts", "", nil)
	w := app.do(t, http.MethodGet, "/metrics", "", nil)
	app.expect(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "contacts_auth_rejections_total") {
		t.Fatalf("expected auth rejection metric after unauthenticated request")
	}
}
