package posts_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/app/features/posts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.uber.org/zap"
)

func TestPostLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	h := posts.NewHandler(db, nil, zap.NewNop())
	public, admin := posts.Routes(h), posts.AdminRoutes(h)
	board := testutil.BoardUser()

	rec := testutil.NewRecorder()
	admin.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"title": "x"}), testutil.MemberUser()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	admin.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{
		"title": "Spring Service Day",
		"body":  `<p>Join us!</p><script>alert(1)</script><a href="javascript:evil()">x</a>`,
	}), board))
	rec.AssertStatus(t, http.StatusCreated)
	var created struct {
		Post models.Post `json:"post"`
	}
	rec.DecodeJSON(t, &created)
	if created.Post.Slug != "spring-service-day" {
		t.Errorf("slug = %q", created.Post.Slug)
	}
	if strings.Contains(created.Post.Body, "<script") || strings.Contains(created.Post.Body, "javascript:") {
		t.Errorf("body not sanitized: %q", created.Post.Body)
	}

	// Drafts are invisible to the public.
	rec = testutil.NewRecorder()
	public.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/spring-service-day"))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	admin.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPatch, "/"+created.Post.ID.Hex(), map[string]any{"published": true}), board))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	public.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/spring-service-day"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Join us!")

	rec = testutil.NewRecorder()
	admin.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"title": "Spring service day!"}), board))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	admin.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodDelete, "/"+created.Post.ID.Hex()), board))
	rec.AssertStatus(t, http.StatusNoContent)
}
