package bootstrap

import (
	"net/http"
	"testing"

	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "rotaract_test",
		SessionKey:       devSecret,
		SessionName:      "rotaract-session",
		TokenSecret:      devSecret,
		Currency:         "usd",
		SiteName:         "Rotaract Test",
		BaseURL:          "http://localhost:3000",
		ContactLimit:     5,
		AuditLogAuth:     "all",
		AuditLogAdmin:    "db",
		AuditLogFinance:  "log",
		AuditLogPayments: "off",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"defaults", "dev", func(*AppConfig) {}, false},
		{"empty mongo uri", "dev", func(c *AppConfig) { c.MongoURI = "" }, true},
		{"stripe without webhook secret", "dev", func(c *AppConfig) { c.StripeSecretKey = "sk_test_x" }, true},
		{"stripe with webhook secret", "dev", func(c *AppConfig) {
			c.StripeSecretKey = "sk_test_x"
			c.StripeWebhookSecret = "whsec_x"
		}, false},
		{"bad currency", "dev", func(c *AppConfig) { c.Currency = "dollars" }, true},
		{"short token secret", "dev", func(c *AppConfig) { c.TokenSecret = "short" }, true},
		{"unknown audit mode", "dev", func(c *AppConfig) { c.AuditLogFinance = "sometimes" }, true},
		{"zero contact limit", "dev", func(c *AppConfig) { c.ContactLimit = 0 }, true},
		{"dev secrets in prod", "prod", func(*AppConfig) {}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePresident_CreatesThenPromotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	deps := DBDeps{MongoDatabase: db}
	store := memberstore.New(db)

	if err := ensurePresident(ctx, deps, "pres@example.org", "Pat President", testLogger()); err != nil {
		t.Fatalf("ensurePresident: %v", err)
	}
	m, err := store.GetByEmail(ctx, "pres@example.org")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if m.Role != models.RolePresident || m.Status != models.MemberActive {
		t.Errorf("created president = %s/%s", m.Role, m.Status)
	}

	// Running again is a no-op.
	if err := ensurePresident(ctx, deps, "pres@example.org", "", testLogger()); err != nil {
		t.Fatalf("second ensurePresident: %v", err)
	}

	existing := fx.CreateMember(ctx, "Riley", "riley@example.org", models.RoleMember, models.MemberPending)
	if err := ensurePresident(ctx, deps, "riley@example.org", "", testLogger()); err != nil {
		t.Fatalf("promote: %v", err)
	}
	got, err := store.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != models.RolePresident || got.Status != models.MemberActive {
		t.Errorf("promoted member = %s/%s", got.Role, got.Status)
	}
}

func TestBuildHandler_MountsFeatures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	cfg := validConfig()

	s, err := buildServices(cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("buildServices: %v", err)
	}
	svc = s
	t.Cleanup(func() {
		for _, c := range closers {
			c()
		}
		closers = nil
		svc = nil
	})
	if s.Stripe != nil {
		t.Fatal("stripe client built without a key")
	}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/events", http.StatusOK},
		{http.MethodGet, "/api/posts", http.StatusOK},
		{http.MethodGet, "/api/portal/committees", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/members", http.StatusUnauthorized},
		{http.MethodGet, "/api/finance/summary", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/audit", http.StatusUnauthorized},
		{http.MethodPost, "/api/webhooks/stripe", http.StatusServiceUnavailable},
		{http.MethodGet, "/no/such/route", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.path))
			rec.AssertStatus(t, tt.want)
		})
	}
}
