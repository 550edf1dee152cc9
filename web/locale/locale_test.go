package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func localizedContext(t *testing.T, setup func(r *http.Request)) *gin.Context {
	t.Helper()
	var captured *gin.Context
	engine := gin.New()
	engine.Use(LocalizerMiddleware())
	engine.GET("/", func(c *gin.Context) {
		captured = c.Copy()
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	engine.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, captured)
	return captured
}

func TestInitLocalizer(t *testing.T) {
	require.NoError(t, InitLocalizer())
	assert.ElementsMatch(t, []string{"en-US", "pt-BR"}, Languages())
}

func TestI18nLanguageSelection(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"default", nil, "Not authorized."},
		{"accept language", func(r *http.Request) { r.Header.Set("Accept-Language", "pt-BR,pt;q=0.9") }, "Não autorizado"},
		{"cookie wins", func(r *http.Request) {
			r.Header.Set("Accept-Language", "pt-BR")
			r.AddCookie(&http.Cookie{Name: "lang", Value: "en-US"})
		}, "Not authorized."},
		{"unknown falls back", func(r *http.Request) { r.Header.Set("Accept-Language", "ja") }, "Not authorized."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := localizedContext(t, tt.setup)
			assert.Equal(t, tt.want, I18n(c, "error.forbidden"))
		})
	}
}

func TestI18nTemplateData(t *testing.T) {
	c := localizedContext(t, nil)
	assert.Equal(t, "Please fill in the field handle.", I18n(c, "error.missingField", "Field==handle"))
	assert.Equal(t, "no.such.key", I18n(c, "no.such.key"))
	assert.Equal(t, "Not found.", I18n(nil, "error.notFound"))
}

func TestElapsed(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	en := localizedContext(t, nil)
	pt := localizedContext(t, func(r *http.Request) { r.Header.Set("Accept-Language", "pt-BR") })

	tests := []struct {
		ago    time.Duration
		wantEn string
		wantPt string
	}{
		{30 * time.Second, "just now", "agora mesmo"},
		{60 * time.Second, "just now", "agora mesmo"},
		{61 * time.Second, "1 minute ago", "há 1 minuto"},
		{45 * time.Minute, "45 minutes ago", "há 45 minutos"},
		{3 * time.Hour, "3 hours ago", "há 3 horas"},
		{26 * time.Hour, "1 day ago", "há 1 dia"},
		{10 * 24 * time.Hour, "10 days ago", "há 10 dias"},
		{90 * 24 * time.Hour, "3 months ago", "há 3 meses"},
		{800 * 24 * time.Hour, "2 years ago", "há 2 anos"},
	}
	for _, tt := range tests {
		t.Run(tt.wantEn, func(t *testing.T) {
			assert.Equal(t, tt.wantEn, Elapsed(en, now, now.Add(-tt.ago)))
			assert.Equal(t, tt.wantPt, Elapsed(pt, now, now.Add(-tt.ago)))
		})
	}
}
