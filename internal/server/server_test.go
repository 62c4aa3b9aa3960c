package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Use(corsMiddleware([]string{"*"}))
	router.Route("/functions/v1", func(r chi.Router) {
		registerFunctionRoutes(r, testService(nil))
	})

	t.Run("preflight answers with a bare 200", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodOptions, "/functions/v1/redeem-invite", nil)
		r.Header.Set("Origin", "https://escola-azul.bibliotecai.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		r.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Empty(t, w.Body.String())
	})

	t.Run("actual request carries the allow-origin header", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/functions/v1/redeem-invite", nil)
		r.Header.Set("Origin", "https://escola-azul.bibliotecai.com")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
