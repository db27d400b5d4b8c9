package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sharedauth "github.com/siren-bd/platform/internal/shared/auth"
	"github.com/siren-bd/platform/internal/shared/types"
)

func callWithRole(t *testing.T, perm Permission, role string) int {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequirePermission(perm)(next)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if role != "" {
		actor := &sharedauth.Actor{ID: types.NewID(), Name: "Tester", Role: role}
		req = req.WithContext(context.WithValue(req.Context(), sharedauth.ActorContextKey, actor))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name string
		perm Permission
		role string
		want int
	}{
		{"volunteer may accept tasks", PermTaskAccept, "volunteer", http.StatusNoContent},
		{"victim may not accept tasks", PermTaskAccept, "victim", http.StatusForbidden},
		{"official may assign", PermRequestAssign, "official", http.StatusNoContent},
		{"donor may not assign", PermRequestAssign, "donor", http.StatusForbidden},
		{"donor may donate", PermDonate, "donor", http.StatusNoContent},
		{"official may not donate", PermDonate, "official", http.StatusForbidden},
		{"unknown role denied", PermRequestRead, "admin", http.StatusForbidden},
		{"no actor rejected", PermTaskAccept, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := callWithRole(t, tt.perm, tt.role); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
