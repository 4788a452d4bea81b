package navigation

import (
	"context"
	"testing"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/auth"
)

type fakeAuth struct{ logouts int }

func (f *fakeAuth) Logout(context.Context) { f.logouts++ }

type fakeAuditor struct{ entries []audit.Entry }

func (f *fakeAuditor) Record(_ context.Context, e audit.Entry) { f.entries = append(f.entries, e) }

func screens(tabs []Tab) []Screen {
	out := make([]Screen, len(tabs))
	for i, t := range tabs {
		out[i] = t.Screen
	}
	return out
}

func equalScreens(a, b []Screen) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSurfaces(t *testing.T) {
	tests := []struct {
		role auth.Role
		want []Screen
	}{
		{auth.RoleUser, []Screen{ScreenEvents, ScreenAgenda, ScreenSponsors, ScreenTicket, ScreenLogout}},
		{auth.RoleEstande, []Screen{ScreenCheckinScan, ScreenCheckinList, ScreenEvents, ScreenAgenda, ScreenSponsors, ScreenTicket, ScreenLogout}},
		{auth.RoleEstandeAdmin, []Screen{ScreenCheckinScan, ScreenCheckinList, ScreenRegister, ScreenEvents, ScreenAgenda, ScreenSponsors, ScreenTicket, ScreenLogout}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			tabs, ok := Surfaces(tt.role)
			if !ok {
				t.Fatal("Surfaces() ok = false")
			}
			if got := screens(tabs); !equalScreens(got, tt.want) {
				t.Errorf("Surfaces() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, ok := Surfaces("admin"); ok {
		t.Error("Surfaces(admin) ok = true")
	}
}

func TestSurfaces_TotalOverValidRoles(t *testing.T) {
	for _, r := range auth.ValidRoles {
		if _, ok := Surfaces(r); !ok {
			t.Errorf("no surfaces for valid role %q", r)
		}
	}
}

func TestSurfaces_ReturnsCopy(t *testing.T) {
	tabs, _ := Surfaces(auth.RoleUser)
	tabs[0].Label = "mutated"
	again, _ := Surfaces(auth.RoleUser)
	if again[0].Label == "mutated" {
		t.Error("Surfaces() exposed the shared table")
	}
}

func TestAllows(t *testing.T) {
	tests := []struct {
		role   auth.Role
		screen Screen
		want   bool
	}{
		{auth.RoleUser, ScreenEvents, true},
		{auth.RoleUser, ScreenCheckinScan, false},
		{auth.RoleUser, ScreenRegister, false},
		{auth.RoleEstande, ScreenCheckinList, true},
		{auth.RoleEstande, ScreenRegister, false},
		{auth.RoleEstandeAdmin, ScreenRegister, true},
		{"", ScreenEvents, false},
		{"superuser", ScreenTicket, false},
	}
	for _, tt := range tests {
		if got := Allows(tt.role, tt.screen); got != tt.want {
			t.Errorf("Allows(%q, %q) = %v, want %v", tt.role, tt.screen, got, tt.want)
		}
	}
}

func TestRouter_UnknownRoleLogsOut(t *testing.T) {
	for _, role := range []string{"", "admin", "ESTANDE", "user "} {
		t.Run("role="+role, func(t *testing.T) {
			fa := &fakeAuth{}
			aud := &fakeAuditor{}
			r := NewRouter(fa, aud, nil)

			res := r.ResolveRole(t.Context(), role, "9")
			if len(res.Tabs) != 0 {
				t.Errorf("Tabs = %v, want none", res.Tabs)
			}
			if res.Notice != MsgAccessDenied || !res.LoggedOut {
				t.Errorf("Resolution = %+v", res)
			}
			if fa.logouts != 1 {
				t.Errorf("logouts = %d, want 1", fa.logouts)
			}
			if len(aud.entries) != 1 || aud.entries[0].Action != audit.ActionAccessDenied {
				t.Errorf("audit = %+v", aud.entries)
			}
		})
	}
}

func TestRouter_Resolve(t *testing.T) {
	fa := &fakeAuth{}
	r := NewRouter(fa, nil, nil)

	res := r.Resolve(t.Context(), &auth.Session{UserID: "1", Role: auth.RoleEstande, Token: "t"})
	if res.Role != auth.RoleEstande || len(res.Tabs) != 7 || res.LoggedOut {
		t.Errorf("Resolve(estande) = %+v", res)
	}

	if res := r.Resolve(t.Context(), nil); len(res.Tabs) != 0 || res.LoggedOut {
		t.Errorf("Resolve(nil) = %+v", res)
	}
	if fa.logouts != 0 {
		t.Error("valid or absent sessions must not log out")
	}
}

func TestRouter_RequestLogout(t *testing.T) {
	fa := &fakeAuth{}
	r := NewRouter(fa, nil, nil)

	var title string
	declined := ConfirmFunc(func(_ context.Context, gotTitle, _ string) bool { title = gotTitle; return false })
	if r.RequestLogout(t.Context(), declined) || fa.logouts != 0 {
		t.Error("declined confirmation must not log out")
	}
	if title != LogoutTitle {
		t.Errorf("confirm title = %q", title)
	}
	if r.RequestLogout(t.Context(), nil) {
		t.Error("nil confirmer must not log out")
	}

	accepted := ConfirmFunc(func(context.Context, string, string) bool { return true })
	if !r.RequestLogout(t.Context(), accepted) || fa.logouts != 1 {
		t.Error("confirmed logout did not run")
	}
}
