package navigation

import "github.com/nerrad567/event-companion-core/internal/auth"

// Screen names a top-level surface of the app.
type Screen string

// Screen constants.
const (
	ScreenCheckinScan Screen = "checkin_scan"
	ScreenCheckinList Screen = "checkin_list"
	ScreenRegister    Screen = "register"
	ScreenEvents      Screen = "events"
	ScreenAgenda      Screen = "agenda"
	ScreenSponsors    Screen = "sponsors"
	ScreenTicket      Screen = "ticket"
	ScreenLogout      Screen = "logout"
)

// Tab is one entry of the bottom tab bar.
type Tab struct {
	Screen Screen `json:"screen"`
	Label  string `json:"label"`
}

var (
	tabCheckinScan = Tab{ScreenCheckinScan, "Leitura"}
	tabCheckinList = Tab{ScreenCheckinList, "Listagem"}
	tabRegister    = Tab{ScreenRegister, "Inscrever"}
	tabEvents      = Tab{ScreenEvents, "Eventos"}
	tabAgenda      = Tab{ScreenAgenda, "Agenda"}
	tabSponsors    = Tab{ScreenSponsors, "Estandes"}
	tabTicket      = Tab{ScreenTicket, "Ticket"}
	tabLogout      = Tab{ScreenLogout, "Sair"}
)

// roleSurfaces maps each role to its tabs, in display order.
// The logout action closes every list.
var roleSurfaces = map[auth.Role][]Tab{
	auth.RoleUser: {
		tabEvents, tabAgenda, tabSponsors, tabTicket, tabLogout,
	},
	auth.RoleEstande: {
		tabCheckinScan, tabCheckinList,
		tabEvents, tabAgenda, tabSponsors, tabTicket, tabLogout,
	},
	auth.RoleEstandeAdmin: {
		tabCheckinScan, tabCheckinList, tabRegister,
		tabEvents, tabAgenda, tabSponsors, tabTicket, tabLogout,
	},
}

// Surfaces returns a copy of role's tabs. ok is false for an unknown role.
func Surfaces(role auth.Role) (tabs []Tab, ok bool) {
	src, ok := roleSurfaces[role]
	if !ok {
		return nil, false
	}
	tabs = make([]Tab, len(src))
	copy(tabs, src)
	return tabs, true
}

// Allows reports whether role may open screen.
func Allows(role auth.Role, screen Screen) bool {
	for _, t := range roleSurfaces[role] {
		if t.Screen == screen {
			return true
		}
	}
	return false
}
