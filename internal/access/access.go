// Package access decides which views a session may enter. The check is a
// convenience for the UI; the server enforces the same rule with 403s.
package access

import "github.com/nhle/taskboard/internal/model"

// View names a top-level screen.
type View string

const (
	Login         View = "login"
	Dashboard     View = "dashboard"
	AdminOverview View = "admin"
	AdminTasks    View = "admin-tasks"
	AdminProjects View = "admin-projects"
	AdminUsers    View = "admin-users"
)

// AdminViews lists the staff-only views in tab order.
var AdminViews = []View{AdminOverview, AdminTasks, AdminProjects, AdminUsers}

// IsAdmin reports whether v requires the staff flag.
func (v View) IsAdmin() bool {
	for _, a := range AdminViews {
		if v == a {
			return true
		}
	}
	return false
}

// Decision is the outcome of Gate. When Allow is false the caller shows
// Redirect instead, with Notice as an optional status message.
type Decision struct {
	Allow    bool
	Redirect View
	Notice   string
}

// NoticeAdminOnly is shown when a non-staff session asks for an admin view.
const NoticeAdminOnly = "Admin access required"

// Gate decides whether the holder of identity (nil when signed out) may
// enter view. It must run before any loader for view is built.
func Gate(identity *model.Identity, view View) Decision {
	switch {
	case identity == nil && view != Login:
		return Decision{Redirect: Login}
	case identity != nil && view == Login:
		return Decision{Redirect: home(*identity)}
	case identity != nil && view.IsAdmin() && !identity.IsStaff:
		return Decision{Redirect: Dashboard, Notice: NoticeAdminOnly}
	}
	return Decision{Allow: true}
}

// Home is where a session lands after signing in.
func Home(identity model.Identity) View { return home(identity) }

func home(identity model.Identity) View {
	if identity.IsStaff {
		return AdminOverview
	}
	return Dashboard
}
