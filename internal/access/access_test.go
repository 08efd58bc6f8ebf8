package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/taskboard/internal/model"
)

func TestGate(t *testing.T) {
	member := &model.Identity{UserID: "1"}
	staff := &model.Identity{UserID: "2", IsStaff: true}

	cases := []struct {
		name     string
		identity *model.Identity
		view     View
		want     Decision
	}{
		{"anonymous login", nil, Login, Decision{Allow: true}},
		{"anonymous dashboard", nil, Dashboard, Decision{Redirect: Login}},
		{"anonymous admin", nil, AdminUsers, Decision{Redirect: Login}},
		{"member dashboard", member, Dashboard, Decision{Allow: true}},
		{"member admin", member, AdminTasks, Decision{Redirect: Dashboard, Notice: NoticeAdminOnly}},
		{"member login", member, Login, Decision{Redirect: Dashboard}},
		{"staff admin", staff, AdminProjects, Decision{Allow: true}},
		{"staff dashboard", staff, Dashboard, Decision{Allow: true}},
		{"staff login", staff, Login, Decision{Redirect: AdminOverview}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Gate(tc.identity, tc.view))
		})
	}
}

func TestEveryAdminViewIsGated(t *testing.T) {
	member := &model.Identity{UserID: "1"}
	for _, v := range AdminViews {
		assert.True(t, v.IsAdmin())
		assert.False(t, Gate(member, v).Allow, v)
	}
	assert.False(t, Dashboard.IsAdmin())
}
