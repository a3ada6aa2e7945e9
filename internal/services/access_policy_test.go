package services_test

import (
	"testing"

	"kritika/internal/models"
	"kritika/internal/services"

	"github.com/stretchr/testify/assert"
)

func anonymous() services.Actor {
	return services.AnonymousActor()
}

func plainUser() services.Actor {
	return services.ActorFor(&models.User{ID: 1, Username: "reader", Role: models.RoleUser})
}

func moderator() services.Actor {
	return services.ActorFor(&models.User{ID: 2, Username: "mod", Role: models.RoleModerator})
}

func admin() services.Actor {
	return services.ActorFor(&models.User{ID: 3, Username: "boss", Role: models.RoleAdmin})
}

func superuser() services.Actor {
	// Superuser with a plain role: the flag alone must grant admin access.
	return services.ActorFor(&models.User{ID: 4, Username: "root", Role: models.RoleUser, IsSuperuser: true})
}

func TestAccessPolicy_ClassMatrix(t *testing.T) {
	cases := []struct {
		name     string
		actor    services.Actor
		resource services.Resource
		read     bool
		write    bool
	}{
		{"anonymous users collection", anonymous(), services.ResourceUsers, false, false},
		{"plain user users collection", plainUser(), services.ResourceUsers, false, false},
		{"moderator users collection", moderator(), services.ResourceUsers, false, false},
		{"admin users collection", admin(), services.ResourceUsers, true, true},
		{"superuser users collection", superuser(), services.ResourceUsers, true, true},

		{"anonymous own profile", anonymous(), services.ResourceOwnProfile, false, false},
		{"plain user own profile", plainUser(), services.ResourceOwnProfile, true, true},

		{"anonymous catalog", anonymous(), services.ResourceCatalog, true, false},
		{"plain user catalog", plainUser(), services.ResourceCatalog, true, false},
		{"moderator catalog", moderator(), services.ResourceCatalog, true, false},
		{"admin catalog", admin(), services.ResourceCatalog, true, true},
		{"superuser catalog", superuser(), services.ResourceCatalog, true, true},

		{"anonymous reviews", anonymous(), services.ResourceReviews, true, false},
		{"plain user reviews", plainUser(), services.ResourceReviews, true, true},
		{"moderator reviews", moderator(), services.ResourceReviews, true, true},
		{"admin reviews", admin(), services.ResourceReviews, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.read, tc.actor.CanRead(tc.resource), "read gate")
			assert.Equal(t, tc.write, tc.actor.CanWrite(tc.resource), "write gate")
		})
	}
}

func TestAccessPolicy_InstanceGate(t *testing.T) {
	const authorID = uint(1)

	assert.False(t, anonymous().CanModifyInstance(authorID), "anonymous never modifies")
	assert.True(t, plainUser().CanModifyInstance(authorID), "author modifies own")
	assert.False(t, plainUser().CanModifyInstance(99), "plain user cannot touch others")
	assert.True(t, moderator().CanModifyInstance(authorID), "moderator modifies any")
	assert.True(t, admin().CanModifyInstance(authorID), "admin modifies any")
	assert.True(t, superuser().CanModifyInstance(authorID), "superuser flag modifies any")
}

func TestAccessPolicy_ModeratorIsNotCatalogAdmin(t *testing.T) {
	// The moderator role elevates review/comment moderation only.
	mod := moderator()
	assert.False(t, mod.CanWrite(services.ResourceCatalog))
	assert.False(t, mod.CanWrite(services.ResourceUsers))
	assert.True(t, mod.CanWrite(services.ResourceReviews))
}
