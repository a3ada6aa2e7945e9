package services

import "kritika/internal/models"

// Actor is the identity a request acts under. A nil User means the request
// is anonymous. The policy below is a pure function of the actor, the
// resource class and, for mutations of existing reviews/comments, the
// owning author. It never returns errors; handlers turn denials into 401
// or 403.
type Actor struct {
	User *models.User
}

// AnonymousActor returns the actor for unauthenticated requests.
func AnonymousActor() Actor { return Actor{} }

// ActorFor wraps an authenticated user.
func ActorFor(user *models.User) Actor { return Actor{User: user} }

// IsAuthenticated reports whether the actor carries a resolved user.
func (a Actor) IsAuthenticated() bool { return a.User != nil }

func (a Actor) hasAdminAccess() bool {
	return a.User != nil && a.User.HasAdminAccess()
}

func (a Actor) isModerator() bool {
	return a.User != nil && a.User.IsModerator()
}

// Resource classes the policy distinguishes.
type Resource int

const (
	// ResourceUsers is account administration (the /users collection).
	ResourceUsers Resource = iota
	// ResourceOwnProfile is the requester's own record (/users/me).
	ResourceOwnProfile
	// ResourceCatalog covers categories, genres and titles.
	ResourceCatalog
	// ResourceReviews covers reviews and comments.
	ResourceReviews
)

// CanRead is the class-level gate for safe methods.
func (a Actor) CanRead(resource Resource) bool {
	switch resource {
	case ResourceUsers:
		return a.hasAdminAccess()
	case ResourceOwnProfile:
		return a.IsAuthenticated()
	case ResourceCatalog, ResourceReviews:
		return true
	}
	return false
}

// CanWrite is the class-level gate for create/update/delete. For reviews
// and comments it only answers "may this actor call the endpoint at all";
// mutations of an existing instance also pass CanModifyInstance.
func (a Actor) CanWrite(resource Resource) bool {
	switch resource {
	case ResourceUsers:
		return a.hasAdminAccess()
	case ResourceOwnProfile:
		return a.IsAuthenticated()
	case ResourceCatalog:
		return a.hasAdminAccess()
	case ResourceReviews:
		return a.IsAuthenticated()
	}
	return false
}

// CanModifyInstance is the instance-level gate for updating or deleting an
// existing review or comment: the owning author, a moderator, or an
// admin/superuser.
func (a Actor) CanModifyInstance(authorID uint) bool {
	if !a.IsAuthenticated() {
		return false
	}
	return a.User.ID == authorID || a.isModerator() || a.hasAdminAccess()
}
