// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// User types carried by the access token. The core never authenticates;
// it only authorizes against an already-verified caller identity.
const (
	UserTypeAgent = "agent"
	UserTypeTeam  = "team"
)

// Identity represents the authenticated caller's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access caller information without depending on Gin.
type Identity interface {
	// ProfileID returns the authenticated caller's profile ID.
	ProfileID() uuid.UUID
	// UserType returns "agent" or "team".
	UserType() string
	// IsAgent returns true for agent callers.
	IsAgent() bool
	// IsTeam returns true for team callers.
	IsTeam() bool
	// IsAuthenticated returns true if the caller is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	profileID     uuid.UUID
	userType      string
	authenticated bool
}

func (i *identity) ProfileID() uuid.UUID {
	return i.profileID
}

func (i *identity) UserType() string {
	return i.userType
}

func (i *identity) IsAgent() bool {
	return i.userType == UserTypeAgent
}

func (i *identity) IsTeam() bool {
	return i.userType == UserTypeTeam
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if caller info is not present.
func GetIdentity(c *gin.Context) Identity {
	profileID, profileOK := c.Get(ContextProfileIDKey)
	userType, typeOK := c.Get(ContextUserTypeKey)

	if !profileOK || !typeOK {
		return &identity{authenticated: false}
	}

	pid, ok := profileID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	ut, ok := userType.(string)
	if !ok {
		return &identity{authenticated: false}
	}

	return &identity{
		profileID:     pid,
		userType:      ut,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the caller is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
