package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/stretchr/testify/require"
)

// UserBuilder provides a fluent interface for creating test users
type UserBuilder struct {
	email       string
	displayName string
	role        string
	isVerified  bool
	testDB      *TestDatabase
	t           *testing.T
}

// NewUser creates a new user builder defaulting to a client
func (tdb *TestDatabase) NewUser(t *testing.T) *UserBuilder {
	return &UserBuilder{
		email:       fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]),
		displayName: "Test User",
		role:        "client",
		testDB:      tdb,
		t:           t,
	}
}

func (ub *UserBuilder) WithEmail(email string) *UserBuilder {
	ub.email = email
	return ub
}

func (ub *UserBuilder) WithDisplayName(name string) *UserBuilder {
	ub.displayName = name
	return ub
}

func (ub *UserBuilder) AsClient() *UserBuilder {
	ub.role = "client"
	return ub
}

func (ub *UserBuilder) AsProfessional() *UserBuilder {
	ub.role = "professional"
	return ub
}

func (ub *UserBuilder) AsAdmin() *UserBuilder {
	ub.role = "admin"
	return ub
}

func (ub *UserBuilder) Verified() *UserBuilder {
	ub.isVerified = true
	return ub
}

// Create creates the user in the database
func (ub *UserBuilder) Create() db.User {
	user, err := ub.testDB.Queries().CreateUser(context.Background(), db.CreateUserParams{
		Email:       ub.email,
		DisplayName: ub.displayName,
		Role:        ub.role,
		IsVerified:  ub.isVerified,
	})
	require.NoError(ub.t, err, "Failed to create user")
	return user
}

// RelationshipBuilder provides a fluent interface for linking a client to a
// professional
type RelationshipBuilder struct {
	client       db.User
	professional db.User
	ended        bool
	testDB       *TestDatabase
	t            *testing.T
}

func (tdb *TestDatabase) NewRelationship(t *testing.T, client, professional db.User) *RelationshipBuilder {
	return &RelationshipBuilder{
		client:       client,
		professional: professional,
		testDB:       tdb,
		t:            t,
	}
}

func (rb *RelationshipBuilder) Ended() *RelationshipBuilder {
	rb.ended = true
	return rb
}

func (rb *RelationshipBuilder) Create() db.Relationship {
	ctx := context.Background()
	rel, err := rb.testDB.Queries().CreateRelationship(ctx, db.CreateRelationshipParams{
		ClientID:       rb.client.ID,
		ProfessionalID: rb.professional.ID,
	})
	require.NoError(rb.t, err, "Failed to create relationship")

	if rb.ended {
		rel, err = rb.testDB.Queries().EndRelationship(ctx, rel.ID)
		require.NoError(rb.t, err, "Failed to end relationship")
	}
	return rel
}

// CreateGrant inserts a grant row directly, bypassing the service layer.
// Tests exercising invariant recovery use this to build broken states.
func (tdb *TestDatabase) CreateGrant(t *testing.T, rel db.Relationship, slug string, exclusive bool) db.ClientPermission {
	grant, err := tdb.Queries().InsertGrant(context.Background(), db.InsertGrantParams{
		RelationshipID: rel.ID,
		ClientID:       rel.ClientID,
		PermissionSlug: slug,
		IsExclusive:    exclusive,
		GrantedBy:      "system",
	})
	require.NoError(t, err, "Failed to insert grant")
	return grant
}

// CreatePreset inserts a custom preset with items
func (tdb *TestDatabase) CreatePreset(t *testing.T, name string, owner uuid.UUID, slugs ...string) db.PermissionPreset {
	ctx := context.Background()
	preset, err := tdb.Queries().CreatePreset(ctx, db.CreatePresetParams{
		Name:        name,
		Description: "test preset",
		IsSystem:    false,
		CreatedBy:   &owner,
	})
	require.NoError(t, err, "Failed to create preset")

	for _, slug := range slugs {
		err := tdb.Queries().UpsertPresetItem(ctx, db.UpsertPresetItemParams{
			PresetID:       preset.ID,
			PermissionSlug: slug,
			IsEnabled:      true,
		})
		require.NoError(t, err, "Failed to add preset item")
	}
	return preset
}
