package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
)

func TestListFilter_EscapesSearch(t *testing.T) {
	status := domain.StatusNew
	f := listFilter(ports.ListLeadsFilter{Status: &status, Search: "a.b(c"})

	assert.Equal(t, "new", f["status"])
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)

	rx := or[0].(bson.M)["name"].(primitive.Regex)
	assert.Equal(t, `a\.b\(c`, rx.Pattern)
	assert.Equal(t, "i", rx.Options)
}

func TestListFilter_Empty(t *testing.T) {
	assert.Empty(t, listFilter(ports.ListLeadsFilter{}))
}

func TestPatchSet_OnlySuppliedFields(t *testing.T) {
	name := "Jo"
	status := domain.StatusLost
	set := patchSet(&domain.LeadPatch{Name: &name, Status: &status})

	assert.Equal(t, bson.M{"name": "Jo", "status": "lost"}, set)
}

func TestLeadUpdate_UnsetsClearedFields(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	status := domain.StatusContacted
	p := &domain.LeadPatch{Status: &status}
	p.Clear(true, true)

	update := leadUpdate(p, now)

	assert.Equal(t, bson.M{"status": "contacted", "updatedAt": now}, update["$set"])
	assert.Equal(t, bson.M{"budget": "", "expectedCloseDate": ""}, update["$unset"])
}

func TestLeadUpdate_NoUnsetWithoutClears(t *testing.T) {
	budget := 42.0
	update := leadUpdate(&domain.LeadPatch{Budget: &budget}, time.Now())

	assert.NotContains(t, update, "$unset")
	assert.Equal(t, 42.0, update["$set"].(bson.M)["budget"])
}

func TestNoteUpdate_PushesAndTouchesUpdatedAt(t *testing.T) {
	author := primitive.NewObjectID()
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	note := domain.Note{Content: "called back", CreatedBy: domain.UserRef{ID: author.Hex()}, CreatedAt: now}

	update := noteUpdate(note, now)

	require.Len(t, update, 2)
	push := update["$push"].(bson.M)
	require.Len(t, push, 1)
	assert.Equal(t, noteDoc{Content: "called back", CreatedBy: author, CreatedAt: now}, push["notes"])
	assert.Equal(t, bson.M{"updatedAt": now}, update["$set"])
}

func TestLeadDoc_RoundTrip(t *testing.T) {
	author := primitive.NewObjectID().Hex()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	budget := 5000.0
	lead := &domain.Lead{
		Name:      "John Smith",
		Email:     "john@techsolutions.com",
		Source:    domain.SourceWebsite,
		Status:    domain.StatusNew,
		Budget:    &budget,
		CreatedBy: domain.UserRef{ID: author},
		CreatedAt: now,
		UpdatedAt: now,
		Notes:     []domain.Note{{Content: "hi", CreatedBy: domain.UserRef{ID: author}, CreatedAt: now}},
	}

	doc := toLeadDoc(lead)
	doc.ID = primitive.NewObjectID()
	got := doc.toDomain()

	assert.Equal(t, doc.ID.Hex(), got.ID)
	assert.Equal(t, author, got.CreatedBy.ID)
	assert.Equal(t, 5000.0, *got.Budget)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, author, got.Notes[0].CreatedBy.ID)
}

func TestGroupPipeline(t *testing.T) {
	p := groupPipeline("source")
	require.Len(t, p, 2)
	assert.Equal(t, "$group", p[0][0].Key)
	assert.Equal(t, "$sort", p[1][0].Key)
}
