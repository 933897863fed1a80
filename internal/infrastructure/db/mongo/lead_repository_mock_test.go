package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
)

// These tests run the repository against the driver's mock deployment and
// inspect the commands it sends.

func newMockLeadRepo(mt *mtest.T) *LeadRepository {
	return &LeadRepository{col: mt.Coll}
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

// asDoc converts a document struct into the bson.D form mock responses take.
func asDoc(t testing.TB, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func findAndModifyReply(doc any) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func storedLead(id primitive.ObjectID, name string, notes ...noteDoc) leadDoc {
	created := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	if notes == nil {
		notes = []noteDoc{}
	}
	return leadDoc{
		ID:        id,
		Name:      name,
		Email:     "lead@example.com",
		Source:    string(domain.SourceWebsite),
		Status:    string(domain.StatusNew),
		Notes:     notes,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestLeadRepository_AppendNote(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("single atomic update on the target lead", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		id := primitive.NewObjectID()
		author := primitive.NewObjectID()
		at := time.Date(2024, 4, 2, 10, 30, 0, 0, time.UTC)

		note := noteDoc{Content: "Sent proposal", CreatedBy: author, CreatedAt: at}
		after := storedLead(id, "Sarah Johnson", note)
		after.UpdatedAt = at
		mt.AddMockResponses(findAndModifyReply(asDoc(mt, after)))

		lead, err := repo.AppendNote(context.Background(), id.Hex(),
			domain.Note{Content: "Sent proposal", CreatedBy: domain.UserRef{ID: author.Hex()}, CreatedAt: at}, at)
		require.NoError(mt, err)
		require.Len(mt, lead.Notes, 1)
		assert.Equal(mt, "Sent proposal", lead.Notes[0].Content)
		assert.True(mt, lead.UpdatedAt.Equal(at))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "findAndModify", evt.CommandName)
		assert.Nil(mt, mt.GetStartedEvent(), "append must be one round trip")

		cmd := evt.Command
		assert.True(mt, cmd.Lookup("new").Boolean(), "must return the document after the update")

		query := cmd.Lookup("query").Document()
		elems, err := query.Elements()
		require.NoError(mt, err)
		require.Len(mt, elems, 1)
		assert.Equal(mt, id, query.Lookup("_id").ObjectID())

		update := cmd.Lookup("update").Document()
		assert.Equal(mt, "Sent proposal", update.Lookup("$push", "notes", "content").StringValue())
		assert.Equal(mt, author, update.Lookup("$push", "notes", "createdBy").ObjectID())
		assert.True(mt, update.Lookup("$set", "updatedAt").Time().Equal(at))
	})

	mt.Run("appending to one lead leaves another untouched", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		x, y := primitive.NewObjectID(), primitive.NewObjectID()
		at := time.Date(2024, 4, 3, 8, 0, 0, 0, time.UTC)

		mt.AddMockResponses(
			findAndModifyReply(asDoc(mt, storedLead(x, "Lead X", noteDoc{Content: "only on X", CreatedAt: at}))),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, asDoc(mt, storedLead(y, "Lead Y"))),
		)

		_, err := repo.AppendNote(context.Background(), x.Hex(), domain.Note{Content: "only on X", CreatedAt: at}, at)
		require.NoError(mt, err)
		got, err := repo.FindByID(context.Background(), y.Hex())
		require.NoError(mt, err)
		assert.Empty(mt, got.Notes)

		appendCmd := mt.GetStartedEvent()
		require.NotNil(mt, appendCmd)
		assert.Equal(mt, x, appendCmd.Command.Lookup("query", "_id").ObjectID())
		assert.NotEqual(mt, y, appendCmd.Command.Lookup("query", "_id").ObjectID())

		findCmd := mt.GetStartedEvent()
		require.NotNil(mt, findCmd)
		assert.Equal(mt, "find", findCmd.CommandName)
		assert.Equal(mt, y, findCmd.Command.Lookup("filter", "_id").ObjectID())
	})

	mt.Run("missing lead", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		mt.AddMockResponses(findAndModifyReply(nil))

		_, err := repo.AppendNote(context.Background(), primitive.NewObjectID().Hex(), domain.Note{Content: "x"}, time.Now())
		assert.ErrorIs(mt, err, domain.ErrLeadNotFound)
	})

	mt.Run("malformed id never reaches the server", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)

		_, err := repo.AppendNote(context.Background(), "not-an-id", domain.Note{Content: "x"}, time.Now())
		assert.ErrorIs(mt, err, domain.ErrLeadNotFound)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestLeadRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sets supplied fields and unsets cleared ones", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		id := primitive.NewObjectID()
		at := time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)

		after := storedLead(id, "Michael Chen")
		after.Status = string(domain.StatusQualified)
		after.UpdatedAt = at
		mt.AddMockResponses(findAndModifyReply(asDoc(mt, after)))

		status := domain.StatusQualified
		p := &domain.LeadPatch{Status: &status}
		p.Clear(true, false)

		lead, err := repo.Update(context.Background(), id.Hex(), p, at)
		require.NoError(mt, err)
		assert.Equal(mt, domain.StatusQualified, lead.Status)
		assert.Nil(mt, lead.Budget)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, id, evt.Command.Lookup("query", "_id").ObjectID())

		update := evt.Command.Lookup("update").Document()
		assert.Equal(mt, "qualified", update.Lookup("$set", "status").StringValue())
		assert.True(mt, update.Lookup("$set", "updatedAt").Time().Equal(at))
		_, err = update.LookupErr("$set", "name")
		assert.Error(mt, err, "unsupplied fields must not be written")
		_, err = update.LookupErr("$unset", "budget")
		assert.NoError(mt, err)
		_, err = update.LookupErr("$unset", "expectedCloseDate")
		assert.Error(mt, err)
	})

	mt.Run("missing lead", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		mt.AddMockResponses(findAndModifyReply(nil))

		name := "Jo"
		_, err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), &domain.LeadPatch{Name: &name}, time.Now())
		assert.ErrorIs(mt, err, domain.ErrLeadNotFound)
	})
}

func TestLeadRepository_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, asDoc(mt, storedLead(id, "Emily Rodriguez"))))

		lead, err := repo.FindByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), lead.ID)
		assert.Equal(mt, "Emily Rodriguez", lead.Name)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrLeadNotFound)
	})
}

func TestLeadRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deletes exactly one document", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Delete(context.Background(), id.Hex()))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "delete", evt.CommandName)
		del := evt.Command.Lookup("deletes", "0").Document()
		assert.Equal(mt, id, del.Lookup("q", "_id").ObjectID())
		assert.EqualValues(mt, 1, del.Lookup("limit").AsInt64())
	})

	mt.Run("missing lead", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()), domain.ErrLeadNotFound)
	})
}

func TestLeadRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("filters and sorts with _id tie-breaker", func(mt *mtest.T) {
		repo := newMockLeadRepo(mt)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			asDoc(mt, storedLead(a, "Ann")),
			asDoc(mt, storedLead(b, "Bob")),
		))

		status := domain.StatusNew
		leads, err := repo.List(context.Background(), ports.ListLeadsFilter{
			Status: &status,
			Sort:   ports.LeadSort{Field: "createdAt", Desc: true},
		})
		require.NoError(mt, err)
		require.Len(mt, leads, 2)
		assert.Equal(mt, a.Hex(), leads[0].ID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "new", evt.Command.Lookup("filter", "status").StringValue())

		sortDoc := evt.Command.Lookup("sort").Document()
		elems, err := sortDoc.Elements()
		require.NoError(mt, err)
		require.Len(mt, elems, 2)
		assert.Equal(mt, "createdAt", elems[0].Key())
		assert.EqualValues(mt, -1, elems[0].Value().AsInt64())
		assert.Equal(mt, "_id", elems[1].Key())
	})
}
