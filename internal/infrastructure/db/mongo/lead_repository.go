package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
)

const collectionLeads = "leads"

type LeadRepository struct {
	col *mongo.Collection
}

func NewLeadRepository(db *mongo.Database) *LeadRepository {
	return &LeadRepository{col: db.Collection(collectionLeads)}
}

type noteDoc struct {
	Content   string             `bson:"content"`
	CreatedBy primitive.ObjectID `bson:"createdBy,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type leadDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Name              string             `bson:"name"`
	Email             string             `bson:"email"`
	Phone             string             `bson:"phone,omitempty"`
	PhoneE164         string             `bson:"phoneE164,omitempty"`
	Company           string             `bson:"company,omitempty"`
	Source            string             `bson:"source"`
	Status            string             `bson:"status"`
	Message           string             `bson:"message,omitempty"`
	Budget            *float64           `bson:"budget,omitempty"`
	ExpectedCloseDate *time.Time         `bson:"expectedCloseDate,omitempty"`
	CreatedBy         primitive.ObjectID `bson:"createdBy,omitempty"`
	Notes             []noteDoc          `bson:"notes"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

// Create inserts a new lead document and sets l.ID.
func (r *LeadRepository) Create(ctx context.Context, l *domain.Lead) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toLeadDoc(l)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	l.ID = doc.ID.Hex()
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc leadDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns all leads matching f, ordered by f.Sort with _id as tie-breaker.
func (r *LeadRepository) List(ctx context.Context, f ports.ListLeadsFilter) ([]*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	dir := 1
	if f.Sort.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: f.Sort.Field, Value: dir}, {Key: "_id", Value: dir}})

	cur, err := r.col.Find(ctx, listFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer cur.Close(ctx)

	leads := []*domain.Lead{}
	for cur.Next(ctx) {
		var doc leadDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode lead: %w", err)
		}
		leads = append(leads, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// listFilter builds the query document for f. Search input is escaped so it
// always matches literally.
func listFilter(f ports.ListLeadsFilter) bson.M {
	filter := bson.M{}
	if f.Status != nil {
		filter["status"] = string(*f.Status)
	}
	if f.Source != nil {
		filter["source"] = string(*f.Source)
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"email": rx},
			bson.M{"company": rx},
		}
	}
	return filter
}

// Update sets the patched fields and updatedAt in a single FindOneAndUpdate.
func (r *LeadRepository) Update(ctx context.Context, id string, p *domain.LeadPatch, updatedAt time.Time) (*domain.Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc leadDoc
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, leadUpdate(p, updatedAt), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("update lead: %w", err)
	}
	return doc.toDomain(), nil
}

// leadUpdate builds the update document for a patch: supplied fields and
// updatedAt go to $set, cleared optional fields to $unset.
func leadUpdate(p *domain.LeadPatch, updatedAt time.Time) bson.M {
	set := patchSet(p)
	set["updatedAt"] = updatedAt.UTC()

	update := bson.M{"$set": set}
	if unset := patchUnset(p); len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func patchUnset(p *domain.LeadPatch) bson.M {
	unset := bson.M{}
	if p.ClearBudget {
		unset["budget"] = ""
	}
	if p.ClearExpectedCloseDate {
		unset["expectedCloseDate"] = ""
	}
	return unset
}

func patchSet(p *domain.LeadPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.PhoneE164 != nil {
		set["phoneE164"] = *p.PhoneE164
	}
	if p.Company != nil {
		set["company"] = *p.Company
	}
	if p.Source != nil {
		set["source"] = string(*p.Source)
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.Message != nil {
		set["message"] = *p.Message
	}
	if p.Budget != nil {
		set["budget"] = *p.Budget
	}
	if p.ExpectedCloseDate != nil {
		set["expectedCloseDate"] = p.ExpectedCloseDate.UTC()
	}
	return set
}

// Delete removes the lead document together with its embedded notes.
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrLeadNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

// AppendNote atomically pushes the note and refreshes updatedAt, so concurrent
// appends to the same lead are all kept.
func (r *LeadRepository) AppendNote(ctx context.Context, id string, note domain.Note, updatedAt time.Time) (*domain.Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc leadDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, noteUpdate(note, updatedAt), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("append note: %w", err)
	}
	return doc.toDomain(), nil
}

// noteUpdate pushes one note and refreshes updatedAt in the same update.
func noteUpdate(note domain.Note, updatedAt time.Time) bson.M {
	return bson.M{
		"$push": bson.M{"notes": toNoteDoc(note)},
		"$set":  bson.M{"updatedAt": updatedAt.UTC()},
	}
}

func (r *LeadRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *LeadRepository) CountByStatus(ctx context.Context, status domain.LeadStatus) (int64, error) {
	return r.count(ctx, bson.M{"status": string(status)})
}

func (r *LeadRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, bson.M{"createdAt": bson.M{"$gte": since.UTC()}})
}

func (r *LeadRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

// GroupBySource counts leads per source, largest group first and ties by name.
func (r *LeadRepository) GroupBySource(ctx context.Context) ([]domain.GroupCount, error) {
	return r.groupBy(ctx, "source")
}

// GroupByStatus counts leads per status, largest group first and ties by name.
func (r *LeadRepository) GroupByStatus(ctx context.Context) ([]domain.GroupCount, error) {
	return r.groupBy(ctx, "status")
}

func (r *LeadRepository) groupBy(ctx context.Context, field string) ([]domain.GroupCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, groupPipeline(field))
	if err != nil {
		return nil, fmt.Errorf("group leads by %s: %w", field, err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s groups: %w", field, err)
	}

	out := make([]domain.GroupCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.GroupCount{Key: row.ID, Count: row.Count})
	}
	return out, nil
}

func groupPipeline(field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

// DeleteAll empties the collection. Used by the seed command.
func (r *LeadRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}

// EnsureIndexes creates the indexes backing list filters, sorting and analytics.
func (r *LeadRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "source", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func toLeadDoc(l *domain.Lead) leadDoc {
	doc := leadDoc{
		Name:              l.Name,
		Email:             l.Email,
		Phone:             l.Phone,
		PhoneE164:         l.PhoneE164,
		Company:           l.Company,
		Source:            string(l.Source),
		Status:            string(l.Status),
		Message:           l.Message,
		Budget:            l.Budget,
		ExpectedCloseDate: l.ExpectedCloseDate,
		CreatedBy:         objectIDOrNil(l.CreatedBy.ID),
		Notes:             make([]noteDoc, 0, len(l.Notes)),
		CreatedAt:         l.CreatedAt.UTC(),
		UpdatedAt:         l.UpdatedAt.UTC(),
	}
	for _, n := range l.Notes {
		doc.Notes = append(doc.Notes, toNoteDoc(n))
	}
	return doc
}

func toNoteDoc(n domain.Note) noteDoc {
	return noteDoc{
		Content:   n.Content,
		CreatedBy: objectIDOrNil(n.CreatedBy.ID),
		CreatedAt: n.CreatedAt.UTC(),
	}
}

func (d leadDoc) toDomain() *domain.Lead {
	l := &domain.Lead{
		ID:                d.ID.Hex(),
		Name:              d.Name,
		Email:             d.Email,
		Phone:             d.Phone,
		PhoneE164:         d.PhoneE164,
		Company:           d.Company,
		Source:            domain.LeadSource(d.Source),
		Status:            domain.LeadStatus(d.Status),
		Message:           d.Message,
		Budget:            d.Budget,
		ExpectedCloseDate: d.ExpectedCloseDate,
		CreatedBy:         userRef(d.CreatedBy),
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
		Notes:             make([]domain.Note, 0, len(d.Notes)),
	}
	for _, n := range d.Notes {
		l.Notes = append(l.Notes, domain.Note{
			Content:   n.Content,
			CreatedBy: userRef(n.CreatedBy),
			CreatedAt: n.CreatedAt.UTC(),
		})
	}
	return l
}

func objectIDOrNil(hex string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

func userRef(oid primitive.ObjectID) domain.UserRef {
	if oid.IsZero() {
		return domain.UserRef{}
	}
	return domain.UserRef{ID: oid.Hex()}
}
