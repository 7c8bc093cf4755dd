// Package mongo stores donor profiles in MongoDB, using a 2dsphere index on
// the GeoJSON location for radius queries.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
	"bloodzy/backend/store"
)

var _ store.DonorStore = (*DonorStore)(nil)

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

type donorDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID      int64              `bson:"ownerId"`
	BloodGroup   string             `bson:"bloodGroup"`
	Age          int                `bson:"age"`
	Gender       string             `bson:"gender"`
	Phone        string             `bson:"phone"`
	City         string             `bson:"city"`
	Available    bool               `bson:"available"`
	Location     bson.RawValue      `bson:"location,omitempty"`
	LastDonation *time.Time         `bson:"lastDonation,omitempty"`
	Health       *models.HealthInfo `bson:"health,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// DonorStore is a store.DonorStore over a single collection.
type DonorStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewDonorStore wraps coll. Call EnsureIndexes once at startup.
func NewDonorStore(coll *mongo.Collection) *DonorStore {
	return &DonorStore{coll: coll, now: time.Now}
}

// EnsureIndexes creates the unique owner index and the 2dsphere location
// index.
func (s *DonorStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("owner_unique")},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetName("location_2dsphere")},
		{Keys: bson.D{{Key: "bloodGroup", Value: 1}, {Key: "city", Value: 1}}, Options: options.Index().SetName("group_city")},
	})
	if err != nil {
		return fmt.Errorf("create donor indexes: %w", err)
	}
	return nil
}

// Ping checks the connection behind the collection.
func (s *DonorStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

// listSort orders non-geospatial queries before the limit is applied, matching
// the order search results are returned in.
var listSort = bson.D{{Key: "available", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "ownerId", Value: 1}}

func (s *DonorStore) Find(ctx context.Context, q store.DonorQuery) ([]models.DonorProfile, error) {
	opts := options.Find().SetLimit(int64(store.ClampLimit(q.Limit, store.MaxResults)))
	// $near sorts by distance itself and rejects an explicit sort.
	if !nearQuery(q) {
		opts.SetSort(listSort)
	}

	cur, err := s.coll.Find(ctx, buildFilter(q), opts)
	if err != nil {
		return nil, models.NewStoreError("find donors", err)
	}
	var docs []donorDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, models.NewStoreError("decode donors", err)
	}

	out := make([]models.DonorProfile, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.profile())
	}
	return out, nil
}

func (s *DonorStore) Get(ctx context.Context, ownerID int64) (models.DonorProfile, error) {
	var doc donorDocument
	err := s.coll.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DonorProfile{}, notFound(ownerID)
	}
	if err != nil {
		return models.DonorProfile{}, models.NewStoreError("get donor", err)
	}
	return doc.profile(), nil
}

func (s *DonorStore) Insert(ctx context.Context, p models.DonorProfile) (models.DonorProfile, error) {
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	doc, err := newDocument(p)
	if err != nil {
		return models.DonorProfile{}, err
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return models.DonorProfile{}, models.ErrAlreadyRegistered
	}
	if err != nil {
		return models.DonorProfile{}, models.NewStoreError("insert donor", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.profile(), nil
}

func (s *DonorStore) Update(ctx context.Context, ownerID int64, u models.DonorUpdate) (models.DonorProfile, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc donorDocument
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"ownerId": ownerID}, updateDocument(u, s.now().UTC()), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DonorProfile{}, notFound(ownerID)
	}
	if err != nil {
		return models.DonorProfile{}, models.NewStoreError("update donor", err)
	}
	return doc.profile(), nil
}

func (s *DonorStore) Delete(ctx context.Context, ownerID int64) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return models.NewStoreError("delete donor", err)
	}
	if res.DeletedCount == 0 {
		return notFound(ownerID)
	}
	return nil
}

func nearQuery(q store.DonorQuery) bool {
	return q.Near != nil && q.RadiusKm > 0
}

// buildFilter translates q into a find filter. City matching is a
// case-insensitive substring match on the quoted input.
func buildFilter(q store.DonorQuery) bson.M {
	filter := bson.M{}
	if q.BloodGroup != "" {
		filter["bloodGroup"] = string(q.BloodGroup)
	}
	if city := strings.TrimSpace(q.City); city != "" {
		filter["city"] = primitive.Regex{Pattern: regexp.QuoteMeta(city), Options: "i"}
	}
	if q.OnlyAvailable {
		filter["available"] = true
	}
	if nearQuery(q) {
		filter["location"] = bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{q.Near.Lng, q.Near.Lat},
				},
				"$maxDistance": geo.KmToMeters(q.RadiusKm),
			},
		}
	}
	return filter
}

// updateFields builds the $set document for u. Locations are always written
// as GeoJSON [lng, lat].
func updateDocument(u models.DonorUpdate, now time.Time) bson.M {
	doc := bson.M{"$set": updateFields(u, now)}
	if u.LastDonationDate == nil && u.ClearLastDonationDate {
		doc["$unset"] = bson.M{"lastDonation": ""}
	}
	return doc
}

func updateFields(u models.DonorUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.BloodGroup != nil {
		set["bloodGroup"] = string(*u.BloodGroup)
	}
	if u.Age != nil {
		set["age"] = *u.Age
	}
	if u.Gender != nil {
		set["gender"] = string(*u.Gender)
	}
	if u.Phone != nil {
		set["phone"] = *u.Phone
	}
	if u.City != nil {
		set["city"] = *u.City
	}
	if u.Available != nil {
		set["available"] = *u.Available
	}
	if u.Location != nil {
		set["location"] = geo.ToGeoJSON(*u.Location)
	}
	if u.LastDonationDate != nil {
		set["lastDonation"] = u.LastDonationDate.UTC()
	}
	if u.Health != nil {
		set["health"] = u.Health
	}
	return set
}

func newDocument(p models.DonorProfile) (donorDocument, error) {
	doc := donorDocument{
		OwnerID:      p.OwnerID,
		BloodGroup:   string(p.BloodGroup),
		Age:          p.Age,
		Gender:       string(p.Gender),
		Phone:        p.Phone,
		City:         p.City,
		Available:    p.Available,
		LastDonation: p.LastDonationDate,
		Health:       p.Health,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if pt, ok := geo.Normalize(p.Location); ok {
		t, data, err := bson.MarshalValue(geo.ToGeoJSON(pt))
		if err != nil {
			return donorDocument{}, fmt.Errorf("encode location: %w", err)
		}
		doc.Location = bson.RawValue{Type: t, Value: data}
	}
	return doc, nil
}

func (d donorDocument) profile() models.DonorProfile {
	p := models.DonorProfile{
		OwnerID:          d.OwnerID,
		BloodGroup:       models.BloodGroup(d.BloodGroup),
		Age:              d.Age,
		Gender:           models.Gender(d.Gender),
		Phone:            d.Phone,
		City:             d.City,
		Available:        d.Available,
		Location:         decodeLocation(d.Location),
		LastDonationDate: d.LastDonation,
		Health:           d.Health,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if !d.ID.IsZero() {
		p.ID = d.ID.Hex()
	}
	return p
}

// decodeLocation hands a stored location to the normalizer. Older records may
// hold an embedded document in any of the accepted shapes, or a JSON string.
func decodeLocation(v bson.RawValue) geo.LocationInput {
	switch v.Type {
	case bsontype.EmbeddedDocument:
		ext, err := bson.MarshalExtJSON(v.Document(), false, false)
		if err != nil {
			return nil
		}
		return geo.ParseLocation(ext)
	case bsontype.String:
		return geo.RawLocation(v.StringValue())
	default:
		return nil
	}
}

func notFound(ownerID int64) error {
	return &models.NotFoundError{Resource: "donor", Key: strconv.FormatInt(ownerID, 10)}
}
