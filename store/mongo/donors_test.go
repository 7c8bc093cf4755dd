package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
	"bloodzy/backend/store"
)

func TestBuildFilterEmpty(t *testing.T) {
	assert.Empty(t, buildFilter(store.DonorQuery{}))
}

func TestBuildFilterNear(t *testing.T) {
	near := geo.Point{Lat: 31.52, Lng: 74.35}
	f := buildFilter(store.DonorQuery{
		BloodGroup:    models.ABNegative,
		City:          "St. Louis",
		Near:          &near,
		RadiusKm:      5,
		OnlyAvailable: true,
	})

	assert.Equal(t, "AB-", f["bloodGroup"])
	assert.Equal(t, primitive.Regex{Pattern: `St\. Louis`, Options: "i"}, f["city"])
	assert.Equal(t, true, f["available"])

	loc, ok := f["location"].(bson.M)
	require.True(t, ok)
	n := loc["$near"].(bson.M)
	assert.Equal(t, 5000.0, n["$maxDistance"])
	g := n["$geometry"].(bson.M)
	assert.Equal(t, bson.A{74.35, 31.52}, g["coordinates"], "GeoJSON order is [lng, lat]")
}

func TestBuildFilterIgnoresRadiusWithoutCenter(t *testing.T) {
	f := buildFilter(store.DonorQuery{RadiusKm: 10})
	assert.NotContains(t, f, "location")
}

func TestUpdateFields(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	avail := false
	loc := geo.Point{Lat: 10, Lng: 20}

	set := updateFields(models.DonorUpdate{Available: &avail, Location: &loc}, now)
	assert.Equal(t, now, set["updatedAt"])
	assert.Equal(t, false, set["available"])
	assert.Equal(t, geo.GeoJSONPoint{Type: "Point", Coordinates: []float64{20, 10}}, set["location"])
	assert.NotContains(t, set, "phone")
}

func TestDocumentRoundTripKeepsLocation(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	doc, err := newDocument(models.DonorProfile{
		OwnerID:    3,
		BloodGroup: models.OPositive,
		Age:        33,
		Gender:     models.Other,
		Phone:      "0321",
		City:       "Quetta",
		Available:  true,
		Location:   geo.LatLng{Lat: 30.18, Lng: 66.97},
		CreatedAt:  created,
	})
	require.NoError(t, err)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded donorDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	p := decoded.profile()
	pt, ok := geo.Normalize(p.Location)
	require.True(t, ok)
	assert.InDelta(t, 30.18, pt.Lat, 1e-9)
	assert.InDelta(t, 66.97, pt.Lng, 1e-9)
	assert.Equal(t, models.OPositive, p.BloodGroup)
	assert.Equal(t, created, p.CreatedAt)
}

func TestDecodeLocationLegacyShapes(t *testing.T) {
	cases := []struct {
		name string
		doc  bson.M
	}{
		{"geojson", bson.M{"location": bson.M{"type": "Point", "coordinates": bson.A{74.3, 31.5}}}},
		{"lat lng", bson.M{"location": bson.M{"lat": 31.5, "lng": 74.3}}},
		{"latitude longitude", bson.M{"location": bson.M{"latitude": 31.5, "longitude": 74.3}}},
		{"json string", bson.M{"location": `{"lat":31.5,"lng":74.3}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := bson.Marshal(tc.doc)
			require.NoError(t, err)
			pt, ok := geo.Normalize(decodeLocation(bson.Raw(raw).Lookup("location")))
			require.True(t, ok)
			assert.InDelta(t, 31.5, pt.Lat, 1e-9)
			assert.InDelta(t, 74.3, pt.Lng, 1e-9)
		})
	}
}

func TestDecodeLocationMissing(t *testing.T) {
	assert.Nil(t, decodeLocation(bson.RawValue{}))
}

func TestListSortMatchesResultOrder(t *testing.T) {
	require.Len(t, listSort, 3)
	assert.Equal(t, bson.E{Key: "available", Value: -1}, listSort[0])
	assert.Equal(t, bson.E{Key: "createdAt", Value: -1}, listSort[1])
	assert.Equal(t, bson.E{Key: "ownerId", Value: 1}, listSort[2])
}

func TestUpdateDocumentUnsetsLastDonation(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	doc := updateDocument(models.DonorUpdate{ClearLastDonationDate: true}, now)
	assert.Equal(t, bson.M{"lastDonation": ""}, doc["$unset"])

	last := now.AddDate(0, -1, 0)
	doc = updateDocument(models.DonorUpdate{LastDonationDate: &last, ClearLastDonationDate: true}, now)
	assert.NotContains(t, doc, "$unset")
	assert.Equal(t, last, doc["$set"].(bson.M)["lastDonation"])
}
