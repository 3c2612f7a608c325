package scheduler

import (
	"context"
	"errors"

	"github.com/travigo/tripscheduler/pkg/database"
	"github.com/travigo/tripscheduler/pkg/fleet"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	Instance *database.MongoInstance
}

func NewMongoStore(instance *database.MongoInstance) *MongoStore {
	return &MongoStore{Instance: instance}
}

func idsFilter(query bson.M, field string, ids []primitive.ObjectID) bson.M {
	if len(ids) > 0 {
		query[field] = bson.M{"$in": ids}
	}
	return query
}

func findAll[T any](ctx context.Context, collection *mongo.Collection, query bson.M) ([]T, error) {
	cursor, err := collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	return results, cursor.Err()
}

func (m *MongoStore) FindDepots(ctx context.Context, ids []primitive.ObjectID) ([]fleet.Depot, error) {
	query := idsFilter(bson.M{"isActive": true}, "_id", ids)
	return findAll[fleet.Depot](ctx, m.Instance.GetCollection(database.DepotsCollection), query)
}

func (m *MongoStore) FindRoutes(ctx context.Context, ids []primitive.ObjectID) ([]fleet.Route, error) {
	query := idsFilter(bson.M{"status": "active"}, "_id", ids)
	return findAll[fleet.Route](ctx, m.Instance.GetCollection(database.RoutesCollection), query)
}

func (m *MongoStore) FindBuses(ctx context.Context, statuses []fleet.BusStatus, ids []primitive.ObjectID) ([]fleet.Bus, error) {
	query := idsFilter(bson.M{}, "_id", ids)
	if len(statuses) > 0 {
		query["status"] = bson.M{"$in": statuses}
	}
	return findAll[fleet.Bus](ctx, m.Instance.GetCollection(database.BusesCollection), query)
}

func (m *MongoStore) FindCrew(ctx context.Context, role fleet.CrewRole) ([]fleet.CrewMember, error) {
	query := bson.M{
		"role": role,
		"$or": bson.A{
			bson.M{"isActive": true},
			bson.M{"status": "active"},
		},
	}
	return findAll[fleet.CrewMember](ctx, m.Instance.GetCollection(database.UsersCollection), query)
}

func tripFilter(query TripQuery) bson.M {
	filter := bson.M{}

	dateRange := bson.M{}
	if query.From != nil {
		dateRange["$gte"] = *query.From
	}
	if query.To != nil {
		dateRange["$lt"] = *query.To
	}
	if len(dateRange) > 0 {
		filter["serviceDate"] = dateRange
	}
	if query.Status != "" {
		filter["status"] = query.Status
	}

	scopeFilter(filter, "depotId", query.DepotIDs)
	scopeFilter(filter, "routeId", query.RouteIDs)
	scopeFilter(filter, "busId", query.BusIDs)

	return filter
}

// scopeFilter restricts field to ids unless ids is nil; an empty $in matches nothing
func scopeFilter(filter bson.M, field string, ids []primitive.ObjectID) {
	if ids != nil {
		filter[field] = bson.M{"$in": ids}
	}
}

func (m *MongoStore) InsertTrips(ctx context.Context, trips []fleet.Trip) (int, []RecordError, error) {
	if len(trips) == 0 {
		return 0, nil, nil
	}

	operations := make([]mongo.WriteModel, 0, len(trips))
	for i := range trips {
		operations = append(operations, mongo.NewInsertOneModel().SetDocument(trips[i]))
	}

	collection := m.Instance.GetCollection(database.TripsCollection)
	result, err := collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false))

	inserted := 0
	if result != nil {
		inserted = int(result.InsertedCount)
	}

	if err == nil {
		return inserted, nil, nil
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) && len(bulkErr.WriteErrors) > 0 {
		recordErrors := make([]RecordError, 0, len(bulkErr.WriteErrors))
		for _, writeErr := range bulkErr.WriteErrors {
			recordErrors = append(recordErrors, RecordError{
				Index:   writeErr.Index,
				Code:    writeErr.Code,
				Message: writeErr.Message,
			})
		}
		return inserted, recordErrors, nil
	}

	return inserted, nil, err
}

func (m *MongoStore) DeleteTrips(ctx context.Context, query TripQuery) (int64, error) {
	result, err := m.Instance.GetCollection(database.TripsCollection).DeleteMany(ctx, tripFilter(query))
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

func (m *MongoStore) CountTrips(ctx context.Context, query TripQuery) (int64, error) {
	return m.Instance.GetCollection(database.TripsCollection).CountDocuments(ctx, tripFilter(query))
}

func (m *MongoStore) FindTrips(ctx context.Context, query TripQuery) ([]fleet.Trip, error) {
	cursor, err := m.Instance.GetCollection(database.TripsCollection).Find(
		ctx,
		tripFilter(query),
		options.Find().SetSort(bson.D{{Key: "serviceDate", Value: 1}, {Key: "startTime", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	trips := []fleet.Trip{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}

	return trips, nil
}

func (m *MongoStore) ExistingTripKeys(ctx context.Context, query TripQuery) (map[string]struct{}, error) {
	cursor, err := m.Instance.GetCollection(database.TripsCollection).Find(
		ctx,
		tripFilter(query),
		options.Find().SetProjection(bson.M{"routeId": 1, "serviceDate": 1, "startTime": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	keys := map[string]struct{}{}
	for cursor.Next(ctx) {
		var trip fleet.Trip
		if err := cursor.Decode(&trip); err != nil {
			return nil, err
		}
		keys[trip.DedupKey()] = struct{}{}
	}

	return keys, cursor.Err()
}
