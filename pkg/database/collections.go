package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoInstance) createIndexes(ctx context.Context) {
	m.createTripsIndexes(ctx)
	m.createResourceIndexes(ctx)
}

func (m *MongoInstance) createTripsIndexes(ctx context.Context) {
	tripSlotIndexName := "TripRouteBusDateSlot"

	tripsCollection := m.GetCollection(TripsCollection)
	_, err := tripsCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Options: options.Index().SetName(tripSlotIndexName).SetUnique(true),
			Keys: bson.D{
				{Key: "routeId", Value: 1},
				{Key: "busId", Value: 1},
				{Key: "serviceDate", Value: 1},
				{Key: "startTime", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "serviceDate", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "depotId", Value: 1},
				{Key: "serviceDate", Value: 1},
			},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func (m *MongoInstance) createResourceIndexes(ctx context.Context) {
	_, err := m.GetCollection(BusesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "depotId", Value: 1}, {Key: "status", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	_, err = m.GetCollection(RoutesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "depot.depotId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "depotId", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	_, err = m.GetCollection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "isActive", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
