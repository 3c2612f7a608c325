package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/util"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

const defaultMongoConnectionString = "mongodb://localhost:27017/"
const defaultMongoDatabase = "yatrik"

const (
	DepotsCollection = "depots"
	RoutesCollection = "routes"
	BusesCollection  = "buses"
	UsersCollection  = "users"
	TripsCollection  = "trips"
)

func Connect(ctx context.Context) (*MongoInstance, error) {
	connectionString := defaultMongoConnectionString
	dbName := defaultMongoDatabase

	env := util.GetEnvironmentVariables()

	if env["TRIPSCHEDULER_MONGODB_CONNECTION"] != "" {
		connectionString = env["TRIPSCHEDULER_MONGODB_CONNECTION"]
	}

	if env["TRIPSCHEDULER_MONGODB_DATABASE"] != "" {
		dbName = env["TRIPSCHEDULER_MONGODB_DATABASE"]
	}

	return ConnectWith(ctx, connectionString, dbName)
}

func ConnectWith(ctx context.Context, connectionString string, dbName string) (*MongoInstance, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, err
	}

	err = client.Ping(connectCtx, nil)
	if err != nil {
		return nil, err
	}

	instance := &MongoInstance{
		Client:   client,
		Database: client.Database(dbName),
	}

	instance.createIndexes(ctx)

	log.Info().Str("database", dbName).Msg("Connected to MongoDB")

	return instance, nil
}

func (m *MongoInstance) GetCollection(collectionName string) *mongo.Collection {
	return m.Database.Collection(collectionName)
}

func (m *MongoInstance) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
