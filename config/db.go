package config

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"civicengine-be/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	db     *mongo.Database
	client *mongo.Client
	once   sync.Once
)

// ConnectDB initializes and returns a MongoDB database connection.
// An unreachable server at startup is not fatal: the client retries on use,
// so the process stays up and serves requests that fail until connectivity
// returns.
func ConnectDB() *mongo.Database {
	once.Do(func() {
		mongoURI := os.Getenv("MONGODB_URI")
		if mongoURI == "" {
			log.Fatal("Please define the MONGODB_URI environment variable")
		}

		dbName := os.Getenv("MONGODB_DB")
		if dbName == "" {
			dbName = "civicengine"
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.NewClient(options.Client().ApplyURI(mongoURI))
		if err != nil {
			log.Fatalf("Failed to create MongoDB client: %v", err)
		}

		if err := c.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}

		if err := c.Ping(ctx, nil); err != nil {
			log.Printf("MongoDB not reachable yet, continuing anyway: %v", err)
		} else {
			log.Println("Connected to MongoDB!")
		}

		client = c
		db = client.Database(dbName)
	})

	return db
}

// GetCollection returns a MongoDB collection by name
func GetCollection(name string) *mongo.Collection {
	return ConnectDB().Collection(name)
}

// EnsureIndexes creates the indexes the collections rely on: the unique
// email, the unique (issue, user) upvote pair, the unique department name
// and the 2dsphere index for near-queries. Best effort at startup.
func EnsureIndexes() {
	if err := models.EnsureUserIndex(GetCollection("users")); err != nil {
		log.Printf("Failed to create user index: %v", err)
	}
	if err := models.EnsureIssueIndexes(GetCollection("issues")); err != nil {
		log.Printf("Failed to create issue indexes: %v", err)
	}
	if err := models.EnsureUpvoteIndex(GetCollection("upvotes")); err != nil {
		log.Printf("Failed to create upvote index: %v", err)
	}
	if err := models.EnsureDepartmentIndex(GetCollection("departments")); err != nil {
		log.Printf("Failed to create department index: %v", err)
	}
}
