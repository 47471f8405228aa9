package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Client     *mongo.Client
	Treatments *mongo.Collection
	Bookings   *mongo.Collection
	Users      *mongo.Collection
	Doctors    *mongo.Collection
	Payments   *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	db := client.Database(dbName)

	cols := &Collections{
		Client:     client,
		Treatments: db.Collection("treatments"),
		Bookings:   db.Collection("bookings"),
		Users:      db.Collection("users"),
		Doctors:    db.Collection("doctors"),
		Payments:   db.Collection("payments"),
	}

	return client, cols, nil
}

// EnsureIndexes creates the uniqueness constraints the booking and payment
// flows rely on: one booking per (treatment, date, slot), one user per email,
// one payment per transaction reference.
func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Treatments.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Bookings.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "treatment", Value: 1},
				{Key: "appointDate", Value: 1},
				{Key: "slot", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "appointDate", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "treatment", Value: 1},
				{Key: "appointDate", Value: 1},
			},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Users.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Payments.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transactionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "bookingId", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	return nil
}
