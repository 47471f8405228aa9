package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/harunrashid4419/doctors-portal-server/internal/config"
	"github.com/harunrashid4419/doctors-portal-server/internal/db"
	"github.com/harunrashid4419/doctors-portal-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var defaultSlots = []string{
	"08:00 AM - 08:30 AM",
	"08:30 AM - 09:00 AM",
	"09:00 AM - 09:30 AM",
	"09:30 AM - 10:00 AM",
	"10:00 AM - 10:30 AM",
	"10:30 AM - 11:00 AM",
	"11:00 AM - 11:30 AM",
	"02:00 PM - 02:30 PM",
	"02:30 PM - 03:00 PM",
	"03:00 PM - 03:30 PM",
	"03:30 PM - 04:00 PM",
	"04:00 PM - 04:30 PM",
}

type seedTreatment struct {
	Name  string
	Price int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	treatments := []seedTreatment{
		{Name: "Teeth Orthodontics", Price: 100},
		{Name: "Cosmetic Dentistry", Price: 300},
		{Name: "Teeth Cleaning", Price: 80},
		{Name: "Cavity Protection", Price: 150},
		{Name: "Pediatric Dental Care", Price: 120},
		{Name: "Oral Surgery", Price: 500},
	}

	for _, t := range treatments {
		_, err := cols.Treatments.UpdateOne(ctx,
			bson.M{"name": t.Name},
			bson.M{"$setOnInsert": bson.M{
				"_id":   primitive.NewObjectID().Hex(),
				"name":  t.Name,
				"price": t.Price,
				"slots": defaultSlots,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			log.Fatalf("seed treatment %s: %v", t.Name, err)
		}
	}
	log.Printf("seeded %d treatments", len(treatments))

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		log.Print("ADMIN_EMAIL not set, skipping admin user")
		return
	}

	_, err = cols.Users.UpdateOne(ctx,
		bson.M{"email": adminEmail},
		bson.M{
			"$set": bson.M{"role": models.UserRoleAdmin},
			"$setOnInsert": bson.M{
				"_id":       primitive.NewObjectID().Hex(),
				"name":      "Administrator",
				"email":     adminEmail,
				"createdAt": time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Fatalf("seed admin user: %v", err)
	}
	log.Printf("admin user ensured: %s", adminEmail)
}
