// server/internal/database/seeder.go
package database

import (
	"context"
	"log"

	"pipeyard-storage-api-server/internal/auth"
	"pipeyard-storage-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func SeedAdmin(db *mongo.Database) error {
	userCollection := db.Collection("users")
	adminEmail := "admin@pipeyard.local"

	// Kiểm tra xem admin đã tồn tại chưa
	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": adminEmail})
	if err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin already exists. Seeding skipped.")
		return nil
	}

	// Tạo admin nếu chưa có
	log.Println("Admin not found. Seeding...")
	hashedPassword, err := auth.HashPassword("adminpassword") // Đặt một password mặc định
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        adminEmail,
		Name:         "Yard Admin",
		Password:     hashedPassword,
		Role:         "admin",
		CompanyID:    "system",
		Status:       "ACTIVE",
		EnrollmentID: "admin-00000000",
	}

	_, err = userCollection.InsertOne(context.Background(), admin)
	if err != nil {
		return err
	}

	log.Println("Admin seeded successfully.")
	return nil
}
