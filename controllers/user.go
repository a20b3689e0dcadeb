package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"storefront/models"
	"storefront/utils"
)

// UserController handles registration, login and profile requests
type UserController struct {
	Collection *mongo.Collection
}

// NewUserController creates a new UserController
func NewUserController(client *mongo.Client) *UserController {
	return &UserController{
		Collection: client.Database("storefront").Collection("users"),
	}
}

// strongPassword requires 8+ characters with upper, lower, digit and symbol.
func strongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// Register handles user registration. The first account ever created is
// promoted to admin (bootstrap rule).
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Phone           string `json:"phone"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		AvatarURL       string `json:"avatarUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid input")
		return
	}
	if input.Username == "" || input.Email == "" || input.Phone == "" {
		writeError(w, http.StatusBadRequest, errValidation, "username, email and phone are required")
		return
	}
	if !strongPassword(input.Password) {
		writeError(w, http.StatusBadRequest, errValidation, "password must be 8+ chars and include upper, lower, number, symbol")
		return
	}
	if input.ConfirmPassword != "" && input.ConfirmPassword != input.Password {
		writeError(w, http.StatusBadRequest, errValidation, "confirmPassword must match password")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := uc.Collection.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Database error")
		return
	}
	if count > 0 {
		writeError(w, http.StatusConflict, errValidation, "Email already exists")
		return
	}
	count, err = uc.Collection.CountDocuments(ctx, bson.M{"phone": input.Phone})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Database error")
		return
	}
	if count > 0 {
		writeError(w, http.StatusConflict, errValidation, "Phone number already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error hashing password")
		return
	}

	// First registered account becomes the admin.
	total, err := uc.Collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Database error")
		return
	}
	role := "user"
	if total == 0 {
		role = "admin"
	}

	now := time.Now()
	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		AvatarURL:    input.AvatarURL,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	result, err := uc.Collection.InsertOne(ctx, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error creating user")
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error generating token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user.PublicView(),
	})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := uc.Collection.FindOne(ctx, bson.M{"email": creds.Email}).Decode(&user)
	if err != nil {
		// Same message for a missing user and a wrong password.
		writeError(w, http.StatusUnauthorized, errAuth, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, errAuth, "Invalid credentials")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error generating token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.PublicView(),
	})
}

// AdminLogin authenticates against the env-configured operator credentials
// and upserts the backing admin account.
func (uc *UserController) AdminLogin(w http.ResponseWriter, r *http.Request) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		writeError(w, http.StatusUnauthorized, errAuth, "Admin login is not configured")
		return
	}

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid input")
		return
	}
	if creds.Email != adminEmail || creds.Password != adminPassword {
		writeError(w, http.StatusUnauthorized, errAuth, "Invalid admin credentials")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := uc.Collection.FindOne(ctx, bson.M{"email": adminEmail}).Decode(&user)
	if err != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, errServer, "Error hashing password")
			return
		}
		now := time.Now()
		user = models.User{
			Username:     "Admin",
			Email:        adminEmail,
			Phone:        "admin",
			PasswordHash: string(hash),
			Role:         "admin",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		result, err := uc.Collection.InsertOne(ctx, user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, errServer, "Error creating admin user")
			return
		}
		user.ID = result.InsertedID.(primitive.ObjectID)
	} else if user.Role != "admin" {
		_, err = uc.Collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
			"$set": bson.M{"role": "admin", "updated_at": time.Now()},
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, errServer, "Error promoting admin user")
			return
		}
		user.Role = "admin"
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error generating token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.PublicView(),
	})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := uc.Collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		writeError(w, http.StatusNotFound, errNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
