package controllers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/middleware"
	"storefront/utils"
)

// error kinds carried in every error body alongside the human message
const (
	errValidation = "validation"
	errNotFound   = "not_found"
	errAuth       = "auth"
	errMismatch   = "intent_mismatch"
	errPayment    = "payment_failed"
	errGateway    = "gateway"
	errServer     = "server"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

// currentUser pulls the authenticated user's claims and id out of the
// request context. Writes a 401 and returns false when they are absent.
func currentUser(w http.ResponseWriter, r *http.Request) (*utils.Claims, primitive.ObjectID, bool) {
	claims, ok := r.Context().Value(middleware.UserContextKey).(*utils.Claims)
	if !ok {
		writeError(w, http.StatusUnauthorized, errAuth, "Unauthorized")
		return nil, primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errAuth, "Invalid user id in token")
		return nil, primitive.NilObjectID, false
	}
	return claims, userID, true
}
