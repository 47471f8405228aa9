package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/harunrashid4419/doctors-portal-server/internal/httpx"
	"github.com/harunrashid4419/doctors-portal-server/internal/models"
	"github.com/harunrashid4419/doctors-portal-server/internal/transport"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type tokenQuery struct {
	Email string `validate:"required,email"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// IssueToken answers GET /jwt?email=. Only registered emails get a token;
// everyone else receives an explicit empty credential, not an error body
// that would leak why.
func (s *Server) IssueToken(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	q := tokenQuery{Email: r.URL.Query().Get("email")}
	if err := s.Val.Struct(q); err != nil {
		log.Warn("jwt: invalid query")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	if s.JWT == nil {
		log.Warn("jwt: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := s.Cols.Users.FindOne(ctx, bson.M{"email": q.Email}).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("jwt: not registered", slog.String("email", q.Email))
			transport.WriteJSON(w, http.StatusForbidden, TokenResponse{AccessToken: ""})
			return
		}
		log.Error("jwt: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	token, err := s.JWT.Issue(q.Email)
	if err != nil {
		log.Error("jwt: sign error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}

	log.Info("jwt: issued", slog.String("email", q.Email))
	transport.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// CreateUser registers an identity. Registration is idempotent on email:
// the account is created on first sight and repeat posts acknowledge
// without touching the stored role.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("users create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := s.Val.Struct(req); err != nil {
		log.Warn("users create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.Cols.Users.UpdateOne(ctx,
		bson.M{"email": req.Email},
		bson.M{"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"name":      req.Name,
			"email":     req.Email,
			"createdAt": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Error("users create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	insertedID := ""
	if id, ok := res.UpsertedID.(string); ok {
		insertedID = id
	}

	log.Info("users create: ok", slog.String("email", req.Email), slog.Bool("created", insertedID != ""))
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"acknowledged": true,
		"insertedId":   insertedID,
	})
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 100, 500)
	if err != nil {
		log.Warn("users list: invalid pagination")
		transport.WriteError(w, http.StatusBadRequest, "invalid pagination", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := s.Cols.Users.Find(ctx, bson.M{}, options.Find().SetLimit(limit).SetSkip(offset))
	if err != nil {
		log.Error("users list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		log.Error("users list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, users)
}

// CheckAdmin answers GET /users/admin/{email}; an unknown email is simply
// not an admin.
func (s *Server) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	email := chi.URLParam(r, "email")
	if email == "" {
		log.Warn("users admin check: missing email")
		transport.WriteError(w, http.StatusBadRequest, "missing email", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := s.Cols.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil && err != mongo.ErrNoDocuments {
		log.Error("users admin check: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]bool{
		"isAdmin": user.Role == models.UserRoleAdmin,
	})
}

// PromoteAdmin answers PUT /users/admin/{id}; the route is guarded by
// RequireAuth + RequireAdmin, so only a stored admin reaches it.
func (s *Server) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		log.Warn("users promote: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.Cols.Users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": models.UserRoleAdmin}},
	)
	if err != nil {
		log.Error("users promote: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if res.MatchedCount == 0 {
		log.Warn("users promote: not found", slog.String("user_id", id))
		transport.WriteError(w, http.StatusNotFound, "user not found", nil)
		return
	}

	log.Info("users promote: ok", slog.String("user_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"acknowledged":  true,
		"modifiedCount": res.ModifiedCount,
	})
}
