package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/pkg/models"
)

// Recommender is the service surface the RPC handlers translate to.
type Recommender interface {
	RecommendForUser(ctx context.Context, userID int64) ([]models.RecItem, error)
	SetUserDescription(ctx context.Context, userID int64, description string) bool
}

// RPC decodes request bodies from the bus and encodes replies. A
// malformed body yields an error so the transport drops the message
// without replying.
type RPC struct {
	recommendation Recommender
	logger         *logrus.Logger
}

func NewRPC(recommendation Recommender, logger *logrus.Logger) *RPC {
	return &RPC{
		recommendation: recommendation,
		logger:         logger,
	}
}

type recommendByUserRequest struct {
	UserID *int64 `json:"user_id"`
}

type setUserDescriptionRequest struct {
	UserID      *int64  `json:"user_id"`
	Description *string `json:"description"`
}

type statusResponse struct {
	Status bool `json:"status"`
}

// RecommendByUser serves recommendations.requests.by_user. The reply is
// the JSON recommendation list; internal failures degrade to an empty
// list rather than an error reply.
func (h *RPC) RecommendByUser(ctx context.Context, body []byte) ([]byte, error) {
	var req recommendByUserRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if req.UserID == nil {
		return nil, fmt.Errorf("request is missing user_id")
	}

	recommendation, err := h.recommendation.RecommendForUser(ctx, *req.UserID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", *req.UserID).Error("Recommendation failed, replying with empty list")
		recommendation = nil
	}
	if recommendation == nil {
		recommendation = []models.RecItem{}
	}

	return json.Marshal(recommendation)
}

// SetUserDescription serves resonanse_api.requests.set_user_description.
func (h *RPC) SetUserDescription(ctx context.Context, body []byte) ([]byte, error) {
	var req setUserDescriptionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if req.UserID == nil || req.Description == nil {
		return nil, fmt.Errorf("request is missing user_id or description")
	}

	status := h.recommendation.SetUserDescription(ctx, *req.UserID, *req.Description)
	return json.Marshal(statusResponse{Status: status})
}
