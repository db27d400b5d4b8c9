// Package zone surfaces disaster risk zone predictions for officials.
package zone

import (
	"context"
	"time"

	"github.com/siren-bd/platform/internal/shared/types"
)

// RiskLevel grades a predicted zone
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
	RiskSevere RiskLevel = "severe"
)

// Zone is a geographic area with an assessed disaster risk
type Zone struct {
	Name           string            `json:"name"`
	Center         types.Coordinates `json:"center"`
	RadiusKm       float64           `json:"radiusKm"`
	RiskLevel      RiskLevel         `json:"riskLevel"`
	Score          float64           `json:"score"`
	ActiveRequests int               `json:"activeRequests"`
	DominantType   string            `json:"dominantType,omitempty"`
}

// PredictionResponse is the full prediction set returned to callers
type PredictionResponse struct {
	GeneratedAt time.Time `json:"generatedAt"`
	ModelUsed   string    `json:"modelUsed"`
	Zones       []Zone    `json:"zones"`
}

// Predictor produces zone predictions from the current request picture
type Predictor interface {
	Predict(ctx context.Context) (*PredictionResponse, error)
	Health(ctx context.Context) error
}
