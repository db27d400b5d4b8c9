package zone

import (
	"context"
	"fmt"
	"time"

	"github.com/siren-bd/platform/internal/request/domain"
	"github.com/siren-bd/platform/internal/shared/types"
)

// clusterRadiusKm groups requests into one zone when they fall within
// this distance of the cluster seed.
const clusterRadiusKm = 5.0

// Heuristic predicts risk zones by clustering open geo-tagged requests.
// It is the configured predictor when no external model service is
// deployed; selection happens at startup, never as a runtime fallback.
type Heuristic struct {
	requests domain.Repository
}

// NewHeuristic creates a request-clustering predictor
func NewHeuristic(requests domain.Repository) *Heuristic {
	return &Heuristic{requests: requests}
}

// Predict clusters active requests into zones graded by volume and severity
func (h *Heuristic) Predict(ctx context.Context) (*PredictionResponse, error) {
	active, _, err := h.requests.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, err
	}

	var located []*domain.Request
	for _, r := range active {
		if r.Coordinates == nil {
			continue
		}
		if r.Status == domain.StatusCompleted || r.Status == domain.StatusCancelled {
			continue
		}
		located = append(located, r)
	}

	clusters := clusterByProximity(located)

	zones := make([]Zone, 0, len(clusters))
	for i, cluster := range clusters {
		zones = append(zones, buildZone(fmt.Sprintf("Zone %d", i+1), cluster))
	}

	return &PredictionResponse{
		GeneratedAt: time.Now().UTC(),
		ModelUsed:   "heuristic-cluster-v1",
		Zones:       zones,
	}, nil
}

// Health always reports healthy; the heuristic has no remote dependency
func (h *Heuristic) Health(ctx context.Context) error {
	return nil
}

// clusterByProximity greedily seeds clusters with the first unclaimed
// request and absorbs everything within the cluster radius.
func clusterByProximity(requests []*domain.Request) [][]*domain.Request {
	var clusters [][]*domain.Request
	claimed := make([]bool, len(requests))

	for i, seed := range requests {
		if claimed[i] {
			continue
		}
		cluster := []*domain.Request{seed}
		claimed[i] = true

		for j := i + 1; j < len(requests); j++ {
			if claimed[j] {
				continue
			}
			if seed.Coordinates.DistanceKm(*requests[j].Coordinates) <= clusterRadiusKm {
				cluster = append(cluster, requests[j])
				claimed[j] = true
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

func buildZone(name string, cluster []*domain.Request) Zone {
	var latSum, lngSum, score float64
	typeCounts := make(map[domain.EmergencyType]int)

	for _, r := range cluster {
		latSum += r.Coordinates.Lat
		lngSum += r.Coordinates.Lng
		score += severityWeight(r.Severity)
		typeCounts[r.EmergencyType]++
	}

	center := types.Coordinates{
		Lat: latSum / float64(len(cluster)),
		Lng: lngSum / float64(len(cluster)),
	}

	var dominant domain.EmergencyType
	best := 0
	for t, n := range typeCounts {
		if n > best {
			dominant, best = t, n
		}
	}

	return Zone{
		Name:           name,
		Center:         center,
		RadiusKm:       clusterRadiusKm,
		RiskLevel:      riskFromScore(score),
		Score:          score,
		ActiveRequests: len(cluster),
		DominantType:   string(dominant),
	}
}

func severityWeight(s domain.Severity) float64 {
	switch s {
	case domain.SeverityCritical:
		return 4
	case domain.SeverityHigh:
		return 3
	case domain.SeverityMedium:
		return 2
	default:
		return 1
	}
}

func riskFromScore(score float64) RiskLevel {
	switch {
	case score >= 12:
		return RiskSevere
	case score >= 6:
		return RiskHigh
	case score >= 3:
		return RiskMedium
	default:
		return RiskLow
	}
}
