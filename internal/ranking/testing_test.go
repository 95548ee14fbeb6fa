package ranking

import (
	"math"
	"testing"

	"github.com/hyperjump/askme/internal/models"
)

func candidate(doc, chunk string, fusion float64, meta map[string]interface{}) *models.RankedCandidate {
	return &models.RankedCandidate{
		FusedCandidate: &models.FusedCandidate{
			Candidate: &models.Candidate{
				Key:           models.CandidateKey{DocumentID: doc, ChunkID: chunk},
				ChannelScores: map[models.Channel]float64{models.ChannelVector: fusion},
				Metadata:      meta,
			},
			FusionScore: fusion,
		},
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}
