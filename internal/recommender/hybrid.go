package recommender

import (
	"sort"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

// Algorithm names reported to callers.
const (
	AlgorithmContent = "content-based"
	AlgorithmHybrid  = "hybrid"
)

const (
	contentShare = 0.6
	collabShare  = 0.4
)

// HybridRecommender blends content-based and collaborative scores when a
// usable watch history is present, and falls back to pure content similarity
// otherwise.
type HybridRecommender struct {
	content *ContentRecommender
	collab  *CollaborativeRecommender
}

func NewHybridRecommender() *HybridRecommender {
	return &HybridRecommender{
		content: NewContentRecommender(),
		collab:  NewCollaborativeRecommender(),
	}
}

// Recommend returns up to limit recommendations for the target movie and the
// name of the algorithm that produced them.
func (r *HybridRecommender) Recommend(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]Recommendation, string, error) {
	// Over-fetch both sides so the blend has enough overlap to rank.
	contentRecs, err := r.content.Recommend(targetID, allMovies, limit*2)
	if err != nil {
		return nil, "", err
	}

	var collabRecs []Recommendation
	if useCollaborative && len(userHistory) > 0 {
		collabRecs = r.collab.Recommend(targetID, allMovies, userHistory, limit*2)
	}

	if len(collabRecs) == 0 {
		if limit > 0 && len(contentRecs) > limit {
			contentRecs = contentRecs[:limit]
		}
		return contentRecs, AlgorithmContent, nil
	}

	type blended struct {
		score float64
		rec   Recommendation
	}
	scores := map[int]*blended{}
	var order []int

	for _, rec := range contentRecs {
		scores[rec.MovieID] = &blended{score: rec.Similarity * contentShare, rec: rec}
		order = append(order, rec.MovieID)
	}
	for _, rec := range collabRecs {
		if b, ok := scores[rec.MovieID]; ok {
			b.score += rec.Similarity * collabShare
		} else {
			scores[rec.MovieID] = &blended{score: rec.Similarity * collabShare, rec: rec}
			order = append(order, rec.MovieID)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]].score > scores[order[j]].score
	})

	out := make([]Recommendation, 0, limit)
	for _, id := range order {
		out = append(out, scores[id].rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, AlgorithmHybrid, nil
}
