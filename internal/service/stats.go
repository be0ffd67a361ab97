package service

import "interview_prep_backend/internal/model"

// SessionStats 历史会话的汇总数据，展示时实时计算，不落库
// swagger:model SessionStats
type SessionStats struct {
	TotalSessions  int                      `json:"totalSessions"`
	AverageScore   float64                  `json:"averageScore"`
	TotalQuestions int                      `json:"totalQuestions"`
	BestScore      int                      `json:"bestScore"`
	ByDifficulty   map[model.Difficulty]int `json:"byDifficulty"`
}

func ComputeStats(sessions []model.Session) SessionStats {
	stats := SessionStats{
		TotalSessions: len(sessions),
		ByDifficulty:  make(map[model.Difficulty]int, len(model.Difficulties)),
	}
	for _, d := range model.Difficulties {
		stats.ByDifficulty[d] = 0
	}
	if len(sessions) == 0 {
		return stats
	}

	total := 0
	for _, s := range sessions {
		total += s.Score
		stats.TotalQuestions += len(s.Questions)
		if s.Score > stats.BestScore {
			stats.BestScore = s.Score
		}
		stats.ByDifficulty[s.Difficulty]++
	}
	stats.AverageScore = float64(total) / float64(len(sessions))
	return stats
}
