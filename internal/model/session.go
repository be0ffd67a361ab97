package model

import (
	"time"

	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionScored SessionStatus = "scored"
)

// QuestionRecord 会话中的一次问答，内嵌在 Session 中
type QuestionRecord struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Feedback  string    `json:"feedback"`
	Timestamp time.Time `json:"timestamp"`
}

// Session 一次面试练习
// swagger:model Session
type Session struct {
	DocumentBase
	UserID        string                              `gorm:"size:64;not null;index" json:"userId"`
	Topic         string                              `gorm:"size:255;not null" json:"topic"`
	Difficulty    Difficulty                          `gorm:"size:10;not null" json:"difficulty"`
	Questions     datatypes.JSONSlice[QuestionRecord] `json:"questions"`
	Score         int                                 `gorm:"default:0" json:"score"`
	Status        SessionStatus                       `gorm:"size:10;default:'active'" json:"status"`
	Version       int                                 `gorm:"not null;default:1" json:"version"`
	TranscriptURL string                              `gorm:"size:255" json:"transcriptUrl,omitempty"`
}

func (Session) TableName() string {
	return "interview_sessions"
}

// PreviousQuestions 已经问过的问题文本
func (s *Session) PreviousQuestions() []string {
	out := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		out = append(out, q.Question)
	}
	return out
}
