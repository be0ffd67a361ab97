package service

import (
	"interview_prep_backend/internal/model"
	"interview_prep_backend/pkg/logger"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var defaultTopics = []string{
	"JavaScript",
	"React",
	"Node.js",
	"Python",
	"Data Structures",
	"Algorithms",
	"System Design",
	"Database (SQL)",
	"Database (NoSQL)",
	"REST API",
	"DevOps",
	"Cloud Computing",
	"Machine Learning",
	"Behavioral Questions",
}

type topicFile struct {
	Topics []string `yaml:"topics"`
}

// TopicCatalog 可选题目方向与难度
// swagger:model TopicCatalog
type TopicCatalog struct {
	Topics       []string           `json:"topics"`
	Difficulties []model.Difficulty `json:"difficulties"`
}

// TopicService 题目方向目录，仅作前端展示用，创建会话时不校验
type TopicService struct {
	topics []string
}

// NewTopicService 文件不存在或解析失败时使用内置列表
func NewTopicService(path string) *TopicService {
	topics, err := loadTopics(path)
	if err != nil {
		logger.Log.Warn("Topic catalog not loaded, using built-in list", zap.String("path", path), zap.Error(err))
		topics = defaultTopics
	}
	return &TopicService{topics: topics}
}

func loadTopics(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f topicFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Topics) == 0 {
		return defaultTopics, nil
	}
	return f.Topics, nil
}

func (s *TopicService) Catalog() TopicCatalog {
	return TopicCatalog{
		Topics:       append([]string(nil), s.topics...),
		Difficulties: append([]model.Difficulty(nil), model.Difficulties...),
	}
}
