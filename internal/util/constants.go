package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeJSON = "application/json"
)

const (
	// FallbackFeedback 生成反馈失败时的固定文案
	FallbackFeedback = "Great answer! Keep practicing to improve further."
	// FallbackQuestionFormat 生成题目失败时的固定文案，依次填入 topic 和 difficulty
	FallbackQuestionFormat = "What is %s? Explain with examples. (%s level)"
)
