// 为已打分但尚未归档的面试会话补写问答记录归档
//
// 开启 session.archive_transcripts 之前结束的会话不会自动归档，
// 首次开启或更换存储后运行一次即可。
//
// 用法: go run scripts/archive_sessions.go [-config configs/config.yaml]

package main

import (
	"context"
	"flag"
	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/service"
	"interview_prep_backend/pkg/database"
	"interview_prep_backend/pkg/logger"
	"log"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// scriptConfig 只读取脚本需要的配置段
type scriptConfig struct {
	Server struct {
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Database struct {
		Driver    string `yaml:"driver"`
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		User      string `yaml:"user"`
		Password  string `yaml:"password"`
		DBName    string `yaml:"dbname"`
		Charset   string `yaml:"charset"`
		ParseTime bool   `yaml:"parse_time"`
		DSN       string `yaml:"dsn"`
	} `yaml:"database"`
	Storage struct {
		Type          string `yaml:"type"`
		LocalPath     string `yaml:"local_path"`
		MinioEndpoint string `yaml:"minio_endpoint"`
		MinioAccessID string `yaml:"minio_access_key"`
		MinioSecret   string `yaml:"minio_secret_key"`
		MinioBucket   string `yaml:"minio_bucket"`
		MinioSecure   bool   `yaml:"minio_secure"`
		OSSEndpoint   string `yaml:"oss_endpoint"`
		OSSAccessKey  string `yaml:"oss_access_key"`
		OSSSecretKey  string `yaml:"oss_secret_key"`
		OSSBucket     string `yaml:"oss_bucket"`
	} `yaml:"storage"`
}

func main() {
	path := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var sc scriptConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	cfg := config.Config{
		Server: config.ServerConfig{Mode: sc.Server.Mode},
		Database: config.DatabaseConfig{
			Driver:    sc.Database.Driver,
			Host:      sc.Database.Host,
			Port:      sc.Database.Port,
			User:      sc.Database.User,
			Password:  sc.Database.Password,
			DBName:    sc.Database.DBName,
			Charset:   sc.Database.Charset,
			ParseTime: sc.Database.ParseTime,
			DSN:       sc.Database.DSN,
		},
		Storage: config.StorageConfig(sc.Storage),
	}

	logger.InitLogger(&cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sessions := service.NewSessionService(
		repository.NewSessionRepository(db),
		repository.NewUserProfileRepository(db),
		nil,
		nil,
		service.NewStorageService(&cfg.Storage),
		config.SessionConfig{},
		0,
	)

	log.Println("开始补写会话归档...")
	n, err := sessions.BackfillTranscripts(context.Background())
	if err != nil {
		logger.Log.Fatal("补写归档失败", zap.Error(err))
	}
	log.Printf("完成！共归档 %d 个会话", n)
}
