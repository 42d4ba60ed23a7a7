package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
)

func main() {
	fmt.Println("🔍 Проверка конфигурации...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env файл не найден: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Ошибка валидации конфигурации:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Конфигурация валидна!")
	fmt.Printf("📋 Детали конфигурации:\n")
	fmt.Printf("  - Environment: %s\n", cfg.Environment)
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Printf("  - HTTP Address: %s\n", cfg.HTTP.Address)
	fmt.Printf("  - CORS Origins: %s\n", strings.Join(cfg.HTTP.CORSOrigins, ", "))
	fmt.Printf("  - JWT Secret: %s\n", maskToken(cfg.Auth.JWTSecret))
	fmt.Printf("  - JWT Issuer: %s\n", cfg.Auth.JWTIssuer)
	fmt.Printf("  - Token TTL: %s\n", cfg.Auth.TokenTTL)
	fmt.Printf("  - Storage Backend: %s\n", cfg.Storage.Backend)

	switch cfg.Storage.Backend {
	case config.BackendFirestore:
		fmt.Printf("  - Firestore Project: %s\n", cfg.Firestore.ProjectID)
		fmt.Printf("  - Credentials File: %s\n", orUnset(cfg.Firestore.CredentialsFile))
	case config.BackendDynamoDB:
		fmt.Printf("  - DynamoDB Region: %s\n", cfg.DynamoDB.Region)
		fmt.Printf("  - DynamoDB Table: %s (index %s)\n", cfg.DynamoDB.Table, cfg.DynamoDB.IndexName)
		fmt.Printf("  - DynamoDB Endpoint: %s\n", orUnset(cfg.DynamoDB.Endpoint))
	case config.BackendPostgres:
		fmt.Printf("  - DB Host: %s\n", cfg.DB.Host)
		fmt.Printf("  - DB Port: %s\n", cfg.DB.Port)
		fmt.Printf("  - DB User: %s\n", cfg.DB.User)
		fmt.Printf("  - DB Password: %s\n", maskToken(cfg.DB.Password))
		fmt.Printf("  - DB Name: %s\n", cfg.DB.DBName)
	}

	if cfg.Redis.Enabled() {
		fmt.Printf("  - Redis: %s:%s (db %d), password %s\n", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB, maskToken(cfg.Redis.Password))
	} else {
		fmt.Printf("  - Redis: <не установлен>, используется память процесса\n")
	}
	fmt.Printf("  - Reminder Min Interval: %s\n", cfg.Reminder.MinInterval)
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<не установлен>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "<не установлен>"
	}
	return s
}
