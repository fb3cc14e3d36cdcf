package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/internal/db"
	"github.com/ikkim/coupang-partners-backend/pkg/trends"
	"github.com/ikkim/coupang-partners-backend/pkg/util"
)

const usage = `Usage:
  go run cmd/seed/main.go keywords <xlsx_file_path> [YYYY-MM-DD]
  go run cmd/seed/main.go hash-password <password>`

func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	switch os.Args[1] {
	case "keywords":
		date := ""
		if len(os.Args) > 3 {
			date = os.Args[3]
		}
		importKeywords(os.Args[2], date)
	case "hash-password":
		// ADMIN_PASSWORD_HASH 에 넣을 bcrypt 해시
		hash, err := util.HashPassword(os.Args[2])
		if err != nil {
			log.Fatal("Failed to hash password:", err)
		}
		fmt.Println(hash)
	default:
		log.Fatal(usage)
	}
}

func importKeywords(filePath, date string) {
	// XLSX 파일 미리 읽기
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	records, err := trends.ReadXLSX(filePath, time.Now())
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Total keywords to import: %d\n", len(records))

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// 사용자 확인
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	// 서버와 같은 수집 경로 (같은 날짜 재실행 시 중복 제거)
	keywords := service.NewKeywordService(
		repository.NewKeywordRepository(db.GetDB()),
		db.GetDB(),
		trends.NewXLSXSource(filePath, time.Now),
		nil,
		loc,
		nil,
		nil,
	)

	result, err := keywords.Fetch(context.Background(), date)
	if err != nil {
		log.Fatal("Failed to import keywords:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Date: %s, imported: %d, duplicates removed: %d\n", result.Date, result.Fetched, result.Removed)
}
