package model

// All 마이그레이션 대상 모델 (삭제 시 역순 사용)
func All() []interface{} {
	return []interface{}{
		&Keyword{},
		&ProductCandidate{},
		&Post{},
		&PostProduct{},
		&BudgetLedgerEntry{},
		&BudgetReservation{},
		&AppConfig{},
		&NaverToken{},
	}
}
