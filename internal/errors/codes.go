package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 대시보드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // 로그인 필요
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // 잘못된 아이디/비밀번호
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // 토큰 만료
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // 잘못된 토큰

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // 접근 권한 없음
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // 권한 정보 없음
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"     // 관리자만 가능

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput    = "VALIDATION_INVALID_INPUT"    // 잘못된 입력
	ValidationInvalidID       = "VALIDATION_INVALID_ID"       // 잘못된 ID
	ValidationInvalidFormat   = "VALIDATION_INVALID_FORMAT"   // 잘못된 형식
	ValidationRequired        = "VALIDATION_REQUIRED"         // 필수 항목
	ValidationConfirmRequired = "VALIDATION_CONFIRM_REQUIRED" // 파괴적 작업 확인 누락

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"       // 충돌

	// ==================== 키워드 (KEYWORD_) ====================
	KeywordNotFound     = "KEYWORD_NOT_FOUND"     // 키워드 없음
	KeywordSourceFailed = "KEYWORD_SOURCE_FAILED" // 트렌드 소스 조회 실패
	KeywordInvalidDate  = "KEYWORD_INVALID_DATE"  // 잘못된 수집일

	// ==================== 상품/제휴 (PRODUCT_) ====================
	ProductNotFound        = "PRODUCT_NOT_FOUND"        // 상품 후보 없음
	ProductMappingRequired = "PRODUCT_MAPPING_REQUIRED" // 제휴 링크 매핑 필요
	ProductEmptyAffiliate  = "PRODUCT_EMPTY_AFFILIATE"  // 제휴 링크 누락
	ProductInvalidStatus   = "PRODUCT_INVALID_STATUS"   // 잘못된 상태 필터

	// ==================== 게시글 (POST_) ====================
	PostNotFound          = "POST_NOT_FOUND"          // 게시글 없음
	PostCompareMinimum    = "POST_COMPARE_MINIMUM"    // 비교 글은 2개 이상 선택
	PostInvalidTemplate   = "POST_INVALID_TEMPLATE"   // 잘못된 템플릿 유형/입력
	PostInvalidSchedule   = "POST_INVALID_SCHEDULE"   // 예약 시각 파싱 실패
	PostScheduleInPast    = "POST_SCHEDULE_IN_PAST"   // 과거 예약 시각
	PostInvalidTransition = "POST_INVALID_TRANSITION" // 허용되지 않는 상태 전이
	PostPublishFailed     = "POST_PUBLISH_FAILED"     // 블로그 발행 실패
	PostArchiveMissing    = "POST_ARCHIVE_MISSING"    // 보관본 없음

	// ==================== 예산 (BUDGET_) ====================
	BudgetExceeded = "BUDGET_EXCEEDED" // 일/월 한도 초과

	// ==================== AI 공급자 (AI_) ====================
	AIProviderTransient = "AI_PROVIDER_TRANSIENT" // 일시 오류 (재시도 소진)
	AIProviderPermanent = "AI_PROVIDER_PERMANENT" // 인증 실패/안전 차단 등
	AIInvalidConfig     = "AI_INVALID_CONFIG"     // 잘못된 AI 설정
	AIInvalidResponse   = "AI_INVALID_RESPONSE"   // 응답 파싱 실패

	// ==================== 블로그 연동 (BLOG_) ====================
	BlogNotConnected = "BLOG_NOT_CONNECTED" // 블로그 미연결

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"   // 설정 오류
)
