package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷 메타데이터에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4
//   Symbol  Chain  Exposure  Skew  Snapshot

// Stage represents a pipeline stage
type Stage string

const (
	// StageSymbol S0: 계약 식별자 디코딩
	// 책임: 만기/행사가/타입 추출, ParseError
	// 위치: internal/s0_symbol/
	StageSymbol Stage = "S0_SYMBOL"

	// StageChain S1: 체인 정규화 및 Call/Put 분할
	// 책임: 필드 변환, DTE/Expected Move/GEX/Delta $ 계산, SchemaError
	// 위치: internal/s1_chain/
	StageChain Stage = "S1_CHAIN"

	// StageExposure S2: 만기별/행사가별 집계
	// 책임: group-reduce, Put 부호 반전, Net/Ratio 계산
	// 위치: internal/s2_exposure/
	StageExposure Stage = "S2_EXPOSURE"

	// StageSkew S3: IV 스큐
	// 책임: ATM Call / OTM Put 선택, Skew 계산
	// 위치: internal/s3_skew/
	StageSkew Stage = "S3_SKEW"

	// StageSnapshot S4: 스냅샷 조립
	// 책임: 불변 TickerSnapshot 생성, Put-Call Ratio, 회사명
	// 위치: internal/analytics/
	StageSnapshot Stage = "S4_SNAPSHOT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageSymbol:
		return "S0"
	case StageChain:
		return "S1"
	case StageExposure:
		return "S2"
	case StageSkew:
		return "S3"
	case StageSnapshot:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// Description returns a short description of the stage
func (s Stage) Description() string {
	switch s {
	case StageSymbol:
		return "Symbol decoding"
	case StageChain:
		return "Chain normalization"
	case StageExposure:
		return "Exposure aggregation"
	case StageSkew:
		return "IV skew"
	case StageSnapshot:
		return "Snapshot assembly"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageSymbol,
		StageChain,
		StageExposure,
		StageSkew,
		StageSnapshot,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_us"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
