package constant

const (
	ReservationStatusDefault   = "예약 완료"
	ReservationStatusCheckedIn = "체크인✅"
)

const (
	NoticeCallNext        = "다음 순번 (%d번) 호출 완료!"
	NoticeTicketIssued    = "대기 등록 완료! 당신의 번호는 %d번입니다."
	NoticeQueueReset      = "초기화되었습니다."
	NoticeCheckedIn       = "체크인 완료"
	NoticeEmailRequested  = "이메일 요청 완료"
	NoticeEmailSent       = "이메일 발송 완료"
	NoticeStatusUpdated   = "상태가 변경되었습니다."
	NoticeLoginFailed     = "로그인 실패: 이메일 또는 비밀번호를 확인하세요."
)

// Error bodies of the admin API.
const (
	NoticeInvalidRequest       = "잘못된 요청입니다."
	NoticeValidationFailed     = "모든 정보를 입력해주세요."
	NoticeConfirmationRequired = "대기열을 초기화하시겠습니까?"
	NoticeInvalidStatus        = "변경할 수 없는 상태입니다."
	NoticeEmailMissing         = "이메일 주소가 없는 예약입니다."
	NoticeReservationNotFound  = "예약을 찾을 수 없습니다."
	NoticeUnauthorized         = "로그인이 필요합니다."
	NoticeAllocationFailed     = "번호 발급에 실패했습니다. 다시 시도해주세요."
	NoticeUpdateFailed         = "저장에 실패했습니다."
	NoticeEmailSendFailed      = "이메일 발송에 실패했습니다."
	NoticeInternalError        = "서버 오류가 발생했습니다."
	NoticeDashboardNotReady    = "대시보드를 준비 중입니다."
	NoticeInvalidLimit         = "잘못된 조회 개수입니다."
)

const DashboardTitle = "통합 부스 관리 대시보드 (%s)"

// WaitingTimeLayout formats entry timestamps on the dashboard.
const WaitingTimeLayout = "15:04:05"
