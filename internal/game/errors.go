package game

import "errors"

var (
	// ErrPlayerNotFound 表示行動者不在房間內，事件應直接丟棄
	ErrPlayerNotFound = errors.New("player not found")
	// ErrRoomFull 表示房間人數已達上限
	ErrRoomFull = errors.New("房間已滿")
	// ErrGameStarted 表示房間不在大廳階段，無法加入
	ErrGameStarted = errors.New("遊戲已開始或結束，無法加入")
)

// RejectCode 區分驗證失敗的原因
type RejectCode string

const (
	RejectPhase     RejectCode = "phase"
	RejectDead      RejectCode = "dead"
	RejectRole      RejectCode = "role"
	RejectCooldown  RejectCode = "cooldown"
	RejectRange     RejectCode = "range"
	RejectTarget    RejectCode = "target"
	RejectImmune    RejectCode = "immune"
	RejectZone      RejectCode = "zone"
	RejectUsed      RejectCode = "used"
	RejectBusy      RejectCode = "busy"
	RejectInput     RejectCode = "input"
	RejectCompleted RejectCode = "completed"
	RejectHost      RejectCode = "host"
	RejectNotReady  RejectCode = "not_ready"
)

// Rejection 表示行動未通過驗證；只回報給行動者本人，且狀態不會有任何改變
type Rejection struct {
	Code    RejectCode
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(code RejectCode, message string) error {
	return &Rejection{Code: code, Message: message}
}

// RejectionCode 取出錯誤中的驗證失敗代碼，非驗證錯誤時回傳空字串
func RejectionCode(err error) RejectCode {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Code
	}
	return ""
}
