package models

import (
	"time"
)

// CommandStatus 定义了一条语音指令在处理管线中的几种可能状态。
type CommandStatus string

const (
	CommandStatusPending   CommandStatus = "pending"   // 已接收，等待预订结果。
	CommandStatusRejected  CommandStatus = "rejected"  // 解释失败（ParseFailure），不会进入预订。
	CommandStatusBooked    CommandStatus = "booked"    // 日历操作已成功执行。
	CommandStatusFailed    CommandStatus = "failed"    // 日历操作失败。
)

// CommandRecord 代表一条持久化的语音指令处理记录。
type CommandRecord struct {
	ID          string            `bson:"_id" json:"id"`                            // 指令唯一ID (UUID 字符串)。
	UserID      string            `bson:"user_id" json:"userID"`                    // 提交指令的用户ID。
	Status      CommandStatus     `bson:"status" json:"status"`                     // 指令当前状态。
	Transcript  string            `bson:"transcript" json:"transcript"`             // 原始转写文本。
	Reference   time.Time         `bson:"reference" json:"reference"`               // 解释时使用的参考时间戳。
	Timezone    string            `bson:"timezone,omitempty" json:"timezone,omitempty"` // 请求的时区。
	Outcome     *InterpretOutcome `bson:"outcome,omitempty" json:"outcome,omitempty"`   // 解释结果（意图或失败）。
	Booking     *BookingResult    `bson:"booking,omitempty" json:"booking,omitempty"`   // 预订结果。
	Error       string            `bson:"error,omitempty" json:"error,omitempty"`       // 管线层面的错误信息。
	SubmittedAt time.Time         `bson:"submitted_at" json:"submittedAt"`          // 指令提交时间。
	CompletedAt time.Time         `bson:"completed_at,omitempty" json:"completedAt,omitempty"` // 指令完成时间。
}
