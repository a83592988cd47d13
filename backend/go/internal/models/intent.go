package models

import (
	"time"
)

// IntentSource 标识了 EventIntent 是由哪条解析路径产生的。
type IntentSource string

const (
	SourceLLM      IntentSource = "llm"            // 主路径：由大语言模型解析。
	SourceFallback IntentSource = "regex-fallback" // 回退路径：由固定的规则集解析。
)

// IntentType 定义了从口述指令中识别出的操作类型。
type IntentType string

const (
	IntentCreateEvent IntentType = "CreateEvent" // 创建日历事件。
	IntentMoveEvent   IntentType = "MoveEvent"   // 移动（改期）已有事件。
	IntentCancelEvent IntentType = "CancelEvent" // 取消已有事件。
	IntentUnknown     IntentType = "Unknown"     // 无法识别的操作。
)

// InterpretRequest 是解释一条语音转写文本所需的全部输入。
// Transcript 是不可变的输入字符串；Reference 是指令发出的时刻，
// 所有相对时间表达（"明天"、"next Friday"）都相对它解析。
type InterpretRequest struct {
	Transcript string    `json:"transcript"`         // 语音识别产生的转写文本。
	Reference  time.Time `json:"reference"`          // 参考时间戳（指令发出时刻）。
	Timezone   string    `json:"timezone,omitempty"` // IANA 时区；为空时使用服务配置的默认时区。
}

// EventIntent 是从自然语言中抽取出的结构化日历事件。
type EventIntent struct {
	Intent          IntentType   `json:"intent"`              // 操作类型。
	Title           string       `json:"title,omitempty"`     // 事件标题（可选）。
	Start           time.Time    `json:"start"`               // 绝对开始时间（解析成功后必填）。
	DurationMinutes int          `json:"durationMinutes"`     // 持续时长（分钟）；未指定时应用默认值。
	AllDay          bool         `json:"allDay,omitempty"`    // 是否为全天事件（只有日期、没有时间）。
	Attendees       []string     `json:"attendees,omitempty"` // 参与者标识（邮箱或姓名）。
	Timezone        string       `json:"timezone,omitempty"`  // 解析该事件时使用的 IANA 时区。
	Source          IntentSource `json:"source"`              // 产生该结果的解析路径。
}

// End 返回事件的结束时间。全天事件按整天计算。
func (e *EventIntent) End() time.Time {
	if e.AllDay {
		return e.Start.AddDate(0, 0, 1)
	}
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// 解析失败的原因常量。Field 指出缺失或无法解析的字段。
const (
	FailureMissingStart  = "ambiguous or missing start time"
	FailureEmptyInput    = "empty transcript"
	FailureUnknownIntent = "unrecognized command intent"
)

// ParseFailure 表示两条路径都无法解析出必填字段时的终态结果。
type ParseFailure struct {
	Reason string `json:"reason"`          // 失败原因（人类可读）。
	Field  string `json:"field,omitempty"` // 缺失的必填字段名，例如 "start"。
}

// InterpretOutcome 是解释一条转写文本的唯一终态输出：
// Intent 与 Failure 恰好有一个非 nil，调用方必须同时处理两种结果。
type InterpretOutcome struct {
	Intent  *EventIntent  `json:"intent,omitempty"`
	Failure *ParseFailure `json:"failure,omitempty"`
}

// OK 报告该结果是否为成功解析出的 EventIntent。
func (o *InterpretOutcome) OK() bool {
	return o != nil && o.Intent != nil
}
