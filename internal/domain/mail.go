package domain

import "encoding/json"

const MailTypeSchedule = "schedule"

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

// ReceivedMailMessage 是消费端使用的形式，Data 延迟到确定类型后再解析
type ReceivedMailMessage struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type ScheduleMailData struct {
	Student  string   `json:"student"`
	Sections []string `json:"sections"`
	Grid     string   `json:"grid"`
	ICS      string   `json:"ics"`
}

// ScheduleMailQueue 是课表邮件使用的队列
const ScheduleMailQueue = "schedule_email_queue"
