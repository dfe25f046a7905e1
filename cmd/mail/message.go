package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cin-planner/planejador/internal/domain"
	"github.com/wneessen/go-mail"
)

const scheduleSubject = "CIn - Seu cronograma de disciplinas"

func scheduleBody(data domain.ScheduleMailData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá, %s!\n\n", data.Student)
	b.WriteString("Disciplinas selecionadas:\n")
	for _, s := range data.Sections {
		fmt.Fprintf(&b, "  - %s\n", s)
	}
	b.WriteString("\nCronograma semanal:\n\n")
	b.WriteString(data.Grid)
	if data.ICS != "" {
		b.WriteString("\nO arquivo horario.ics em anexo pode ser importado no seu calendário.\n")
	}
	return b.String()
}

/**
 * buildMessage 根据队列中的消息构建邮件
 * 返回的错误都属于消息本身有问题，重试也不会成功
 */
func buildMessage(from string, received domain.ReceivedMailMessage) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(received.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}

	switch received.Type {
	case domain.MailTypeSchedule:
		var data domain.ScheduleMailData
		if err := json.Unmarshal(received.Data, &data); err != nil {
			return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
		}

		msg.Subject(scheduleSubject)
		msg.SetBodyString(mail.TypeTextPlain, scheduleBody(data))
		if data.ICS != "" {
			if err := msg.AttachReader("horario.ics", strings.NewReader(data.ICS), mail.WithFileContentType("text/calendar")); err != nil {
				return nil, fmt.Errorf("无法添加附件: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("不支持的邮件类型: %s", received.Type)
	}

	return msg, nil
}
