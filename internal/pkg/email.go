package pkg

import (
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // 显示的发件人，可与 Username 相同
}

// Enabled 未配置 SMTP 时只记日志不发信
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return d.DialAndSend(m)
}

// ExpiryWarningHTML 回收站记录即将被永久删除的提醒
func ExpiryWarningHTML(displayName, kind, label string, days int, permanentAt time.Time) string {
	return fmt.Sprintf(`<p>Hello %s,</p><p>The %s <b>%s</b> you deleted will be removed permanently in <b>%d day(s)</b> (%s UTC).</p><p>An administrator can still restore it from the deleted items list until then.</p>`,
		html.EscapeString(displayName), kind, html.EscapeString(label), days, permanentAt.UTC().Format("2006-01-02 15:04"))
}
