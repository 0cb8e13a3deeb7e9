package mail

import (
	"log"

	"github.com/lanekit/auth-service/internal/configs"
)

func NewMailerService(cfg *configs.Config) Mailer {
	switch cfg.Env.CurrentEnv {
	case "production":
		log.Println("INFO: Initializing Resend Mail Service for production environment.")
		return NewResendMailService(cfg.Mail.EmailAPIKey, cfg.Mail.SenderEmail)
	default:
		log.Println("INFO: Initializing SMTP Mail Service for development/test environment.")
		return NewSMTPMailService(
			cfg.Mail.SMTPHost,
			cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUsername,
			cfg.Mail.SMTPPassword,
			cfg.Mail.SenderEmail,
		)
	}
}
