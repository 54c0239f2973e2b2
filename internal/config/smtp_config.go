package config

type Smtp struct {
	file *FileValues
}

var _ SmtpConfig = Smtp{}

func (s Smtp) GetSmtpHost() string {
	return s.lookup("SMTP_HOST", func(f *FileValues) string { return f.Smtp.Host }, "smtp.gmail.com")
}

func (s Smtp) GetSmtpPort() string {
	return s.lookup("SMTP_PORT", func(f *FileValues) string { return f.Smtp.Port }, "587")
}

func (s Smtp) GetSmtpAccount() string {
	return s.lookup("SMTP_ACCOUNT", func(f *FileValues) string { return f.Smtp.Account }, "")
}

func (s Smtp) GetSmtpPassword() string {
	return s.lookup("SMTP_PASSWORD", func(f *FileValues) string { return f.Smtp.Password }, "")
}

func (s Smtp) GetSmtpSender() string {
	sender := s.lookup("SMTP_SENDER", func(f *FileValues) string { return f.Smtp.Sender }, "")
	if sender == "" {
		sender = s.GetSmtpAccount()
	}
	return sender
}

func (s Smtp) lookup(envVar string, fromFile func(*FileValues) string, defaultValue string) string {
	if value := GetEnv(envVar, ""); value != "" {
		return value
	}
	if s.file != nil {
		if value := fromFile(s.file); value != "" {
			return value
		}
	}
	return defaultValue
}
