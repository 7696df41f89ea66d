package mailer

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// Mailer sends transactional emails via SMTP
type Mailer struct {
	host        string
	port        int
	username    string
	password    string
	from        string
	supportAddr string
}

// NewMailer creates a mailer from SMTP_* environment variables
func NewMailer() *Mailer {
	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	return &Mailer{
		host:        getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		port:        port,
		username:    os.Getenv("SMTP_USERNAME"),
		password:    os.Getenv("SMTP_PASSWORD"),
		from:        getEnvOrDefault("SMTP_FROM", "noreply@coursehive.app"),
		supportAddr: getEnvOrDefault("SUPPORT_EMAIL", "support@coursehive.app"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsConfigured checks if SMTP is properly configured
func (m *Mailer) IsConfigured() bool {
	return m.username != "" && m.password != ""
}

// NotifyContactMessage forwards a contact-form submission to the support inbox
func (m *Mailer) NotifyContactMessage(name, email, message string) error {
	if !m.IsConfigured() {
		log.Printf("SMTP not configured. Contact message from %s <%s> not forwarded", name, email)
		return fmt.Errorf("SMTP not configured")
	}

	subject := fmt.Sprintf("New contact message from %s", name)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
    <h2>New Contact Message</h2>
    <p><strong>Name:</strong> %s</p>
    <p><strong>Email:</strong> %s</p>
    <p><strong>Message:</strong></p>
    <p>%s</p>
</body>
</html>`, name, email, message)

	return m.sendEmail(m.supportAddr, subject, body)
}

// SendEnrollmentConfirmation notifies a student that their purchase settled
func (m *Mailer) SendEnrollmentConfirmation(toEmail, userName, courseTitle string) error {
	if !m.IsConfigured() {
		log.Printf("SMTP not configured. Enrollment confirmation for %s skipped", toEmail)
		return fmt.Errorf("SMTP not configured")
	}
	if userName == "" {
		userName = "Student"
	}

	subject := fmt.Sprintf("You're enrolled in %s", courseTitle)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
    <h2>Enrollment Confirmed</h2>
    <p>Hello %s,</p>
    <p>Your payment was received and you now have full access to <strong>%s</strong>.</p>
    <p>Happy learning!</p>
</body>
</html>`, userName, courseTitle)

	return m.sendEmail(toEmail, subject, body)
}

// sendEmail sends an email using SMTP with TLS
func (m *Mailer) sendEmail(to, subject, htmlBody string) error {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("CourseHive <%s>", m.from)
	headers["Reply-To"] = m.supportAddr
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	tlsConfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         m.host,
	}

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(m.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	if _, err = w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	conn.Quit()

	log.Printf("Email sent to %s: %s", to, subject)
	return nil
}
