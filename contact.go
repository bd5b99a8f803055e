package main

import (
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"strings"

	"github.com/gin-gonic/gin"
)

type contactMessage struct {
	Name    string
	Email   string
	Message string
}

// Handle contact form submission with HTMX
func (s *server) handleContact(c *gin.Context) {
	msg := contactMessage{
		Name:    strings.TrimSpace(c.PostForm("fullName")),
		Email:   strings.TrimSpace(c.PostForm("email")),
		Message: strings.TrimSpace(c.PostForm("message")),
	}

	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please fill in your name, email and a message.",
		})
		return
	}
	// Header injection guard: these end up in the mail headers.
	if strings.ContainsAny(msg.Name+msg.Email, "\r\n") {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please check your name and email address.",
		})
		return
	}

	if err := s.mailer(s.cfg.SMTP, msg); err != nil {
		log.Printf("Error sending email: %v", err)
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}

func sendContactEmail(cfg SMTPConfig, msg contactMessage) error {
	if cfg.User == "" || cfg.Pass == "" {
		return fmt.Errorf("SMTP credentials not configured")
	}
	to := cfg.To
	if to == "" {
		to = cfg.User
	}

	raw := msg.mail(cfg.User, to)
	auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	if err := smtp.SendMail(cfg.Host+":"+cfg.Port, auth, cfg.User, []string{to}, raw); err != nil {
		return err
	}

	log.Printf("Email sent successfully from %s (%s)", msg.Name, msg.Email)
	return nil
}

// mail renders msg as an RFC 5322 message. Replies go to the visitor.
func (m contactMessage) mail(from, to string) []byte {
	headers := [][2]string{
		{"To", to},
		{"From", from},
		{"Reply-To", m.Email},
		{"Subject", "Portfolio Contact: " + m.Name},
	}
	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "New message from %s <%s>:\r\n\r\n", m.Name, m.Email)
	body := strings.ReplaceAll(m.Message, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n\r\n-- \r\nSent from the portfolio contact form\r\n")
	return []byte(b.String())
}
