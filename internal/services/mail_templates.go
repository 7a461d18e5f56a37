package services

import (
	"fmt"
	"strings"
)

func renderMail(title string, lines []string) string {
	var body strings.Builder
	for _, line := range lines {
		body.WriteString("<p>" + line + "</p>")
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; background-color: #f7f7f7; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
    <h2 style="color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px;">%s</h2>
    <div style="margin-top: 20px; color: #555; line-height: 1.6;">%s</div>
    <div style="margin-top: 30px; font-size: 13px; color: #888;"><p>Thank you,<br>DineHub Team</p></div>
  </div>
</div>`, title, body.String())
}

// RegistrationOTPMail returns subject and body for the registration code mail.
func RegistrationOTPMail(code string) (string, string) {
	subject := "Your OTP Code"
	html := renderMail(subject, []string{
		fmt.Sprintf("Your OTP code is: <strong>%s</strong>", code),
		"It will expire in 5 minutes.",
	})
	return subject, html
}

// PasswordResetOTPMail returns subject and body for the reset code mail.
func PasswordResetOTPMail(code string) (string, string) {
	subject := "Reset Your Password"
	html := renderMail(subject, []string{
		fmt.Sprintf("Your OTP for resetting password is: <strong>%s</strong>", code),
		"Expires in 5 minutes.",
	})
	return subject, html
}

// WelcomeMail returns subject and body for the post-registration mail.
func WelcomeMail(firstName string) (string, string) {
	subject := "Welcome to DineHub!"
	html := renderMail(subject, []string{
		fmt.Sprintf("Hello %s,", firstName),
		"Thank you for registering with <strong>DineHub</strong>.",
		"Your registration was successful. You can now explore the menu, place orders, and reserve your preferred table.",
	})
	return subject, html
}

// PasswordChangedMail returns subject and body for the reset confirmation mail.
func PasswordChangedMail(firstName string) (string, string) {
	subject := "Your Password Was Successfully Changed"
	html := renderMail(subject, []string{
		fmt.Sprintf("Hi %s,", firstName),
		"This is a confirmation that your password has been successfully updated for your <strong>DineHub</strong> account.",
		"If you did not perform this action, please contact our support team immediately.",
	})
	return subject, html
}
