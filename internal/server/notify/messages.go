package notify

import "fmt"

const (
	TemplateVerifyEmail    = "verify_email.html"
	TemplateForgotPassword = "forgot_password.html"
	TemplateWelcome        = "welcome_email.html"
	TemplateChangeEmail    = "change_email.html"
	TemplateEmailVerified  = "email_verified.html"
)

const signature = "The credkeeper Team"

// VerifyEmailMessage asks the user to confirm their address. resend only
// changes the subject.
func VerifyEmailMessage(to, username, link string, resend bool) Message {
	subject := "Verify your email"
	if resend {
		subject = "Resend: verify your email"
	}
	return Message{
		To:       to,
		Subject:  subject,
		Template: TemplateVerifyEmail,
		Data:     map[string]any{"Username": username, "Link": link},
		FallbackBody: fmt.Sprintf("Hi %s,\n\nPlease verify your account by clicking:\n%s\n\n%s",
			username, link, signature),
	}
}

func WelcomeMessage(to, username string) Message {
	return Message{
		To:       to,
		Subject:  "Welcome!",
		Template: TemplateWelcome,
		Data:     map[string]any{"Username": username},
		FallbackBody: fmt.Sprintf("Hey %s,\n\nYour email has been verified and your account is now active.\n\n%s",
			username, signature),
	}
}

// ChangeEmailMessage goes to the new address.
func ChangeEmailMessage(to, username, link string) Message {
	return Message{
		To:       to,
		Subject:  "Confirm your new email address",
		Template: TemplateChangeEmail,
		Data:     map[string]any{"Username": username, "Link": link, "NewEmail": to},
		FallbackBody: fmt.Sprintf("Hey %s,\n\nYou requested to change your email to %s.\nConfirm here: %s\n\n%s",
			username, to, link, signature),
	}
}

func EmailChangedMessage(to, username string) Message {
	return Message{
		To:       to,
		Subject:  "Email updated",
		Template: TemplateEmailVerified,
		Data:     map[string]any{"Username": username, "Email": to},
		FallbackBody: fmt.Sprintf("Hey %s,\n\nYour email has been updated to %s. You're all set!\n\n%s",
			username, to, signature),
	}
}

func PasswordResetMessage(to, username, link string) Message {
	return Message{
		To:       to,
		Subject:  "Password reset",
		Template: TemplateForgotPassword,
		Data:     map[string]any{"Username": username, "Link": link},
		FallbackBody: fmt.Sprintf("Hi %s,\n\nYou requested a password reset. Click here:\n%s\n\n%s",
			username, link, signature),
	}
}
