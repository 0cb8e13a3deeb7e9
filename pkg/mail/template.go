package mail

import "fmt"

// VerificationEmailBody renders the HTML body carrying an OTP, personalized
// with the recipient's first name.
func VerificationEmailBody(name, code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<style>
		body { font-family: Arial, sans-serif; }
		.email-container { padding: 20px; background-color: #f3f3f3; border-radius: 5px; }
		.email-header { font-size: 24px; color: #333; }
		.email-content { margin-top: 10px; font-size: 16px; color: #555; }
	</style>
</head>
<body>
	<div class="email-container">
		<h2 class="email-header">Hello, %s!</h2>
		<p class="email-content">Your OTP is: <strong>%s</strong></p>
		<p class="email-content">Please use this OTP to verify your email. It expires in 10 minutes.</p>
	</div>
</body>
</html>`, name, code)
}

// PasswordResetEmailBody renders the HTML body for the password reset OTP.
func PasswordResetEmailBody(name, code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<style>
		body { font-family: Arial, sans-serif; }
		.email-container { padding: 20px; background-color: #f3f3f3; border-radius: 5px; }
		.email-header { font-size: 24px; color: #333; }
		.email-content { margin-top: 10px; font-size: 16px; color: #555; }
	</style>
</head>
<body>
	<div class="email-container">
		<h2 class="email-header">Hello, %s!</h2>
		<p class="email-content">You requested a password reset. Use the following OTP to reset your password: <strong>%s</strong></p>
		<p class="email-content">It will expire in 10 minutes. If you did not request this, you can ignore this email.</p>
	</div>
</body>
</html>`, name, code)
}
